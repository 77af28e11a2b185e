package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/a3tai/mcp-idcard-reader/internal/document"
	"github.com/a3tai/mcp-idcard-reader/internal/textsource"
)

// LockedHeader is set on responses produced under the partial locked
// document policy.
const LockedHeader = "X-Document-Locked"

// errMissingFile is returned when the multipart form has no "file" part.
var errMissingFile = errors.New("missing file field 'file' (send multipart/form-data with field name 'file')")

type parseRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// handleExtract reads an uploaded card and returns its flat record.
func (a *API) handleExtract(w http.ResponseWriter, r *http.Request) {
	upload, err := a.readUpload(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	result, err := a.service.Extract(r.Context(), upload.data, upload.paginated, upload.password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set(LockedHeader, strconv.FormatBool(result.Locked))
	writeJSON(w, http.StatusOK, result.Record)
}

// handleVerify reads an uploaded card and compares it with the claim fields.
func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	upload, err := a.readUpload(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	claims := document.Claims{
		Name:        r.FormValue("name"),
		IDNumber:    r.FormValue("id_number"),
		DateOfBirth: r.FormValue("date_of_birth"),
	}

	result, err := a.service.Verify(r.Context(), upload.data, upload.paginated, upload.password, claims)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set(LockedHeader, strconv.FormatBool(result.Locked))
	writeJSON(w, http.StatusOK, result)
}

// handleParse parses text posted as {"text": "..."}.
func (a *API) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize)

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.writeError(w, r, fmt.Errorf("%w: request body exceeds %d bytes", document.ErrFileTooLarge, maxErr.Limit))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, a.service.ParseText(req.Text))
}

type upload struct {
	data      []byte
	paginated bool
	password  string
}

// readUpload parses the multipart form and loads the "file" part. The
// ".pdf" extension selects the PDF path, otherwise the content is sniffed.
func (a *API) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize)
	if err := r.ParseMultipartForm(a.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", document.ErrFileTooLarge, maxErr.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, errMissingFile
		}
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errMissingFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return &upload{
		data:      data,
		paginated: document.IsPaginated(header.Filename, data),
		password:  r.FormValue("password"),
	}, nil
}

// writeError maps service errors to HTTP status codes.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %s %s failed: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errMissingFile), errors.Is(err, document.ErrNoClaims):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, textsource.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, textsource.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, textsource.ErrAuthentication):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
