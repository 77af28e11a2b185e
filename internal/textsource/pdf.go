package textsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfMagic prefixes every PDF file.
var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts like a PDF file.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// PDFReader reads the embedded text of PDF documents page by page.
// ledongthuc/pdf does the text extraction; pdfcpu decrypts documents whose
// security handler ledongthuc cannot open.
type PDFReader struct{}

// NewPDFReader creates a PDFReader.
func NewPDFReader() *PDFReader {
	return &PDFReader{}
}

// ReadPages returns the plain text of every page in document order.
func (r *PDFReader) ReadPages(ctx context.Context, data []byte, password string) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = decodeError("read_pages", fmt.Errorf("malformed PDF: %v", rec))
		}
	}()

	reader, err := openPDF(data, password)
	if err != nil {
		return nil, err
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, decodeError("read_page", fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// PDFInfo summarizes a PDF without extracting its text.
type PDFInfo struct {
	Pages     int  `json:"pages"`
	Encrypted bool `json:"encrypted"`
}

// Inspect reads the document structure with pdfcpu.
func (r *PDFReader) Inspect(data []byte, password string) (*PDFInfo, error) {
	conf := newPDFCPUConfig(password)
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		if isPasswordError(err) {
			return nil, authenticationError("inspect_pdf", err)
		}
		return nil, decodeError("inspect_pdf", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, decodeError("inspect_pdf", fmt.Errorf("failed to ensure page count: %w", err))
	}
	return &PDFInfo{Pages: ctx.PageCount, Encrypted: ctx.Encrypt != nil}, nil
}

// openPDF opens data with ledongthuc/pdf, falling back to a pdfcpu
// decryption pass for protected documents.
func openPDF(data []byte, password string) (*pdf.Reader, error) {
	reader, err := newLedongthucReader(data, password)
	switch {
	case err == nil:
		return reader, nil
	case errors.Is(err, pdf.ErrInvalidPassword) && password == "":
		return nil, authenticationError("open_pdf", errors.New("password required"))
	case errors.Is(err, pdf.ErrInvalidPassword), isUnsupportedEncryption(err):
		return openDecrypted(data, password)
	default:
		return nil, decodeError("open_pdf", err)
	}
}

func openDecrypted(data []byte, password string) (*pdf.Reader, error) {
	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, newPDFCPUConfig(password)); err != nil {
		if isPasswordError(err) {
			return nil, authenticationError("decrypt_pdf", err)
		}
		return nil, decodeError("decrypt_pdf", err)
	}

	reader, err := newLedongthucReader(out.Bytes(), "")
	if err != nil {
		return nil, decodeError("open_decrypted_pdf", err)
	}
	return reader, nil
}

// newLedongthucReader converts the library's internal panics into errors.
func newLedongthucReader(data []byte, password string) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	return pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), passwordOnce(password))
}

// passwordOnce yields the password a single time; ledongthuc keeps asking
// until it receives an empty string.
func passwordOnce(password string) func() string {
	used := false
	return func() string {
		if used {
			return ""
		}
		used = true
		return password
	}
}

func newPDFCPUConfig(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password
	return conf
}

func isUnsupportedEncryption(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unsupported PDF: encryption")
}

// isPasswordError reports whether err rejects the supplied password.
// Other decryption failures mean the file itself is broken.
func isPasswordError(err error) bool {
	return errors.Is(err, pdfcpu.ErrWrongPassword) || errors.Is(err, pdf.ErrInvalidPassword)
}
