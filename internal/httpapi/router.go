// Package httpapi exposes the document service over HTTP: multipart upload
// endpoints for extraction and verification, a text parsing endpoint and,
// when configured, the MCP streamable HTTP transport.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/a3tai/mcp-idcard-reader/internal/document"
)

// multipartOverhead is allowed on top of the document size limit for form
// boundaries and the password and claim fields.
const multipartOverhead = 1 << 20

// Options configure the HTTP API.
type Options struct {
	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
	// RequestLogging enables the per-request access log.
	RequestLogging bool
}

// API holds the handlers for the HTTP endpoints
type API struct {
	service       *document.Service
	maxUploadSize int64
}

// NewRouter builds the chi router for server mode.
func NewRouter(service *document.Service, opts Options) http.Handler {
	api := &API{
		service:       service,
		maxUploadSize: service.GetMaxFileSize() + multipartOverhead,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", api.handleHealth)
	r.Post("/extract", api.handleExtract)
	r.Post("/verify", api.handleVerify)
	r.Post("/parse", api.handleParse)

	if opts.MCPHandler != nil {
		r.Handle("/mcp", opts.MCPHandler)
	}

	return r
}

// corsMiddleware allows any origin; the upload endpoints are called from
// browser front ends on other hosts.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id")
		h.Set("Access-Control-Expose-Headers", "X-Document-Locked, Mcp-Session-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
