// Package document orchestrates identity document processing: reading
// files from the document directory, turning bytes into text, parsing the
// text into a record and checking claims against it.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/a3tai/mcp-idcard-reader/internal/document/security"
	"github.com/a3tai/mcp-idcard-reader/internal/parser"
	"github.com/a3tai/mcp-idcard-reader/internal/textsource"
)

const (
	// DefaultOCRTimeout bounds a single text extraction.
	DefaultOCRTimeout = 60 * time.Second
	// DefaultMaxFileSize applies when no size limit is configured.
	DefaultMaxFileSize = 100 * 1024 * 1024
)

// Options configure a Service.
type Options struct {
	MaxFileSize       int64
	DocumentDirectory string
	MaxConcurrentOCR  int
	OCRTimeout        time.Duration
	OCREngine         string
	Debug             bool
}

// Service handles document operations by orchestrating the text source,
// the parser and the file level components
type Service struct {
	opts          Options
	adapter       *textsource.Adapter
	parser        *parser.Parser
	slots         *semaphore.Weighted
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
}

// NewService creates a new document service with all components
func NewService(adapter *textsource.Adapter, p *parser.Parser, opts Options) (*Service, error) {
	if adapter == nil {
		return nil, fmt.Errorf("text source adapter is required")
	}
	if p == nil {
		p = parser.New()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MaxConcurrentOCR <= 0 {
		opts.MaxConcurrentOCR = runtime.NumCPU()
	}
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = DefaultOCRTimeout
	}

	pathValidator, err := security.NewPathValidator(opts.DocumentDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	validator := NewValidator(opts.MaxFileSize)
	return &Service{
		opts:          opts,
		adapter:       adapter,
		parser:        p,
		slots:         semaphore.NewWeighted(int64(opts.MaxConcurrentOCR)),
		validator:     validator,
		search:        NewSearch(validator),
		pathValidator: pathValidator,
	}, nil
}

// Extract reads data, parses its text and returns the record. paginated
// selects PDF text extraction instead of OCR.
func (s *Service) Extract(ctx context.Context, data []byte, paginated bool, password string) (*ExtractResult, error) {
	if err := s.validator.checkSize(int64(len(data))); err != nil {
		return nil, err
	}

	kind := textsource.KindImage
	if paginated {
		kind = textsource.KindPaginated
	}

	text, err := s.readText(ctx, data, kind, password)
	if err != nil {
		return nil, err
	}

	record := s.parser.Parse(text.Content)
	s.logRecord(record)

	return &ExtractResult{
		Record:    record,
		Kind:      text.Kind.String(),
		Format:    text.Format,
		Pages:     text.Pages,
		Locked:    text.Locked,
		Populated: record.PopulatedCount(),
	}, nil
}

// readText runs the adapter under the concurrency limit and timeout.
func (s *Service) readText(ctx context.Context, data []byte, kind textsource.Kind, password string) (*textsource.Text, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for extraction slot: %w", err)
	}
	defer s.slots.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.opts.OCRTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.adapter.Extract(ctx, data, kind, password)
	if err != nil {
		return nil, err
	}
	if s.opts.Debug {
		log.Printf("Extracted %d characters from %s document in %v", len(text.Content), kind, time.Since(start))
	}
	return text, nil
}

func (s *Service) logRecord(record parser.Record) {
	if !s.opts.Debug {
		return
	}
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Printf("Failed to encode record for logging: %v", err)
		return
	}
	log.Printf("Extracted record:\n%s", out)
}

// ParseText parses already extracted text.
func (s *Service) ParseText(text string) parser.Record {
	record := s.parser.Parse(text)
	s.logRecord(record)
	return record
}

// ExtractFile extracts a record from a file inside the document directory
func (s *Service) ExtractFile(ctx context.Context, req ExtractFileRequest) (*ExtractResult, error) {
	path, data, err := s.readFile(req.Path)
	if err != nil {
		return nil, err
	}

	result, err := s.Extract(ctx, data, IsPaginated(path, data), req.Password)
	if err != nil {
		return nil, err
	}
	result.Path = path
	return result, nil
}

// VerifyFile extracts a record from a file and compares it with the claims
func (s *Service) VerifyFile(ctx context.Context, req VerifyFileRequest) (*VerifyResult, error) {
	if req.Claims.IsEmpty() {
		return nil, ErrNoClaims
	}

	extracted, err := s.ExtractFile(ctx, ExtractFileRequest{Path: req.Path, Password: req.Password})
	if err != nil {
		return nil, err
	}
	return s.verifyExtracted(extracted, req.Claims)
}

// Verify extracts a record from data and compares it with the claims
func (s *Service) Verify(ctx context.Context, data []byte, paginated bool, password string, claims Claims) (*VerifyResult, error) {
	if claims.IsEmpty() {
		return nil, ErrNoClaims
	}

	extracted, err := s.Extract(ctx, data, paginated, password)
	if err != nil {
		return nil, err
	}
	return s.verifyExtracted(extracted, claims)
}

func (s *Service) verifyExtracted(extracted *ExtractResult, claims Claims) (*VerifyResult, error) {
	result, err := VerifyRecord(extracted.Record, claims)
	if err != nil {
		return nil, err
	}
	result.Path = extracted.Path
	result.Locked = extracted.Locked
	return result, nil
}

// ValidateFile performs validation on a document file
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(path, req.Password), nil
}

// SearchDirectory searches for supported documents in a directory
func (s *Service) SearchDirectory(ctx context.Context, req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	dir, err := s.pathValidator.ResolveDirectory(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.search.SearchDirectory(ctx, dir, req.Query, 0)
}

// readFile resolves path inside the document directory and loads it.
func (s *Service) readFile(path string) (string, []byte, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", nil, fmt.Errorf("security validation failed: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file does not exist: %s", path)
		}
		return "", nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if err := s.validator.checkSize(info.Size()); err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	return resolved, data, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.opts.MaxFileSize
}

// DocumentDirectory returns the absolute document directory
func (s *Service) DocumentDirectory() string {
	return s.pathValidator.Root()
}
