// Package app assembles the document service from configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/a3tai/mcp-idcard-reader/internal/config"
	"github.com/a3tai/mcp-idcard-reader/internal/document"
	"github.com/a3tai/mcp-idcard-reader/internal/parser"
	"github.com/a3tai/mcp-idcard-reader/internal/textsource"
)

// Recognizer is an OCR engine that can describe itself.
type Recognizer interface {
	textsource.Recognizer
	Name() string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewRecognizer creates the OCR engine named by cfg.OCREngine. The returned
// closer releases engine resources.
func NewRecognizer(ctx context.Context, cfg *config.Config) (Recognizer, io.Closer, error) {
	switch cfg.OCREngine {
	case config.EngineTesseract:
		return textsource.NewTesseractRecognizer(), nopCloser{}, nil
	case config.EngineVision:
		rec, err := textsource.NewVisionRecognizer(ctx, cfg.VisionCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return rec, rec, nil
	default:
		return nil, nil, fmt.Errorf("unknown OCR engine: %s", cfg.OCREngine)
	}
}

// NewService wires the recognizer, PDF reader, parser and document service
// for cfg.
func NewService(ctx context.Context, cfg *config.Config) (*document.Service, io.Closer, error) {
	rec, closer, err := NewRecognizer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}

	service, err := newService(rec, cfg)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return service, closer, nil
}

func newService(rec Recognizer, cfg *config.Config) (*document.Service, error) {
	adapter := textsource.NewAdapter(rec, textsource.NewPDFReader(), textsource.Options{
		Languages:    cfg.OCRLanguages(),
		PageSegMode:  cfg.PageSegMode,
		LockedPolicy: textsource.LockedPolicy(cfg.LockedPolicy),
	})

	p := parser.New(parser.WithScript(cfg.ScriptDefinition()))

	service, err := document.NewService(adapter, p, document.Options{
		MaxFileSize:       cfg.MaxFileSize,
		DocumentDirectory: cfg.DocumentDirectory,
		MaxConcurrentOCR:  cfg.MaxConcurrentOCR,
		OCRTimeout:        cfg.OCRTimeout,
		OCREngine:         rec.Name(),
		Debug:             cfg.IsDebug(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document service: %w", err)
	}
	return service, nil
}
