// Package textsource turns uploaded document bytes into raw text: OCR for
// images, embedded text extraction for PDFs.
package textsource

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind selects how the text of a document is obtained.
type Kind int

const (
	// KindImage is a single raster image read with OCR.
	KindImage Kind = iota
	// KindPaginated is a PDF whose pages carry embedded text.
	KindPaginated
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPaginated:
		return "pdf"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RecognizeOptions tune a single OCR call.
type RecognizeOptions struct {
	Languages   []string
	PageSegMode int
}

// Recognizer performs OCR on encoded image bytes.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte, opts RecognizeOptions) (string, error)
}

// PageReader returns the text of each page of a paginated document.
type PageReader interface {
	ReadPages(ctx context.Context, data []byte, password string) ([]string, error)
}

// LockedPolicy decides what happens when a protected document cannot be
// unlocked.
type LockedPolicy string

const (
	LockedFail    LockedPolicy = "fail"
	LockedPartial LockedPolicy = "partial"
)

// DefaultPageSegMode treats the image as a single uniform block of text.
const DefaultPageSegMode = 6

// Options configure an Adapter.
type Options struct {
	Languages    []string
	PageSegMode  int
	LockedPolicy LockedPolicy
}

// DefaultOptions returns English plus Tamil OCR in single block mode.
func DefaultOptions() Options {
	return Options{
		Languages:    []string{"eng", "tam"},
		PageSegMode:  DefaultPageSegMode,
		LockedPolicy: LockedFail,
	}
}

// Text is the outcome of reading one document.
type Text struct {
	Content string
	Kind    Kind
	Format  string
	Pages   int
	Locked  bool
}

// Adapter dispatches documents to the OCR engine or the page reader.
type Adapter struct {
	recognizer Recognizer
	pages      PageReader
	opts       Options
}

// NewAdapter creates an Adapter. Either backend may be nil when the
// corresponding document kind is never requested.
func NewAdapter(recognizer Recognizer, pages PageReader, opts Options) *Adapter {
	if opts.PageSegMode == 0 {
		opts.PageSegMode = DefaultPageSegMode
	}
	if opts.LockedPolicy == "" {
		opts.LockedPolicy = LockedFail
	}
	return &Adapter{recognizer: recognizer, pages: pages, opts: opts}
}

// Options returns the adapter configuration.
func (a *Adapter) Options() Options {
	return a.opts
}

// ExtractText returns the raw text of data.
func (a *Adapter) ExtractText(ctx context.Context, data []byte, kind Kind, password string) (string, error) {
	text, err := a.Extract(ctx, data, kind, password)
	if err != nil {
		return "", err
	}
	return text.Content, nil
}

// Extract reads data according to kind. The returned content is in Unicode
// normalization form C.
func (a *Adapter) Extract(ctx context.Context, data []byte, kind Kind, password string) (*Text, error) {
	var (
		text *Text
		err  error
	)
	switch kind {
	case KindImage:
		text, err = a.extractImage(ctx, data)
	case KindPaginated:
		text, err = a.extractPages(ctx, data, password)
	default:
		return nil, unsupportedError("extract", fmt.Errorf("unknown document kind %v", kind))
	}
	if err != nil {
		return nil, err
	}

	text.Content = norm.NFC.String(text.Content)
	return text, nil
}

func (a *Adapter) extractImage(ctx context.Context, data []byte) (*Text, error) {
	if a.recognizer == nil {
		return nil, errors.New("no OCR engine configured")
	}

	img, format, err := prepareImage(data)
	if err != nil {
		return nil, err
	}

	content, err := a.recognizer.Recognize(ctx, img, RecognizeOptions{
		Languages:   a.opts.Languages,
		PageSegMode: a.opts.PageSegMode,
	})
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return &Text{Content: content, Kind: KindImage, Format: format, Pages: 1}, nil
}

func (a *Adapter) extractPages(ctx context.Context, data []byte, password string) (*Text, error) {
	if a.pages == nil {
		return nil, errors.New("no PDF reader configured")
	}

	pages, err := a.pages.ReadPages(ctx, data, password)
	if err != nil {
		if errors.Is(err, ErrAuthentication) && a.opts.LockedPolicy == LockedPartial {
			log.Printf("Warning: document is locked, returning empty text: %v", err)
			return &Text{Kind: KindPaginated, Format: "pdf", Locked: true}, nil
		}
		return nil, err
	}

	return &Text{
		Content: strings.Join(pages, ""),
		Kind:    KindPaginated,
		Format:  "pdf",
		Pages:   len(pages),
	}, nil
}
