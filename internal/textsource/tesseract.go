package textsource

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs OCR through the local Tesseract library.
type TesseractRecognizer struct{}

// NewTesseractRecognizer creates a TesseractRecognizer.
func NewTesseractRecognizer() *TesseractRecognizer {
	return &TesseractRecognizer{}
}

// Name identifies the engine in logs and server info.
func (t *TesseractRecognizer) Name() string {
	return "tesseract " + gosseract.Version()
}

// Recognize OCRs img. A fresh client is used per call since gosseract
// clients are not safe for concurrent use.
func (t *TesseractRecognizer) Recognize(ctx context.Context, img []byte, opts RecognizeOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(opts.Languages) > 0 {
		if err := client.SetLanguage(opts.Languages...); err != nil {
			return "", fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", decodeError("ocr_image", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	return text, nil
}
