package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-idcard-reader/internal/config"
	"github.com/a3tai/mcp-idcard-reader/internal/textsource"
)

type namedRecognizer struct{}

func (namedRecognizer) Name() string { return "stub-ocr" }

func (namedRecognizer) Recognize(context.Context, []byte, textsource.RecognizeOptions) (string, error) {
	return "", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DocumentDirectory = t.TempDir()
	return cfg
}

func TestNewService_AppliesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Script = "kannada"
	cfg.LockedPolicy = config.LockedPartial
	cfg.MaxFileSize = 2 * 1024 * 1024

	service, err := newService(namedRecognizer{}, cfg)
	require.NoError(t, err)

	info, err := service.ServerInfo(context.Background(), "srv", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "stub-ocr", info.OCREngine)
	assert.Equal(t, "kannada", info.Script)
	assert.Equal(t, []string{"eng", "kan"}, info.OCRLanguages)
	assert.Equal(t, "partial", info.LockedPolicy)
	assert.Equal(t, int64(2*1024*1024), info.MaxFileSize)
	assert.Equal(t, cfg.DocumentDirectory, info.DefaultDirectory)
}

func TestNewRecognizer(t *testing.T) {
	cfg := testConfig(t)

	rec, closer, err := NewRecognizer(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, rec.Name(), "tesseract")
	assert.NoError(t, closer.Close())

	cfg.OCREngine = "paddle"
	_, _, err = NewRecognizer(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown OCR engine")

	_, _, err = NewService(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to create OCR engine")
}
