package textsource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-idcard-reader/internal/testfixtures"
)

func TestPDFReader_ReadPages(t *testing.T) {
	data := testfixtures.PDF("Rajesh Kumar\nDOB: 15/08/1990", "1234 5678 9012")

	pages, err := NewPDFReader().ReadPages(context.Background(), data, "")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Contains(t, pages[0], "Rajesh Kumar")
	assert.Contains(t, pages[0], "DOB: 15/08/1990")
	assert.Contains(t, pages[1], "1234 5678 9012")
	assert.Less(t, strings.Index(pages[0], "Rajesh"), strings.Index(pages[0], "DOB"))
}

func TestPDFReader_RejectsNonPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain text", []byte(strings.Repeat("hello world ", 20))},
		{"header only", []byte("%PDF-1.4\n" + strings.Repeat(" ", 120))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPDFReader().ReadPages(context.Background(), tt.data, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestPDFReader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFReader().ReadPages(ctx, testfixtures.PDF("page"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdapter_WithPDFReader(t *testing.T) {
	adapter := NewAdapter(nil, NewPDFReader(), DefaultOptions())

	text, err := adapter.Extract(context.Background(), testfixtures.PDF("VID: 9123 4567 8912 3456"), KindPaginated, "")
	require.NoError(t, err)
	assert.Contains(t, text.Content, "VID: 9123 4567 8912 3456")
	assert.Equal(t, 1, text.Pages)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF(testfixtures.PDF("x")))
	assert.False(t, IsPDF([]byte("\x89PNG")))
	assert.False(t, IsPDF(nil))
}

func TestPasswordOnce(t *testing.T) {
	next := passwordOnce("secret")
	assert.Equal(t, "secret", next())
	assert.Equal(t, "", next())
	assert.Equal(t, "", next())
}

func TestDetectImageFormat(t *testing.T) {
	format, err := DetectImageFormat(testfixtures.GIF())
	require.NoError(t, err)
	assert.Equal(t, "gif", format)

	_, err = DetectImageFormat([]byte("nope"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIsPasswordError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"pdfcpu wrong password", pdfcpu.ErrWrongPassword, true},
		{"wrapped wrong password", fmt.Errorf("read: %w", pdfcpu.ErrWrongPassword), true},
		{"ledongthuc invalid password", pdf.ErrInvalidPassword, true},
		{"corrupt encrypted file", errors.New("pdfcpu: decrypt: corrupt encryption dictionary"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPasswordError(tt.err))
		})
	}
}

func TestOpenDecrypted_CorruptFileIsDecodeError(t *testing.T) {
	_, err := openDecrypted([]byte("%PDF-1.4\n"+strings.Repeat("garbage ", 20)), "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrAuthentication)
}
