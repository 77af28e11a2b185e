package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-idcard-reader/internal/document/security"
	"github.com/a3tai/mcp-idcard-reader/internal/parser"
	"github.com/a3tai/mcp-idcard-reader/internal/testfixtures"
	"github.com/a3tai/mcp-idcard-reader/internal/textsource"
)

const ocrCardText = `Government of India
ராஜேஷ் குமார்
Rajesh Kumar
பிறந்த நாள்/DOB: 15-08-1990
MALE
1234 5678 9012
`

type stubRecognizer struct {
	text  string
	err   error
	delay time.Duration
	block bool

	active    int32
	maxActive int32
}

func (s *stubRecognizer) Recognize(ctx context.Context, _ []byte, _ textsource.RecognizeOptions) (string, error) {
	n := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	for {
		old := atomic.LoadInt32(&s.maxActive)
		if n <= old || atomic.CompareAndSwapInt32(&s.maxActive, old, n) {
			break
		}
	}

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.text, s.err
}

func newTestService(t *testing.T, rec textsource.Recognizer, opts Options) *Service {
	t.Helper()
	if opts.DocumentDirectory == "" {
		opts.DocumentDirectory = t.TempDir()
	}
	adapter := textsource.NewAdapter(rec, textsource.NewPDFReader(), textsource.DefaultOptions())
	svc, err := NewService(adapter, parser.New(), opts)
	require.NoError(t, err)
	return svc
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestNewService(t *testing.T) {
	_, err := NewService(nil, nil, Options{DocumentDirectory: t.TempDir()})
	assert.Error(t, err)

	adapter := textsource.NewAdapter(nil, nil, textsource.Options{})
	_, err = NewService(adapter, nil, Options{})
	assert.Error(t, err, "document directory is required")

	svc, err := NewService(adapter, nil, Options{DocumentDirectory: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultMaxFileSize), svc.GetMaxFileSize())
	assert.Equal(t, DefaultOCRTimeout, svc.opts.OCRTimeout)
	assert.Positive(t, svc.opts.MaxConcurrentOCR)
}

func TestService_ExtractImage(t *testing.T) {
	svc := newTestService(t, &stubRecognizer{text: ocrCardText}, Options{})

	result, err := svc.Extract(context.Background(), testfixtures.PNG(), false, "")
	require.NoError(t, err)

	assert.Equal(t, "image", result.Kind)
	assert.Equal(t, "png", result.Format)
	assert.Equal(t, "Rajesh Kumar", result.Record.Name)
	assert.Equal(t, "ராஜேஷ் குமார்", result.Record.NameNativeScript)
	assert.Equal(t, "15/08/1990", result.Record.DateOfBirth)
	assert.Equal(t, "Male", result.Record.Gender)
	assert.Equal(t, "1234 5678 9012", result.Record.IDNumber)
	assert.Equal(t, result.Record.PopulatedCount(), result.Populated)
	assert.False(t, result.Locked)
}

func TestService_ExtractFilePDF(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ecard.pdf", testfixtures.PDF("Rajesh Kumar\nDOB: 15/08/1990\n1234 5678 9012\nMALE"))

	rec := &stubRecognizer{}
	svc := newTestService(t, rec, Options{DocumentDirectory: dir})

	result, err := svc.ExtractFile(context.Background(), ExtractFileRequest{Path: "ecard.pdf"})
	require.NoError(t, err)

	assert.Equal(t, "pdf", result.Kind)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, filepath.Join(svc.DocumentDirectory(), "ecard.pdf"), result.Path)
	assert.Equal(t, "Rajesh Kumar", result.Record.Name)
	assert.Equal(t, "15/08/1990", result.Record.DateOfBirth)
	assert.Equal(t, "1234 5678 9012", result.Record.IDNumber)
	assert.Equal(t, "Male", result.Record.Gender)
	assert.Zero(t, atomic.LoadInt32(&rec.maxActive), "PDF text must not go through OCR")
}

func TestService_ExtractFilePDFBySniffing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "upload.png", testfixtures.PDF("Anita Devi"))

	svc := newTestService(t, &stubRecognizer{}, Options{DocumentDirectory: dir})
	result, err := svc.ExtractFile(context.Background(), ExtractFileRequest{Path: "upload.png"})
	require.NoError(t, err)
	assert.Equal(t, "pdf", result.Kind)
	assert.Equal(t, "Anita Devi", result.Record.Name)
}

func TestService_ExtractErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.png", make([]byte, 2048))
	writeFile(t, dir, "notes.png", []byte("just some text"))

	svc := newTestService(t, &stubRecognizer{}, Options{DocumentDirectory: dir, MaxFileSize: 1024})

	t.Run("too large", func(t *testing.T) {
		_, err := svc.ExtractFile(context.Background(), ExtractFileRequest{Path: "big.png"})
		assert.ErrorIs(t, err, ErrFileTooLarge)

		_, err = svc.Extract(context.Background(), make([]byte, 2048), false, "")
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("unsupported content", func(t *testing.T) {
		_, err := svc.ExtractFile(context.Background(), ExtractFileRequest{Path: "notes.png"})
		assert.ErrorIs(t, err, textsource.ErrUnsupportedFormat)
	})

	t.Run("outside document directory", func(t *testing.T) {
		_, err := svc.ExtractFile(context.Background(), ExtractFileRequest{Path: "/etc/hosts"})
		require.Error(t, err)
		assert.ErrorIs(t, err, security.ErrOutsideRoot)
		assert.Contains(t, err.Error(), "security validation failed")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := svc.ExtractFile(context.Background(), ExtractFileRequest{Path: "missing.png"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("malformed pdf", func(t *testing.T) {
		_, err := svc.Extract(context.Background(), []byte("%PDF-1.4\nbroken"), true, "")
		assert.ErrorIs(t, err, textsource.ErrDecode)
	})
}

func TestService_ConcurrencyLimit(t *testing.T) {
	rec := &stubRecognizer{text: "x", delay: 20 * time.Millisecond}
	svc := newTestService(t, rec, Options{MaxConcurrentOCR: 1})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Extract(context.Background(), testfixtures.PNG(), false, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&rec.maxActive))
}

func TestService_Timeout(t *testing.T) {
	svc := newTestService(t, &stubRecognizer{block: true}, Options{OCRTimeout: 20 * time.Millisecond})

	_, err := svc.Extract(context.Background(), testfixtures.PNG(), false, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestService_ParseText(t *testing.T) {
	svc := newTestService(t, &stubRecognizer{}, Options{Debug: true})
	record := svc.ParseText("JOHN S/O ROBERT SMITH")
	assert.Equal(t, "JOHN", record.Name)
	assert.Equal(t, "ROBERT SMITH", record.GuardianName)
}

func TestService_VerifyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "card.png", testfixtures.PNG())
	svc := newTestService(t, &stubRecognizer{text: ocrCardText}, Options{DocumentDirectory: dir})

	result, err := svc.VerifyFile(context.Background(), VerifyFileRequest{
		Path:   "card.png",
		Claims: Claims{Name: "rajesh  kumar", IDNumber: "123456789012", DateOfBirth: "15-8-1990"},
	})
	require.NoError(t, err)
	assert.True(t, result.Verified)
	require.Len(t, result.Checks, 3)
	for _, check := range result.Checks {
		assert.True(t, check.Match, "check %s", check.Field)
	}

	result, err = svc.VerifyFile(context.Background(), VerifyFileRequest{
		Path:   "card.png",
		Claims: Claims{Name: "Priya Raman"},
	})
	require.NoError(t, err)
	assert.False(t, result.Verified)

	_, err = svc.VerifyFile(context.Background(), VerifyFileRequest{Path: "card.png"})
	assert.ErrorIs(t, err, ErrNoClaims)
}

func TestService_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "card.png", testfixtures.PNG())
	writeFile(t, dir, "ecard.pdf", testfixtures.PDF("Rajesh Kumar"))
	writeFile(t, dir, "broken.jpg", []byte("not really a jpeg"))
	writeFile(t, dir, "notes.txt", []byte("text"))

	svc := newTestService(t, &stubRecognizer{}, Options{DocumentDirectory: dir})

	tests := []struct {
		path      string
		wantValid bool
		wantKind  string
	}{
		{"card.png", true, "image"},
		{"ecard.pdf", true, "pdf"},
		{"broken.jpg", false, "image"},
		{"notes.txt", false, ""},
		{"missing.png", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result, err := svc.ValidateFile(ValidateFileRequest{Path: tt.path})
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid, result.Message)
			assert.Equal(t, tt.wantKind, result.Kind)
			if !tt.wantValid {
				assert.NotEmpty(t, result.Message)
			}
		})
	}

	result, err := svc.ValidateFile(ValidateFileRequest{Path: "ecard.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.False(t, result.Encrypted)

	_, err = svc.ValidateFile(ValidateFileRequest{Path: "../outside.pdf"})
	assert.Error(t, err)
}

func TestService_ServerInfo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "card.png", testfixtures.PNG())

	svc := newTestService(t, &stubRecognizer{}, Options{DocumentDirectory: dir, OCREngine: "tesseract"})
	info, err := svc.ServerInfo(context.Background(), "idcard-reader", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "idcard-reader", info.ServerName)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "tesseract", info.OCREngine)
	assert.Equal(t, "tamil", info.Script)
	assert.Equal(t, []string{"eng", "tam"}, info.OCRLanguages)
	assert.Equal(t, "fail", info.LockedPolicy)
	assert.Len(t, info.AvailableTools, 6)
	assert.Contains(t, info.SupportedFormats, ".pdf")
	require.Len(t, info.DirectoryContents, 1)
	assert.Equal(t, "card.png", info.DirectoryContents[0].Name)
	assert.Contains(t, info.UsageGuidance, "idcard_extract_file")
}

func TestIsPaginated(t *testing.T) {
	assert.True(t, IsPaginated("card.PDF", nil))
	assert.True(t, IsPaginated("upload", []byte("%PDF-1.7\n")))
	assert.False(t, IsPaginated("card.jpg", testfixtures.PNG()))
}
