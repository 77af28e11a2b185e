package document

import (
	"errors"
	"fmt"
	"os"

	"github.com/a3tai/mcp-idcard-reader/internal/textsource"
)

// ErrFileTooLarge is returned for documents above the configured size limit.
var ErrFileTooLarge = errors.New("file too large")

// Validator handles document file validation operations
type Validator struct {
	maxFileSize int64
	pdfs        *textsource.PDFReader
}

// NewValidator creates a new document validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
		pdfs:        textsource.NewPDFReader(),
	}
}

// ValidateFile checks that a file exists, is a supported document within the
// size limit, and that its content decodes.
func (v *Validator) ValidateFile(path, password string) *ValidateFileResult {
	result := &ValidateFileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.Message = fmt.Sprintf("file does not exist: %s", path)
		} else {
			result.Message = fmt.Sprintf("cannot access file: %v", err)
		}
		return result
	}
	if err := v.ValidateFileInfo(path, info); err != nil {
		result.Message = err.Error()
		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Message = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	if IsPaginated(path, data) {
		result.Kind = textsource.KindPaginated.String()
		result.Format = "pdf"
		pdfInfo, err := v.pdfs.Inspect(data, password)
		if err != nil {
			result.Message = fmt.Sprintf("invalid PDF file: %v", err)
			result.Encrypted = errors.Is(err, textsource.ErrAuthentication)
			return result
		}
		result.Pages = pdfInfo.Pages
		result.Encrypted = pdfInfo.Encrypted
	} else {
		result.Kind = textsource.KindImage.String()
		format, err := textsource.DetectImageFormat(data)
		if err != nil {
			result.Message = fmt.Sprintf("invalid image file: %v", err)
			return result
		}
		result.Format = format
		result.Pages = 1
	}

	result.Valid = true
	return result
}

// ValidateFileInfo performs basic validation on file info without reading
// the file
func (v *Validator) ValidateFileInfo(path string, info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !isSupportedFile(path) {
		return fmt.Errorf("unsupported file type: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	return v.checkSize(info.Size())
}

func (v *Validator) checkSize(size int64) error {
	if size > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, size, v.maxFileSize)
	}
	return nil
}
