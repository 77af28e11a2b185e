package document

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/a3tai/mcp-idcard-reader/internal/textsource"
)

// extensions maps supported file extensions to the way their text is read.
var extensions = map[string]textsource.Kind{
	".pdf":  textsource.KindPaginated,
	".png":  textsource.KindImage,
	".jpg":  textsource.KindImage,
	".jpeg": textsource.KindImage,
	".gif":  textsource.KindImage,
	".bmp":  textsource.KindImage,
	".tif":  textsource.KindImage,
	".tiff": textsource.KindImage,
	".webp": textsource.KindImage,
}

// IsPaginated decides whether an upload is read as a PDF. A .pdf filename
// wins; otherwise the content is sniffed for the PDF header.
func IsPaginated(filename string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return textsource.IsPDF(data)
}

// kindForName returns the document kind implied by a file extension.
func kindForName(name string) (textsource.Kind, bool) {
	kind, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return kind, ok
}

// isSupportedFile reports whether name has a supported document extension.
func isSupportedFile(name string) bool {
	_, ok := kindForName(name)
	return ok
}

// SupportedExtensions returns the accepted file extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
