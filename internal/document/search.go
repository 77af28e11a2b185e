package document

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// fuzzyWordThreshold is the Jaro-Winkler score at which a query word counts
// as matching a filename word.
const fuzzyWordThreshold = 0.85

// Search handles document discovery operations
type Search struct {
	validator *Validator
	metric    strutil.StringMetric
}

// NewSearch creates a new document search handler
func NewSearch(validator *Validator) *Search {
	return &Search{
		validator: validator,
		metric:    metrics.NewJaroWinkler(),
	}
}

// SearchDirectory walks directory for supported documents whose names match
// query. A limit of zero or less means no limit.
func (s *Search) SearchDirectory(ctx context.Context, directory, query string, limit int) (*SearchDirectoryResult, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	files := []FileInfo{}

	err = filepath.WalkDir(absDirectory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // keep walking past unreadable entries
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		// Symlinked files may point outside the tree.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		kind, ok := kindForName(d.Name())
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished during the walk
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr // skip invalid files
		}
		if q != "" && !s.matchesQuery(d.Name(), q) {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Kind:         kind.String(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return &SearchDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   absDirectory,
		SearchQuery: query,
	}, nil
}

// matchesQuery matches filename against a lower case query: substring first,
// then every query word must be contained in or close to a filename word.
func (s *Search) matchesQuery(filename, query string) bool {
	name := strings.ToLower(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if strings.Contains(strings.ToLower(filename), query) {
		return true
	}

	words := splitIntoWords(name)
	for _, queryWord := range splitIntoWords(query) {
		if !s.matchesAnyWord(queryWord, words) {
			return false
		}
	}
	return true
}

func (s *Search) matchesAnyWord(queryWord string, words []string) bool {
	for _, word := range words {
		if strings.Contains(word, queryWord) {
			return true
		}
		if strutil.Similarity(queryWord, word, s.metric) >= fuzzyWordThreshold {
			return true
		}
	}
	return false
}

// splitIntoWords splits text on the separators common in file names
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
