package document

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/a3tai/mcp-idcard-reader/internal/descriptions"
)

const (
	// serverInfoFileLimit caps the directory listing in server info.
	serverInfoFileLimit = 100
	serverInfoScanTime  = 5 * time.Second
)

// ServerInfo returns server information and usage guidance
func (s *Service) ServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	dir := s.pathValidator.Root()

	scanCtx, cancel := context.WithTimeout(ctx, serverInfoScanTime)
	defer cancel()

	contents := []FileInfo{}
	if found, err := s.search.SearchDirectory(scanCtx, dir, "", serverInfoFileLimit); err == nil {
		contents = found.Files
	} else if s.opts.Debug {
		log.Printf("Server info directory scan skipped: %v", err)
	}

	adapterOpts := s.adapter.Options()
	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       s.opts.MaxFileSize,
		OCREngine:         s.opts.OCREngine,
		Script:            s.parser.Script().Name,
		OCRLanguages:      adapterOpts.Languages,
		LockedPolicy:      string(adapterOpts.LockedPolicy),
		SupportedFormats:  SupportedExtensions(),
		AvailableTools:    availableTools(),
		DirectoryContents: contents,
		UsageGuidance:     s.usageGuidance(),
	}, nil
}

func availableTools() []ToolInfo {
	pathParam := "path (required): path to the document, absolute or relative to the document directory"
	return []ToolInfo{
		{
			Name:        "idcard_extract_file",
			Description: descriptions.GetToolDescription("idcard_extract_file"),
			Usage:       "Use this tool to turn a card image or PDF into a structured record.",
			Parameters:  pathParam + ", password (optional): password for protected PDFs",
		},
		{
			Name:        "idcard_parse_text",
			Description: descriptions.GetToolDescription("idcard_parse_text"),
			Usage:       "Use this tool when you already have the card text.",
			Parameters:  "text (required): raw text with its original line breaks",
		},
		{
			Name:        "idcard_verify_file",
			Description: descriptions.GetToolDescription("idcard_verify_file"),
			Usage:       "Use this tool to confirm claimed details against a card.",
			Parameters: pathParam + ", password (optional), name (optional), id_number (optional), " +
				"date_of_birth (optional); at least one claim is required",
		},
		{
			Name:        "idcard_validate_file",
			Description: descriptions.GetToolDescription("idcard_validate_file"),
			Usage:       "Use this tool to check a file is a readable document before extracting.",
			Parameters:  pathParam + ", password (optional)",
		},
		{
			Name:        "idcard_search_directory",
			Description: descriptions.GetToolDescription("idcard_search_directory"),
			Usage:       "Use this tool to find card images and PDFs.",
			Parameters: "directory (optional): directory to search (document directory if empty), " +
				"query (optional): fuzzy file name query",
		},
		{
			Name:        "idcard_server_info",
			Description: descriptions.GetToolDescription("idcard_server_info"),
			Usage:       "Use this tool to discover server capabilities.",
			Parameters:  "No parameters required",
		},
	}
}

func (s *Service) usageGuidance() string {
	return fmt.Sprintf(`ID Card Reader Usage Guide:

1. DISCOVER: use 'idcard_search_directory' to list card images and PDFs.
2. VALIDATE: use 'idcard_validate_file' to confirm a file decodes and, for PDFs, that the password unlocks it.
3. EXTRACT: use 'idcard_extract_file'. Images are read with OCR, PDFs through their embedded text.
4. VERIFY: use 'idcard_verify_file' to compare a name, id number or date of birth with the card.
5. PARSE ONLY: use 'idcard_parse_text' when the text is already available.

NOTES:
- Paths are resolved inside the document directory; relative paths are allowed
- Files up to %dMB are accepted
- Empty fields mean the value was not found; extraction is best effort
- Overlapping patterns can produce false positives, so review results before relying on them`, s.opts.MaxFileSize/(1024*1024))
}
