package document

import "github.com/a3tai/mcp-idcard-reader/internal/parser"

// FileInfo represents information about a document file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// ExtractFileRequest represents a request to extract a record from a file
type ExtractFileRequest struct {
	Path     string `json:"path"`
	Password string `json:"password,omitempty"`
}

// VerifyFileRequest represents a request to check claimed values against a
// document
type VerifyFileRequest struct {
	Path     string `json:"path"`
	Password string `json:"password,omitempty"`
	Claims   Claims `json:"claims"`
}

// ValidateFileRequest represents a request to validate a document file
type ValidateFileRequest struct {
	Path     string `json:"path"`
	Password string `json:"password,omitempty"`
}

// SearchDirectoryRequest represents a request to search for documents in a
// directory
type SearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// ServerInfoRequest represents a request for server information
type ServerInfoRequest struct{}

// Response Types

// ExtractResult is the outcome of reading one document
type ExtractResult struct {
	Record    parser.Record `json:"record"`
	Path      string        `json:"path,omitempty"`
	Kind      string        `json:"kind"`
	Format    string        `json:"format"`
	Pages     int           `json:"pages"`
	Locked    bool          `json:"locked"`
	Populated int           `json:"populated_fields"`
}

// VerifyResult reports how each claim compared with the extracted record
type VerifyResult struct {
	Path     string        `json:"path,omitempty"`
	Verified bool          `json:"verified"`
	Checks   []ClaimCheck  `json:"checks"`
	Record   parser.Record `json:"record"`
	Locked   bool          `json:"locked"`
}

// ValidateFileResult represents the result of a document validation
type ValidateFileResult struct {
	Valid     bool   `json:"valid"`
	Path      string `json:"path"`
	Kind      string `json:"kind,omitempty"`
	Format    string `json:"format,omitempty"`
	Pages     int    `json:"pages,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SearchDirectoryResult represents the result of a directory search
type SearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	OCREngine         string     `json:"ocr_engine"`
	Script            string     `json:"script"`
	OCRLanguages      []string   `json:"ocr_languages"`
	LockedPolicy      string     `json:"locked_policy"`
	SupportedFormats  []string   `json:"supported_formats"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}
