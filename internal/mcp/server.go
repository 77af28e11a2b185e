package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-idcard-reader/internal/config"
	"github.com/a3tai/mcp-idcard-reader/internal/descriptions"
	"github.com/a3tai/mcp-idcard-reader/internal/document"
	"github.com/a3tai/mcp-idcard-reader/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *document.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *document.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("document service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set is fixed
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pathOption := mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the card image or PDF, absolute or relative to the document directory"),
	)
	passwordOption := mcp.WithString("password",
		mcp.Description("Password for a protected PDF"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		"idcard_extract_file",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_extract_file")),
		mcp.WithReadOnlyHintAnnotation(true),
		pathOption,
		passwordOption,
	), s.handleExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"idcard_parse_text",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_parse_text")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw card text with its original line breaks"),
		),
	), s.handleParseText)

	s.mcpServer.AddTool(mcp.NewTool(
		"idcard_verify_file",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_verify_file")),
		mcp.WithReadOnlyHintAnnotation(true),
		pathOption,
		passwordOption,
		mcp.WithString("name", mcp.Description("Claimed name of the card holder")),
		mcp.WithString("id_number", mcp.Description("Claimed 12 digit id number")),
		mcp.WithString("date_of_birth", mcp.Description("Claimed date of birth, DD/MM/YYYY")),
	), s.handleVerifyFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"idcard_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_validate_file")),
		mcp.WithReadOnlyHintAnnotation(true),
		pathOption,
		passwordOption,
	), s.handleValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"idcard_search_directory",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_search_directory")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses the document directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional file name query for fuzzy matching"),
		),
	), s.handleSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"idcard_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_server_info")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ExtractFile(ctx, document.ExtractFileRequest{
		Path:     path,
		Password: request.GetString("password", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.textResult(formatExtractResult(result), result.Record)
}

func (s *Server) handleParseText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	record := s.service.ParseText(text)
	summary := fmt.Sprintf("Parsed %d of %d fields\n", record.PopulatedCount(), len(record.Fields()))
	return s.textResult(summary, record)
}

func (s *Server) handleVerifyFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.VerifyFile(ctx, document.VerifyFileRequest{
		Path:     path,
		Password: request.GetString("password", ""),
		Claims: document.Claims{
			Name:        request.GetString("name", ""),
			IDNumber:    request.GetString("id_number", ""),
			DateOfBirth: request.GetString("date_of_birth", ""),
		},
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatVerifyResult(result)), nil
}

func (s *Server) handleValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(document.ValidateFileRequest{
		Path:     path,
		Password: request.GetString("password", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("Document %s is valid and readable (%s", result.Path, result.Format)
		if result.Kind == "pdf" {
			responseText += fmt.Sprintf(", %d page(s)", result.Pages)
			if result.Encrypted {
				responseText += ", encrypted"
			}
		}
		responseText += ")"
	} else {
		responseText = fmt.Sprintf("Document validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := document.SearchDirectoryRequest{
		Directory: request.GetString("directory", ""),
		Query:     request.GetString("query", ""),
	}

	result, err := s.service.SearchDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No identity documents found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = formatSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatServerInfoResult(result)), nil
}

// textResult renders a summary followed by the indented JSON of payload.
func (s *Server) textResult(summary string, payload any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(summary + "\n" + string(out)), nil
}

// Formatting functions
func formatExtractResult(result *document.ExtractResult) string {
	text := fmt.Sprintf("Extracted record from: %s\n", result.Path)
	text += fmt.Sprintf("Source: %s (%s), pages: %d\n", result.Kind, result.Format, result.Pages)
	text += fmt.Sprintf("Fields found: %d of %d\n", result.Populated, len(result.Record.Fields()))
	if result.Locked {
		text += "\n⚠️  WARNING: The document is password protected and could not be unlocked. " +
			"Pass the 'password' argument to read it.\n"
	} else if result.Populated == 0 {
		text += "\n🔍 No fields were recognized. Check the image quality or try idcard_validate_file.\n"
	}
	return text
}

func formatVerifyResult(result *document.VerifyResult) string {
	status := "NOT VERIFIED"
	if result.Verified {
		status = "VERIFIED"
	}

	text := fmt.Sprintf("Verification %s for: %s\n", status, result.Path)
	if result.Locked {
		text += "⚠️  The document is locked; nothing could be compared.\n"
	}
	text += "\nChecks:\n"
	for i, check := range result.Checks {
		mark := "✗"
		if check.Match {
			mark = "✓"
		}
		extracted := check.Extracted
		if extracted == "" {
			extracted = "(not found)"
		}
		text += fmt.Sprintf("%d. %s %s: claimed %q, card %q, score %.2f\n",
			i+1, mark, check.Field, check.Claimed, extracted, check.Score)
	}
	return text
}

func formatSearchDirectoryResult(result *document.SearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d document(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s (%s)\n", i+1, file.Name, file.Kind)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func formatServerInfoResult(result *document.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔤 OCR: %s, script %s, languages %s\n",
		result.OCREngine, result.Script, strings.Join(result.OCRLanguages, "+"))
	text += fmt.Sprintf("🔒 Locked PDF policy: %s\n\n", result.LockedPolicy)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d documents found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No identity documents found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		text += fmt.Sprintf("\n🖼️  Supported Formats: %s\n", strings.Join(result.SupportedFormats, ", "))
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch s.config.Mode {
	case config.ModeServer:
		return s.runServerMode(ctx)
	case config.ModeStdio:
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves MCP over standard input and output until ctx ends
func (s *Server) runStdioMode(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting ID card MCP server in stdio mode")
		log.Printf("Document directory: %s", s.service.DocumentDirectory())
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler used in server mode: the upload API with
// the MCP streamable HTTP transport mounted at /mcp.
func (s *Server) Handler() http.Handler {
	return httpapi.NewRouter(s.service, httpapi.Options{
		MCPHandler:     server.NewStreamableHTTPServer(s.mcpServer),
		RequestLogging: s.config.IsDebug(),
	})
}

// runServerMode serves HTTP until ctx ends, then shuts down gracefully
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting ID card server on http://%s (MCP endpoint /mcp)", httpServer.Addr)
		log.Printf("Document directory: %s", s.service.DocumentDirectory())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
