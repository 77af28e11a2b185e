package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-idcard-reader/internal/parser"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// OCR engines
	EngineTesseract = "tesseract"
	EngineVision    = "vision"

	// Locked PDF policies
	LockedFail    = "fail"
	LockedPartial = "partial"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultOCRTimeout  = 60 * time.Second
	DefaultPageSegMode = 6
	DefaultEnvFile     = ".env"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "IDCARD"
)

// Config holds all configuration for the ID card MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	DocumentDirectory string
	MaxFileSize       int64 // Maximum document size in bytes

	// OCR configuration
	OCREngine             string
	Script                string
	PageSegMode           int
	MaxConcurrentOCR      int
	OCRTimeout            time.Duration
	LockedPolicy          string
	VisionCredentialsFile string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		DocumentDirectory: currentDir,
		MaxFileSize:       DefaultMaxFileSize,
		OCREngine:         EngineTesseract,
		Script:            parser.Tamil.Name,
		PageSegMode:       DefaultPageSegMode,
		MaxConcurrentOCR:  runtime.NumCPU(),
		OCRTimeout:        DefaultOCRTimeout,
		LockedPolicy:      LockedFail,
		Version:           "1.0.0",
		ServerName:        "mcp-idcard-reader",
		LogLevel:          DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
// Values come from flags, then IDCARD_* environment variables (optionally
// loaded from a .env file), then defaults.
func LoadFromFlags() (*Config, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.DocumentDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DocumentDirectory); err == nil {
			cfg.DocumentDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from path into the process environment.
// A missing file is not an error; variables already set win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.DocumentDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("ocr-engine", cfg.OCREngine)
	viper.SetDefault("script", cfg.Script)
	viper.SetDefault("psm", cfg.PageSegMode)
	viper.SetDefault("max-concurrent-ocr", cfg.MaxConcurrentOCR)
	viper.SetDefault("ocr-timeout", cfg.OCRTimeout)
	viper.SetDefault("locked-policy", cfg.LockedPolicy)
	viper.SetDefault("vision-credentials", cfg.VisionCredentialsFile)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.DocumentDirectory, "Directory containing identity documents")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
	pflag.String("ocr-engine", cfg.OCREngine, "OCR engine: 'tesseract' or 'vision'")
	pflag.String("script", cfg.Script, "Regional script printed on cards ("+strings.Join(parser.ScriptNames(), ", ")+")")
	pflag.Int("psm", cfg.PageSegMode, "Tesseract page segmentation mode")
	pflag.Int("max-concurrent-ocr", cfg.MaxConcurrentOCR, "Maximum concurrent OCR or PDF extractions")
	pflag.Duration("ocr-timeout", cfg.OCRTimeout, "Deadline for a single text extraction")
	pflag.String("locked-policy", cfg.LockedPolicy, "Locked PDF handling: 'fail' or 'partial'")
	pflag.String("vision-credentials", cfg.VisionCredentialsFile, "Google Cloud credentials file for the vision engine")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize",
		"ocr-engine", "script", "psm", "max-concurrent-ocr", "ocr-timeout",
		"locked-policy", "vision-credentials",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP ID Card Reader - A Model Context Protocol server for reading identity cards\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/cards --script=telugu    "+
			"# stdio mode, Telugu cards\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/cards      # HTTP upload API and MCP over HTTP\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --ocr-engine=vision --vision-credentials=key.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from %s):\n", DefaultEnvFile)
		fmt.Fprintf(os.Stderr, "  IDCARD_MODE                Server mode\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_HOST                Server host\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_PORT                Server port\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_DIR                 Document directory\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_LOGLEVEL            Log level\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_MAXFILESIZE         Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_OCR_ENGINE          OCR engine\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_SCRIPT              Regional script\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_PSM                 Page segmentation mode\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_MAX_CONCURRENT_OCR  Concurrent extractions\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_OCR_TIMEOUT         Extraction deadline\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_LOCKED_POLICY       Locked PDF policy\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_VISION_CREDENTIALS  Vision credentials file\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DocumentDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.OCREngine = strings.ToLower(viper.GetString("ocr-engine"))
	cfg.Script = strings.ToLower(viper.GetString("script"))
	cfg.PageSegMode = viper.GetInt("psm")
	cfg.MaxConcurrentOCR = viper.GetInt("max-concurrent-ocr")
	cfg.OCRTimeout = viper.GetDuration("ocr-timeout")
	cfg.LockedPolicy = strings.ToLower(viper.GetString("locked-policy"))
	cfg.VisionCredentialsFile = viper.GetString("vision-credentials")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}

	if _, err := os.Stat(c.DocumentDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DocumentDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create document directory %s: %w", c.DocumentDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access document directory %s: %w", c.DocumentDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.OCREngine != EngineTesseract && c.OCREngine != EngineVision {
		return fmt.Errorf("invalid OCR engine: %s (must be one of: tesseract, vision)", c.OCREngine)
	}

	if _, ok := parser.LookupScript(c.Script); !ok {
		return fmt.Errorf("invalid script: %s (must be one of: %s)", c.Script, strings.Join(parser.ScriptNames(), ", "))
	}

	// Mode 0 only detects orientation and yields no text
	if c.PageSegMode < 1 || c.PageSegMode > 13 {
		return fmt.Errorf("page segmentation mode must be between 1 and 13, got %d", c.PageSegMode)
	}

	if c.MaxConcurrentOCR <= 0 {
		return errors.New("maximum concurrent OCR must be positive")
	}

	if c.OCRTimeout <= 0 {
		return errors.New("OCR timeout must be positive")
	}

	if c.LockedPolicy != LockedFail && c.LockedPolicy != LockedPartial {
		return fmt.Errorf("invalid locked policy: %s (must be one of: fail, partial)", c.LockedPolicy)
	}

	if c.VisionCredentialsFile != "" {
		if _, err := os.Stat(c.VisionCredentialsFile); err != nil {
			return fmt.Errorf("cannot access vision credentials file %s: %w", c.VisionCredentialsFile, err)
		}
	}

	return nil
}

// ScriptDefinition returns the parser script named by Script, falling back
// to the default when the name is unknown.
func (c *Config) ScriptDefinition() parser.Script {
	if s, ok := parser.LookupScript(c.Script); ok {
		return s
	}
	return parser.Tamil
}

// OCRLanguages returns the Tesseract languages for the configured script:
// English plus the regional language.
func (c *Config) OCRLanguages() []string {
	return []string{"eng", c.ScriptDefinition().OCRLanguage}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DocumentDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"OCREngine: %s, Script: %s, LockedPolicy: %s}",
		c.Mode, c.Host, c.Port, c.DocumentDirectory, c.LogLevel, c.MaxFileSize,
		c.OCREngine, c.Script, c.LockedPolicy)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
