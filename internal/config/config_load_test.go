package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// resetFlags gives each load a fresh flag set and viper instance.
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
}

// withArgs runs LoadFromFlags with the given arguments.
func withArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
	})

	os.Args = append([]string{"mcp-idcard-reader"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	cfg, err := withArgs(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.OCREngine != "tesseract" {
		t.Errorf("LoadFromFlags() OCREngine = %v, want tesseract", cfg.OCREngine)
	}
	if cfg.OCRTimeout != 60*time.Second {
		t.Errorf("LoadFromFlags() OCRTimeout = %v, want 60s", cfg.OCRTimeout)
	}
	if !filepath.IsAbs(cfg.DocumentDirectory) {
		t.Errorf("LoadFromFlags() DocumentDirectory %q should be absolute", cfg.DocumentDirectory)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Mode != "server" || cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
					t.Errorf("got mode=%s host=%s port=%d", cfg.Mode, cfg.Host, cfg.Port)
				}
			},
		},
		{
			name: "debug logging",
			args: []string{"--loglevel=debug"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.IsDebug() {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "custom max file size",
			args: []string{"--maxfilesize=50000000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.MaxFileSize != 50000000 {
					t.Errorf("MaxFileSize = %d, want 50000000", cfg.MaxFileSize)
				}
			},
		},
		{
			name: "ocr settings",
			args: []string{
				"--ocr-engine=Vision", "--script=Telugu", "--psm=3",
				"--max-concurrent-ocr=2", "--ocr-timeout=15s", "--locked-policy=partial",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.OCREngine != "vision" {
					t.Errorf("OCREngine = %s, want vision", cfg.OCREngine)
				}
				if cfg.Script != "telugu" {
					t.Errorf("Script = %s, want telugu", cfg.Script)
				}
				if cfg.PageSegMode != 3 {
					t.Errorf("PageSegMode = %d, want 3", cfg.PageSegMode)
				}
				if cfg.MaxConcurrentOCR != 2 {
					t.Errorf("MaxConcurrentOCR = %d, want 2", cfg.MaxConcurrentOCR)
				}
				if cfg.OCRTimeout != 15*time.Second {
					t.Errorf("OCRTimeout = %v, want 15s", cfg.OCRTimeout)
				}
				if cfg.LockedPolicy != "partial" {
					t.Errorf("LockedPolicy = %s, want partial", cfg.LockedPolicy)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg, err := withArgs(t, append(tt.args, "--dir="+dir)...)
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}
			if cfg.DocumentDirectory != dir {
				t.Errorf("DocumentDirectory = %s, want %s", cfg.DocumentDirectory, dir)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IDCARD_MODE", "server")
	t.Setenv("IDCARD_HOST", "192.168.1.1")
	t.Setenv("IDCARD_PORT", "3000")
	t.Setenv("IDCARD_DIR", dir)
	t.Setenv("IDCARD_LOGLEVEL", "warn")
	t.Setenv("IDCARD_MAXFILESIZE", "200000000")
	t.Setenv("IDCARD_SCRIPT", "bengali")
	t.Setenv("IDCARD_OCR_TIMEOUT", "2m")
	t.Setenv("IDCARD_LOCKED_POLICY", "partial")

	cfg, err := withArgs(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("Mode = %v, want server", cfg.Mode)
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("Host = %v, want 192.168.1.1", cfg.Host)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %v, want 3000", cfg.Port)
	}
	if cfg.DocumentDirectory != dir {
		t.Errorf("DocumentDirectory = %v, want %v", cfg.DocumentDirectory, dir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 200000000 {
		t.Errorf("MaxFileSize = %v, want 200000000", cfg.MaxFileSize)
	}
	if cfg.Script != "bengali" {
		t.Errorf("Script = %v, want bengali", cfg.Script)
	}
	if cfg.OCRTimeout != 2*time.Minute {
		t.Errorf("OCRTimeout = %v, want 2m", cfg.OCRTimeout)
	}
	if cfg.LockedPolicy != "partial" {
		t.Errorf("LockedPolicy = %v, want partial", cfg.LockedPolicy)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("IDCARD_MODE", "server")
	t.Setenv("IDCARD_HOST", "192.168.1.1")
	t.Setenv("IDCARD_PORT", "3000")

	cfg, err := withArgs(t, "--mode=stdio", "--host=localhost", "--port=8888", "--dir="+t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("Mode = %v, want stdio (should override env)", cfg.Mode)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Host = %v, want localhost (should override env)", cfg.Host)
	}
	if cfg.Port != 8888 {
		t.Errorf("Port = %v, want 8888 (should override env)", cfg.Port)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"invalid log level", []string{"--loglevel=invalid"}, "invalid log level"},
		{"invalid engine", []string{"--ocr-engine=paddle"}, "invalid OCR engine"},
		{"invalid script", []string{"--script=cyrillic"}, "invalid script"},
		{"invalid policy", []string{"--locked-policy=skip"}, "invalid locked policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := withArgs(t, append(tt.args, "--dir="+t.TempDir())...)
			if err == nil {
				t.Fatal("LoadFromFlags() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	_, err := withArgs(t, "--version")
	if err == nil {
		t.Fatal("LoadFromFlags() expected version error")
	}
	if err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "IDCARD_TEST_ENV_FILE_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() unexpected error: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q, want from-file", key, got)
	}
}
