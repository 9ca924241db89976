package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

const validConfigYAML = `
api:
  endpoint: "https://api.usaspending.gov/api/v2/bulk_download/awards/"
  timeout_sec: 30
  request_delay_sec: 2
poll:
  interval_sec: 10
  max_attempts: 20
  chunk_size_bytes: 4096
dirs:
  raw_data: "raw"
  processed: "processed"
  filtered: "filtered"
departments:
  - name: "Department of Energy"
    acronym: "DOE"
keywords:
  main: ["diversity", "training"]
  refine: ["diversity"]
filter:
  min_amount: 250000
logging:
  level: "debug"
`

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig failed validation: %v", err)
	}

	if len(cfg.Departments) != 21 {
		t.Errorf("Expected 21 departments, got %d", len(cfg.Departments))
	}

	if cfg.Poll.Interval() != 15*time.Second {
		t.Errorf("Expected 15s poll interval, got %v", cfg.Poll.Interval())
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Endpoint == "" {
		t.Error("Expected default endpoint to be set")
	}
}

func TestLoad_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.API.Timeout())
	}

	if len(cfg.Departments) != 1 {
		t.Errorf("Expected 1 department, got %d", len(cfg.Departments))
	}

	if cfg.Filter.MinAmount != 250000 {
		t.Errorf("Expected min amount 250000, got %v", cfg.Filter.MinAmount)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestValidate_Sentinels(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing endpoint", func(c *Config) { c.API.Endpoint = "" }, ErrMissingEndpoint},
		{"bad timeout", func(c *Config) { c.API.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"bad poll interval", func(c *Config) { c.Poll.IntervalSec = -1 }, ErrInvalidPollInterval},
		{"bad poll attempts", func(c *Config) { c.Poll.MaxAttempts = 0 }, ErrInvalidPollAttempts},
		{"bad chunk size", func(c *Config) { c.Poll.ChunkSizeBytes = 0 }, ErrInvalidChunkSize},
		{"no departments", func(c *Config) { c.Departments = nil }, ErrNoDepartments},
		{"incomplete department", func(c *Config) { c.Departments[0].Acronym = "" }, ErrDepartmentIncomplete},
		{"no keywords", func(c *Config) { c.Keywords.Main = nil }, ErrNoKeywords},
		{"no refine keywords", func(c *Config) { c.Keywords.Refine = nil }, ErrNoRefineKeywords},
		{"bad min amount", func(c *Config) { c.Filter.MinAmount = -1 }, ErrInvalidMinAmount},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFindDepartment(t *testing.T) {
	cfg := DefaultConfig()

	byName, err := cfg.FindDepartment("Department of Energy")
	if err != nil {
		t.Fatalf("FindDepartment by name failed: %v", err)
	}

	if byName.Acronym != "DOE" {
		t.Errorf("Expected DOE, got %s", byName.Acronym)
	}

	byAcronym, err := cfg.FindDepartment("HHS")
	if err != nil {
		t.Fatalf("FindDepartment by acronym failed: %v", err)
	}

	if byAcronym.Name != "Department of Health and Human Services" {
		t.Errorf("Unexpected department name: %s", byAcronym.Name)
	}

	if _, err := cfg.FindDepartment("Ministry of Magic"); err == nil {
		t.Fatal("Expected error for unknown department")
	}
}

func TestProviderAPIKey(t *testing.T) {
	t.Setenv("XAI_API_KEY", "test-key")

	key, err := ProviderAPIKey("xai")
	if err != nil {
		t.Fatalf("ProviderAPIKey failed: %v", err)
	}

	if key != "test-key" {
		t.Errorf("Expected test-key, got %s", key)
	}

	t.Setenv("OPENAI_API_KEY", "")

	if _, err := ProviderAPIKey("openai"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}

	if _, err := ProviderAPIKey("gemini"); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}
