// Package config provides configuration management for the pipeline.
//
// Configuration is loaded once at process start and passed by reference
// into the components that need it; nothing here is mutated after Load.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"spendwatch/internal/models"
)

// Configuration validation errors.
var (
	ErrMissingEndpoint      = errors.New("api.endpoint is required")
	ErrInvalidTimeout       = errors.New("api.timeout_sec must be at least 1")
	ErrInvalidPollInterval  = errors.New("poll.interval_sec must be at least 1")
	ErrInvalidPollAttempts  = errors.New("poll.max_attempts must be at least 1")
	ErrInvalidChunkSize     = errors.New("poll.chunk_size_bytes must be positive")
	ErrNoDepartments        = errors.New("at least one department is required")
	ErrDepartmentIncomplete = errors.New("department entries need both name and acronym")
	ErrNoKeywords           = errors.New("keywords.main must not be empty")
	ErrNoRefineKeywords     = errors.New("keywords.refine must not be empty")
	ErrInvalidMinAmount     = errors.New("filter.min_amount must be non-negative")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config is the complete pipeline configuration.
type Config struct {
	API         APIConfig           `yaml:"api"`
	Poll        PollConfig          `yaml:"poll"`
	Dirs        DirsConfig          `yaml:"dirs"`
	Departments []models.Department `yaml:"departments"`
	Keywords    KeywordsConfig      `yaml:"keywords"`
	Filter      FilterConfig        `yaml:"filter"`
	Logging     LoggingConfig       `yaml:"logging"`
}

// APIConfig holds bulk-download API settings.
type APIConfig struct {
	Endpoint        string `yaml:"endpoint"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	RequestDelaySec int    `yaml:"request_delay_sec"`
}

// Timeout returns the HTTP client timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// RequestDelay is the pause inserted between bulk-download requests. It
// exists only to avoid hammering the remote API, not for correctness.
func (a APIConfig) RequestDelay() time.Duration {
	return time.Duration(a.RequestDelaySec) * time.Second
}

// PollConfig bounds the file-readiness poll loop.
type PollConfig struct {
	IntervalSec    int `yaml:"interval_sec"`
	MaxAttempts    int `yaml:"max_attempts"`
	ChunkSizeBytes int `yaml:"chunk_size_bytes"`
}

// Interval returns the wait between readiness checks.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSec) * time.Second
}

// DirsConfig holds the working directory layout.
type DirsConfig struct {
	RawData   string `yaml:"raw_data"`
	Processed string `yaml:"processed"`
	Filtered  string `yaml:"filtered"`
}

// KeywordsConfig holds the named keyword sets. The exact list contents are
// a configuration concern; only the matching semantics are fixed in code.
type KeywordsConfig struct {
	Main   []string `yaml:"main"`
	Refine []string `yaml:"refine"`
}

// FilterConfig holds secondary-filter defaults.
type FilterConfig struct {
	MinAmount float64 `yaml:"min_amount"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in configuration: the USAspending bulk
// endpoint, the full department roster, and the seed keyword sets.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:        "https://api.usaspending.gov/api/v2/bulk_download/awards/",
			TimeoutSec:      60,
			RequestDelaySec: 5,
		},
		Poll: PollConfig{
			IntervalSec:    15,
			MaxAttempts:    40,
			ChunkSizeBytes: 8192,
		},
		Dirs: DirsConfig{
			RawData:   "raw_data",
			Processed: "processed_data",
			Filtered:  "filtered_data",
		},
		Departments: defaultDepartments(),
		Keywords: KeywordsConfig{
			Main: []string{
				"DEI", "diversity", "equity", "inclusion", "gender",
				"civil rights", "training", "workshops", "clerical",
				"mailing", "operations", "support", "consulting",
				"services", "administrative", "initiative",
				"public-facing", "applications", "observe", "mail",
				"facility", "institute", "non-binary",
			},
			Refine: []string{
				"DEI", "diversity", "equity", "inclusion", "gender",
				"non-binary",
			},
		},
		Filter: FilterConfig{
			MinAmount: 500000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, or returns DefaultConfig when
// path is empty. File values fully replace defaults for any section that
// is present.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for startup-fatal errors.
func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return ErrMissingEndpoint
	}

	if c.API.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Poll.IntervalSec < 1 {
		return ErrInvalidPollInterval
	}

	if c.Poll.MaxAttempts < 1 {
		return ErrInvalidPollAttempts
	}

	if c.Poll.ChunkSizeBytes < 1 {
		return ErrInvalidChunkSize
	}

	if len(c.Departments) == 0 {
		return ErrNoDepartments
	}

	for _, d := range c.Departments {
		if d.Name == "" || d.Acronym == "" {
			return ErrDepartmentIncomplete
		}
	}

	if len(c.Keywords.Main) == 0 {
		return ErrNoKeywords
	}

	if len(c.Keywords.Refine) == 0 {
		return ErrNoRefineKeywords
	}

	if c.Filter.MinAmount < 0 {
		return ErrInvalidMinAmount
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// FindDepartment resolves a department by exact API name or by acronym.
func (c *Config) FindDepartment(name string) (models.Department, error) {
	for _, d := range c.Departments {
		if d.Name == name || d.Acronym == name {
			return d, nil
		}
	}

	return models.Department{}, fmt.Errorf("unknown department: %q", name)
}

func defaultDepartments() []models.Department {
	return []models.Department{
		{Name: "Department of Agriculture", Acronym: "USDA"},
		{Name: "Department of Commerce", Acronym: "DOC"},
		{Name: "Department of Defense", Acronym: "DOD"},
		{Name: "Department of Education", Acronym: "ED"},
		{Name: "Department of Energy", Acronym: "DOE"},
		{Name: "Department of Health and Human Services", Acronym: "HHS"},
		{Name: "Department of Homeland Security", Acronym: "DHS"},
		{Name: "Department of Housing and Urban Development", Acronym: "HUD"},
		{Name: "Department of Justice", Acronym: "DOJ"},
		{Name: "Department of Labor", Acronym: "DOL"},
		{Name: "Department of State", Acronym: "DOS"},
		{Name: "Department of the Interior", Acronym: "DOI"},
		{Name: "Department of the Treasury", Acronym: "TREAS"},
		{Name: "Department of Transportation", Acronym: "DOT"},
		{Name: "Department of Veterans Affairs", Acronym: "VA"},
		{Name: "Environmental Protection Agency", Acronym: "EPA"},
		{Name: "National Aeronautics and Space Administration", Acronym: "NASA"},
		{Name: "Small Business Administration", Acronym: "SBA"},
		{Name: "Office of Personnel Management", Acronym: "OPM"},
		{Name: "General Services Administration", Acronym: "GSA"},
		{Name: "Social Security Administration", Acronym: "SSA"},
	}
}
