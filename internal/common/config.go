package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML values like "250ms" or "30s"
// parse via time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	FMP         FMPConfig       `toml:"fmp"`
	Snapshots   SnapshotsConfig `toml:"snapshots"`
	Sync        SyncConfig      `toml:"sync"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Mode   string       `toml:"mode" validate:"oneof=badger remote"` // "badger" = embedded, "remote" = HTTP snapshot backend
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// FMPConfig contains Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	RateLimit      Duration `toml:"rate_limit"`      // Minimum time between API requests
	RequestTimeout Duration `toml:"request_timeout"` // HTTP request timeout
	YearsOfHistory int      `toml:"years_of_history"`
}

// SnapshotsConfig contains configuration for the remote snapshot backend.
// Only used when storage mode is "remote".
type SnapshotsConfig struct {
	BaseURL        string   `toml:"base_url"`
	APIKey         string   `toml:"api_key"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// SyncConfig contains tuning for the sync engine
type SyncConfig struct {
	ConcurrencyLimit   int      `toml:"concurrency_limit" validate:"min=1"` // Parallel fetches per batch
	BatchDelay         Duration `toml:"batch_delay"`                        // Pause between batches
	MaxRetries         int      `toml:"max_retries" validate:"min=0"`       // Retries for transient fetch failures
	RetryBaseDelay     Duration `toml:"retry_base_delay"`
	CAGRWindowYears    int           `toml:"cagr_window_years" validate:"min=2"`
	OutlierMaxMultiple float64       `toml:"outlier_max_multiple"` // Implied price above current*this is excluded
	OutlierMinMultiple float64       `toml:"outlier_min_multiple"` // Implied price below current*this is excluded
	EPSTolerancePct    float64       `toml:"eps_tolerance_pct"`    // YTD vs trailing-12-month EPS warning threshold
	Schedule           string        `toml:"schedule"`             // Cron expression for scheduled bulk sync (empty = disabled)
	ScheduleTickers    []string      `toml:"schedule_tickers"`     // Tickers for the scheduled run (empty = all current tickers)
	SchedulePreset     string        `toml:"schedule_preset"`      // Preset applied by the scheduled run
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in financepro.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Mode: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		FMP: FMPConfig{
			APIKey:         "", // User must provide API key in config file
			BaseURL:        "https://financialmodelingprep.com/api/v3",
			RateLimit:      Duration(250 * time.Millisecond),
			RequestTimeout: Duration(30 * time.Second),
			YearsOfHistory: 15,
		},
		Snapshots: SnapshotsConfig{
			BaseURL:        "",
			RequestTimeout: Duration(30 * time.Second),
		},
		Sync: SyncConfig{
			ConcurrencyLimit:   4,
			BatchDelay:         Duration(1 * time.Second),
			MaxRetries:         2,
			RetryBaseDelay:     Duration(1 * time.Second),
			CAGRWindowYears:    5,
			OutlierMaxMultiple: 10.0,
			OutlierMinMultiple: 0.1,
			EPSTolerancePct:    5.0,
			Schedule:           "", // Disabled by default
			SchedulePreset:     "standard",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files
// override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Storage.Mode == "remote" && c.Snapshots.BaseURL == "" {
		return fmt.Errorf("invalid configuration: storage mode is remote but snapshots.base_url is empty")
	}
	if c.Sync.OutlierMaxMultiple <= c.Sync.OutlierMinMultiple {
		return fmt.Errorf("invalid configuration: outlier_max_multiple must exceed outlier_min_multiple")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINANCEPRO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("FINANCEPRO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FINANCEPRO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if mode := os.Getenv("FINANCEPRO_STORAGE_MODE"); mode != "" {
		config.Storage.Mode = mode
	}
	if path := os.Getenv("FINANCEPRO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if level := os.Getenv("FINANCEPRO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if key := os.Getenv("FINANCEPRO_FMP_API_KEY"); key != "" {
		config.FMP.APIKey = key
	}
	if url := os.Getenv("FINANCEPRO_FMP_BASE_URL"); url != "" {
		config.FMP.BaseURL = url
	}

	if url := os.Getenv("FINANCEPRO_SNAPSHOTS_BASE_URL"); url != "" {
		config.Snapshots.BaseURL = url
	}
	if key := os.Getenv("FINANCEPRO_SNAPSHOTS_API_KEY"); key != "" {
		config.Snapshots.APIKey = key
	}
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
