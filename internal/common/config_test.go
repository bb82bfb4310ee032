package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "financepro.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFilesDefaults(t *testing.T) {
	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles: %v", err)
	}
	if config.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", config.Server.Port)
	}
	if config.Storage.Mode != "badger" {
		t.Errorf("Mode = %s, want badger", config.Storage.Mode)
	}
	if config.FMP.RateLimit.Std() != 250*time.Millisecond {
		t.Errorf("RateLimit = %v, want 250ms", config.FMP.RateLimit.Std())
	}
	if config.Sync.ConcurrencyLimit != 4 || config.Sync.CAGRWindowYears != 5 {
		t.Errorf("sync defaults = %+v", config.Sync)
	}
	if config.IsProduction() {
		t.Error("default environment must not be production")
	}
}

func TestLoadFromFilesOverride(t *testing.T) {
	path := writeConfigFile(t, `
environment = "production"

[server]
port = 9090

[fmp]
api_key = "file-key"
rate_limit = "500ms"

[sync]
concurrency_limit = 8
batch_delay = "2s"
`)

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles: %v", err)
	}
	if config.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", config.Server.Port)
	}
	if config.FMP.APIKey != "file-key" || config.FMP.RateLimit.Std() != 500*time.Millisecond {
		t.Errorf("FMP = %+v", config.FMP)
	}
	if config.Sync.ConcurrencyLimit != 8 || config.Sync.BatchDelay.Std() != 2*time.Second {
		t.Errorf("Sync = %+v", config.Sync)
	}
	// Untouched settings keep their defaults.
	if config.Server.Host != "localhost" {
		t.Errorf("Host = %s, want default localhost", config.Server.Host)
	}
	if !config.IsProduction() {
		t.Error("environment from file not applied")
	}
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	first := writeConfigFile(t, "[server]\nport = 9090\n")
	second := writeConfigFile(t, "[server]\nport = 9999\n")

	config, err := LoadFromFiles(first, second)
	if err != nil {
		t.Fatalf("LoadFromFiles: %v", err)
	}
	if config.Server.Port != 9999 {
		t.Errorf("Port = %d, later file must win", config.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FINANCEPRO_SERVER_PORT", "7070")
	t.Setenv("FINANCEPRO_FMP_API_KEY", "env-key")

	path := writeConfigFile(t, "[fmp]\napi_key = \"file-key\"\n")

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles: %v", err)
	}
	if config.Server.Port != 7070 {
		t.Errorf("Port = %d, env must override", config.Server.Port)
	}
	if config.FMP.APIKey != "env-key" {
		t.Errorf("APIKey = %s, env must override file", config.FMP.APIKey)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name:   "unknown storage mode",
			mutate: func(c *Config) { c.Storage.Mode = "postgres" },
		},
		{
			name:   "remote mode without base url",
			mutate: func(c *Config) { c.Storage.Mode = "remote" },
		},
		{
			name:   "inverted outlier thresholds",
			mutate: func(c *Config) { c.Sync.OutlierMaxMultiple = 0.05 },
		},
		{
			name:   "cagr window too small",
			mutate: func(c *Config) { c.Sync.CAGRWindowYears = 1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
