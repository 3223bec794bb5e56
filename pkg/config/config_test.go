package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5, cfg.Download.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Download.AttemptTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
download:
  concurrency: 8
  attempt_timeout: 20s
retry:
  max_attempts: 5
storage:
  data_dir: /tmp/infohub-data
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 8, cfg.Download.Concurrency)
	assert.Equal(t, 20*time.Second, cfg.Download.AttemptTimeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "/tmp/infohub-data", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep defaults
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INFOHUB_DATA_DIR", "/var/data")
	t.Setenv("INFOHUB_CONCURRENCY", "12")
	t.Setenv("INFOHUB_MAX_ATTEMPTS", "4")
	t.Setenv("INFOHUB_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/var/data", cfg.Storage.DataDir)
	assert.Equal(t, 12, cfg.Download.Concurrency)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":      "/out",
		"concurrency": 2,
		"min-year":    2020,
	})

	assert.Equal(t, "/out", cfg.Storage.DataDir)
	assert.Equal(t, 2, cfg.Download.Concurrency)
	assert.Equal(t, 2020, cfg.Source.MinYear)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Download.Concurrency = 0 }},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"max delay below base", func(c *Config) { c.Retry.MaxDelay = c.Retry.BaseDelay / 2 }},
		{"bad multiplier", func(c *Config) { c.Retry.Multiplier = 0.5 }},
		{"bad jitter", func(c *Config) { c.Retry.JitterFactor = 1.5 }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"bucket without url", func(c *Config) { c.Storage.Backend = "bucket" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
