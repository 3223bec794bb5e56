package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the download pipeline.
type Config struct {
	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retry/backoff settings
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Candidate source settings
	Source SourceConfig `yaml:"source" json:"source"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DownloadConfig holds fetch-pipeline settings.
type DownloadConfig struct {
	Concurrency    int           `yaml:"concurrency" json:"concurrency"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" json:"attempt_timeout"`
	HashWorkers    int           `yaml:"hash_workers" json:"hash_workers"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// RetryConfig holds retry and backoff settings.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds request pacing configuration.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig holds target-store configuration. Backend selects between a
// plain local directory and a gocloud blob bucket (file://, s3://, gs://).
type StorageConfig struct {
	DataDir   string `yaml:"data_dir" json:"data_dir"`
	HashDir   string `yaml:"hash_dir" json:"hash_dir"`
	Backend   string `yaml:"backend" json:"backend"`
	BucketURL string `yaml:"bucket_url" json:"bucket_url"`
}

// SourceConfig holds candidate-source configuration.
type SourceConfig struct {
	LinksFile string `yaml:"links_file" json:"links_file"`
	MinYear   int    `yaml:"min_year" json:"min_year"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			Concurrency:    5,
			AttemptTimeout: 10 * time.Second,
			HashWorkers:    2,
			UserAgent:      "infohub/1.0",
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
		},
		Storage: StorageConfig{
			DataDir: "./data",
			HashDir: "./hashes",
			Backend: "local",
		},
		Source: SourceConfig{
			MinYear: 2018,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from INFOHUB_* environment variables.
func (c *Config) LoadFromEnv() error {
	if dir := os.Getenv("INFOHUB_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if dir := os.Getenv("INFOHUB_HASH_DIR"); dir != "" {
		c.Storage.HashDir = dir
	}
	if url := os.Getenv("INFOHUB_BUCKET_URL"); url != "" {
		c.Storage.Backend = "bucket"
		c.Storage.BucketURL = url
	}
	if concurrent := os.Getenv("INFOHUB_CONCURRENCY"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.Concurrency = val
		}
	}
	if attempts := os.Getenv("INFOHUB_MAX_ATTEMPTS"); attempts != "" {
		var val int
		fmt.Sscanf(attempts, "%d", &val)
		if val > 0 {
			c.Retry.MaxAttempts = val
		}
	}
	if rpm := os.Getenv("INFOHUB_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if linksFile := os.Getenv("INFOHUB_LINKS_FILE"); linksFile != "" {
		c.Source.LinksFile = linksFile
	}
	if minYear := os.Getenv("INFOHUB_MIN_YEAR"); minYear != "" {
		var val int
		fmt.Sscanf(minYear, "%d", &val)
		if val > 0 {
			c.Source.MinYear = val
		}
	}
	if logLevel := os.Getenv("INFOHUB_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".infohub.yaml",
		".infohub.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "infohub", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".infohub.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Download.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}
	if c.Download.AttemptTimeout <= 0 {
		errs = append(errs, errors.New("attempt timeout must be positive"))
	}
	if c.Download.HashWorkers <= 0 {
		errs = append(errs, errors.New("hash workers must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, errors.New("base delay must be positive"))
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, errors.New("max delay must be at least base delay"))
	}
	if c.Retry.Multiplier < 1.0 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1.0"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1.0 {
		errs = append(errs, errors.New("jitter factor must be between 0.0 and 1.0"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("data directory is required"))
		}
	case "bucket":
		if c.Storage.BucketURL == "" {
			errs = append(errs, errors.New("bucket URL is required for bucket backend"))
		}
	default:
		errs = append(errs, errors.New("storage backend must be local or bucket"))
	}
	if c.Storage.HashDir == "" {
		errs = append(errs, errors.New("hash directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dataDir, ok := flags["output"].(string); ok && dataDir != "" {
		c.Storage.DataDir = dataDir
	}
	if hashDir, ok := flags["hash-dir"].(string); ok && hashDir != "" {
		c.Storage.HashDir = hashDir
	}
	if bucketURL, ok := flags["bucket-url"].(string); ok && bucketURL != "" {
		c.Storage.Backend = "bucket"
		c.Storage.BucketURL = bucketURL
	}
	if concurrent, ok := flags["concurrency"].(int); ok && concurrent > 0 {
		c.Download.Concurrency = concurrent
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts > 0 {
		c.Retry.MaxAttempts = attempts
	}
	if linksFile, ok := flags["links-file"].(string); ok && linksFile != "" {
		c.Source.LinksFile = linksFile
	}
	if minYear, ok := flags["min-year"].(int); ok && minYear > 0 {
		c.Source.MinYear = minYear
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".infohub.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
