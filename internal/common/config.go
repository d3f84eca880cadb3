// Package common provides shared utilities for nsebhav
package common

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for nsebhav
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Exchange    ExchangeConfig `toml:"exchange"`
	Ingest      IngestConfig   `toml:"ingest"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the SurrealDB connection.
// URL may carry credentials and the namespace/database as query parameters:
// ws://root:root@localhost:8000/rpc?ns=nse&db=stocks
type StorageConfig struct {
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// Resolve splits URL into the RPC address and fills credentials and
// namespace/database from it. Values already set explicitly are kept.
func (c StorageConfig) Resolve() (StorageConfig, error) {
	if c.URL == "" {
		return c, errors.New("database url is required")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return c, fmt.Errorf("invalid database url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return c, fmt.Errorf("invalid database url %q: scheme and host are required", c.URL)
	}

	out := c
	if u.User != nil {
		if out.Username == "" {
			out.Username = u.User.Username()
		}
		if pass, ok := u.User.Password(); ok && out.Password == "" {
			out.Password = pass
		}
	}

	q := u.Query()
	if ns := q.Get("ns"); ns != "" && out.Namespace == "" {
		out.Namespace = ns
	}
	if db := q.Get("db"); db != "" && out.Database == "" {
		out.Database = db
	}

	u.User = nil
	u.RawQuery = ""
	if u.Path == "" {
		u.Path = "/rpc"
	}
	out.URL = u.String()
	return out, nil
}

// Redacted returns the URL without credentials, safe for logs.
func (c StorageConfig) Redacted() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// ExchangeConfig holds bhavcopy archive settings
type ExchangeConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"` // requests per second, 0 = unlimited
	Timezone  string `toml:"timezone"`
}

// GetTimeout parses and returns the timeout duration
func (c *ExchangeConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Location loads the exchange time zone, falling back to IST as a fixed zone
// when the tz database is unavailable.
func (c *ExchangeConfig) Location() *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("IST", 5*60*60+30*60)
}

// IngestConfig controls the backfill driver and scheduler
type IngestConfig struct {
	BackfillDays      int    `toml:"backfill_days"`
	MaxOffset         int    `toml:"max_offset"`
	AbsentRecheckDays int    `toml:"absent_recheck_days"`
	ScheduleInterval  string `toml:"schedule_interval"`
	StartupBackfill   bool   `toml:"startup_backfill"`
}

// GetScheduleInterval parses the scheduler interval; zero disables it.
func (c *IngestConfig) GetScheduleInterval() time.Duration {
	if c.ScheduleInterval == "" || c.ScheduleInterval == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.ScheduleInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"` // "console" or "json"
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3001,
		},
		Storage: StorageConfig{
			Namespace: "nse",
			Database:  "stocks",
		},
		Exchange: ExchangeConfig{
			BaseURL:   "https://archives.nseindia.com",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			Timeout:   "10s",
			RateLimit: 0,
			Timezone:  "Asia/Kolkata",
		},
		Ingest: IngestConfig{
			BackfillDays:      260,
			MaxOffset:         1000,
			AbsentRecheckDays: 7,
			ScheduleInterval:  "6h",
			StartupBackfill:   true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Outputs:    []string{"console"},
			FilePath:   "./logs/nsebhav.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NSEBHAV_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("NSEBHAV_HOST"); host != "" {
		config.Server.Host = host
	}

	for _, name := range []string{"PORT", "NSEBHAV_PORT"} {
		if port := os.Getenv(name); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	for _, name := range []string{"DATABASE_URL", "NSEBHAV_DATABASE_URL"} {
		if v := os.Getenv(name); v != "" {
			config.Storage.URL = v
		}
	}

	if level := os.Getenv("NSEBHAV_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("NSEBHAV_EXCHANGE_BASE_URL"); v != "" {
		config.Exchange.BaseURL = v
	}

	if v := os.Getenv("NSEBHAV_STARTUP_BACKFILL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Ingest.StartupBackfill = b
		}
	}
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.URL) == "" {
		return errors.New("database url is required (set DATABASE_URL)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Ingest.BackfillDays <= 0 {
		return fmt.Errorf("ingest.backfill_days must be positive, got %d", c.Ingest.BackfillDays)
	}
	if c.Ingest.MaxOffset < c.Ingest.BackfillDays {
		return fmt.Errorf("ingest.max_offset (%d) must be >= ingest.backfill_days (%d)", c.Ingest.MaxOffset, c.Ingest.BackfillDays)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
