// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration, loaded once at process start
// and passed by reference into each component. No component reads ambient
// process state (environment variables) directly.
//
// Loading order (Koanf v2): built-in defaults, then an optional YAML config
// file, then environment variables (highest priority).
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Report   ReportConfig   `koanf:"report"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig configures the call-log record store.
//
// Two drivers are supported: "duckdb" runs an embedded analytical store
// (standalone mode, owns its schema, can seed mock data for development),
// and "postgres" connects to the upstream call-log database via pgx.
type DatabaseConfig struct {
	// Driver selects the record store backend: duckdb or postgres.
	Driver string `koanf:"driver"`

	// Path is the DuckDB database file (duckdb driver only).
	Path string `koanf:"path"`

	// URL is the Postgres connection string (postgres driver only).
	URL string `koanf:"url"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// ConnectTimeout bounds each connection attempt.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// QueryTimeout bounds each statement independently of ConnectTimeout.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// MaxRetries is the maximum number of fetch attempts before the last
	// error is surfaced to the caller.
	MaxRetries int `koanf:"max_retries"`

	// RetryDelay is the pause between fetch attempts.
	RetryDelay time.Duration `koanf:"retry_delay"`

	// QueriesPerSecond rate-limits record store queries across concurrent
	// requests. 0 disables the limiter.
	QueriesPerSecond float64 `koanf:"queries_per_second"`

	// SeedMockData populates the embedded store with sample sessions
	// (duckdb driver only, development).
	SeedMockData bool `koanf:"seed_mock_data"`
}

// ReportConfig configures report generation and the artifact cache.
type ReportConfig struct {
	// OutputDir is where CSV and HTML artifacts are written.
	OutputDir string `koanf:"output_dir"`

	// FreshnessTTL is the maximum age an artifact may have and still be
	// served without regeneration.
	FreshnessTTL time.Duration `koanf:"freshness_ttl"`

	// MaxUsers is the default display cap for top failing users (1-100).
	MaxUsers int `koanf:"max_users"`

	// BucketDisplayLimit caps the per-bucket member list in the HTML
	// visualization; members beyond it collapse into "+N more".
	BucketDisplayLimit int `koanf:"bucket_display_limit"`

	// ExportCSV controls whether the CSV table artifact is produced.
	ExportCSV bool `koanf:"export_csv"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// APIConfig configures the API middleware.
type APIConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work at all.
// It runs once inside Load(); components may assume a validated config.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "duckdb":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the duckdb driver")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q (expected duckdb or postgres)", c.Database.Driver)
	}

	if c.Database.MaxRetries < 1 {
		return fmt.Errorf("database.max_retries must be at least 1, got %d", c.Database.MaxRetries)
	}
	if c.Database.ConnectTimeout <= 0 {
		return fmt.Errorf("database.connect_timeout must be positive")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive")
	}

	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir must not be empty")
	}
	if c.Report.FreshnessTTL <= 0 {
		return fmt.Errorf("report.freshness_ttl must be positive")
	}
	if c.Report.MaxUsers < 1 || c.Report.MaxUsers > 100 {
		return fmt.Errorf("report.max_users must be between 1 and 100, got %d", c.Report.MaxUsers)
	}
	if c.Report.BucketDisplayLimit < 1 {
		return fmt.Errorf("report.bucket_display_limit must be at least 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

// Summary returns a loggable snapshot of the configuration with secrets
// masked. Logged once at startup.
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"database_driver":     c.Database.Driver,
		"database_configured": c.Database.Path != "" || c.Database.URL != "",
		"connect_timeout":     c.Database.ConnectTimeout.String(),
		"query_timeout":       c.Database.QueryTimeout.String(),
		"max_retries":         c.Database.MaxRetries,
		"output_dir":          c.Report.OutputDir,
		"freshness_ttl":       c.Report.FreshnessTTL.String(),
		"max_users":           c.Report.MaxUsers,
		"http_port":           c.Server.Port,
		"log_level":           c.Logging.Level,
	}
}
