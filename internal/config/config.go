// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers .env, YAML and JURY_* environment variables over New().
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Draft store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// BackendURL is the base URL of the event platform API.
	BackendURL string `koanf:"backend_url"`

	// BackendToken is sent as a bearer token on every backend call when set.
	BackendToken string `koanf:"backend_token"`

	BackendTimeout time.Duration `koanf:"backend_timeout"`
	BackendRetries int           `koanf:"backend_retries"`

	// DraftDriver is one of memory, sqlite, postgres.
	DraftDriver string `koanf:"draft_driver"`
	DraftDSN    string `koanf:"draft_dsn"`

	// CriteriaTTL controls how long an event's criteria are cached.
	CriteriaTTL time.Duration `koanf:"criteria_ttl"`

	// MaxInflight caps concurrent submissions across all applications.
	MaxInflight int `koanf:"max_inflight"`

	// JWTSecret enables bearer authentication. Empty trusts the X-Judge-ID header.
	JWTSecret string `koanf:"jwt_secret"`

	// CORSOrigins lists allowed browser origins (comma separated in env).
	CORSOrigins []string `koanf:"cors_origins"`

	// ProgressRefreshInterval drives the periodic progress gauges; 0 disables it.
	ProgressRefreshInterval time.Duration `koanf:"progress_refresh_interval"`

	// S3 archive settings; archiving is disabled without a bucket.
	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	S3Prefix    string `koanf:"s3_prefix"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		ShutdownTimeout:         10 * time.Second,
		BackendURL:              "http://localhost:3000/api",
		BackendTimeout:          10 * time.Second,
		BackendRetries:          2,
		DraftDriver:             DriverMemory,
		CriteriaTTL:             5 * time.Minute,
		MaxInflight:             1000,
		CORSOrigins:             []string{"*"},
		ProgressRefreshInterval: time.Minute,
		S3Region:                "us-east-1",
		S3Prefix:                "exports",
	}
}

// ArchiveEnabled reports whether S3 archiving is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BackendURL == "":
		return fmt.Errorf("%w: backend_url must not be empty", ErrInvalidConfig)
	case c.BackendTimeout <= 0:
		return fmt.Errorf("%w: backend_timeout must be positive", ErrInvalidConfig)
	case c.BackendRetries < 0:
		return fmt.Errorf("%w: backend_retries must not be negative", ErrInvalidConfig)
	case c.ProgressRefreshInterval < 0:
		return fmt.Errorf("%w: progress_refresh_interval must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.DraftDriver) {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.DraftDSN == "" {
			return fmt.Errorf("%w: draft_dsn is required for driver %s", ErrInvalidConfig, c.DraftDriver)
		}
	default:
		return fmt.Errorf("%w: unknown draft_driver %q", ErrInvalidConfig, c.DraftDriver)
	}
	return nil
}
