// Package config loads beb64 settings from environment variables. Every value
// has a default except where noted, and Load validates the whole set so that
// a misconfigured deployment fails on startup with every problem listed.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Jobs     JobsConfig
	Codec    CodecConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Sweep    SweepConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout stays 0 so progress streams and downloads are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout applies to the short JSON endpoints only.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional job history database.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty disables job history.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a history database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// JobsConfig holds background transcode job settings.
type JobsConfig struct {
	// MaxUploadSize is the largest accepted job input in bytes (default: 1GiB)
	MaxUploadSize int64 `env:"JOBS_MAX_UPLOAD_SIZE" default:"1073741824"`

	MaxConcurrent int           `env:"JOBS_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"JOBS_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"JOBS_TIMEOUT" default:"30m"`

	// ChunkSize is the read size used by the transcoder (default: 1MiB)
	ChunkSize int `env:"JOBS_CHUNK_SIZE" default:"1048576"`

	// SpoolDir holds job inputs and results. Empty means a beb64 directory
	// under the system temp dir.
	SpoolDir string `env:"JOBS_SPOOL_DIR"`

	// Retention is how long a finished job and its result stay available.
	Retention time.Duration `env:"JOBS_RESULT_RETENTION" default:"15m"`
}

// CodecConfig holds transcoding defaults.
type CodecConfig struct {
	// DecodeMode is "lenient" or "strict".
	DecodeMode string `env:"CODEC_DECODE_MODE" default:"lenient"`

	// WrapColumn wraps encoded job output; 0 disables wrapping.
	WrapColumn int `env:"CODEC_WRAP_COLUMN" default:"0"`

	SniffSampleSize int `env:"CODEC_SNIFF_SAMPLE_SIZE" default:"4096"`

	// MaxTextSize bounds the inline JSON endpoints (default: 10MiB)
	MaxTextSize int64 `env:"CODEC_MAX_TEXT_SIZE" default:"10485760"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// JobLimit is the per-minute limit for job submissions.
	JobLimit int `env:"RATE_LIMIT_JOBS" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
	EnableCSP      bool     `env:"SECURITY_ENABLE_CSP" default:"true"`

	// APIKeys are accepted in the X-API-Key header.
	APIKeys       []string `env:"API_KEYS"`
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// SweepConfig controls removal of abandoned spool files.
type SweepConfig struct {
	Interval time.Duration `env:"SWEEP_INTERVAL" default:"10m"`
	MaxAge   time.Duration `env:"SWEEP_MAX_AGE" default:"1h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
