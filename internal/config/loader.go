package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables, applies defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct populates struct fields from their env tags, recursing into
// nested structs. Every bad value is reported, not just the first.
func loadStruct(v reflect.Value) error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		value, ok := lookup(name, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("required environment variable %s is not set", name))
				continue
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fv, value); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", name, value, err))
		}
	}

	return errors.Join(errs...)
}

// lookup returns the first non-empty value of name or alt.
func lookup(name, alt string) (string, bool) {
	if v := os.Getenv(name); v != "" {
		return v, true
	}
	if alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v, true
		}
	}
	return "", false
}

func setField(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks the configuration and reports every failure at once.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		add("SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Database.Enabled() {
		if c.Database.MaxConns <= 0 {
			add("DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			add("DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			add("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)
		}
	}

	if c.Jobs.MaxUploadSize <= 0 {
		add("JOBS_MAX_UPLOAD_SIZE must be positive")
	}
	if c.Jobs.MaxConcurrent <= 0 {
		add("JOBS_MAX_CONCURRENT must be positive")
	}
	if c.Jobs.MaxWaitTime <= 0 {
		add("JOBS_MAX_WAIT_TIME must be positive")
	}
	if c.Jobs.Timeout <= 0 {
		add("JOBS_TIMEOUT must be positive")
	}
	if c.Jobs.ChunkSize < 4 {
		add("JOBS_CHUNK_SIZE (%d) must be at least 4", c.Jobs.ChunkSize)
	}
	if c.Jobs.Retention <= 0 {
		add("JOBS_RESULT_RETENTION must be positive")
	}

	switch strings.ToLower(c.Codec.DecodeMode) {
	case "lenient", "strict":
	default:
		add("CODEC_DECODE_MODE (%q) must be one of: lenient, strict", c.Codec.DecodeMode)
	}
	if c.Codec.WrapColumn < 0 {
		add("CODEC_WRAP_COLUMN must be non-negative")
	}
	if c.Codec.SniffSampleSize < 4 {
		add("CODEC_SNIFF_SAMPLE_SIZE (%d) must be at least 4", c.Codec.SniffSampleSize)
	}
	if c.Codec.MaxTextSize <= 0 {
		add("CODEC_MAX_TEXT_SIZE must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		add("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.JobLimit <= 0 {
		add("RATE_LIMIT_JOBS must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		add("REQUIRE_API_KEY is true but API_KEYS is empty")
	}

	if c.Sweep.Interval <= 0 {
		add("SWEEP_INTERVAL must be positive")
	}
	if c.Sweep.MaxAge < c.Jobs.Retention {
		add("SWEEP_MAX_AGE (%s) must be >= JOBS_RESULT_RETENTION (%s)", c.Sweep.MaxAge, c.Jobs.Retention)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a loggable summary with the database URL masked.
func (c *Config) String() string {
	db := "disabled"
	if c.Database.Enabled() {
		db = "[MASKED]"
	}
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Database: %s, Jobs: {MaxConcurrent: %d, ChunkSize: %d, SpoolDir: %q}, Codec: {DecodeMode: %q, WrapColumn: %d}, Rate: {Enabled: %v}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), db,
		c.Jobs.MaxConcurrent, c.Jobs.ChunkSize, c.Jobs.SpoolDir,
		c.Codec.DecodeMode, c.Codec.WrapColumn,
		c.Rate.Enabled,
		c.Logging.Level, c.Logging.Format,
	)
}
