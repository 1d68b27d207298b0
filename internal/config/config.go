package config

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:"SERVER"`

	// Storage configuration
	Storage StorageConfig `env:"STORAGE"`

	// Logging configuration
	Logging LoggingConfig `env:"LOGGING"`

	// Metrics configuration
	Metrics MetricsConfig `env:"METRICS"`

	// Tracing configuration
	Tracing TracingConfig `env:"TRACING"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	// HTTP API address
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
}

// StorageConfig holds storage-related configuration
type StorageConfig struct {
	// Database file path; ":memory:" opens an in-memory store
	Path string `env:"PATH" envDefault:"./data/flashkv.db"`

	// Bounded wait on write-lock contention
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" envDefault:"5s"`

	// Page cache size in KiB
	CacheSizeKB int `env:"CACHE_SIZE_KB" envDefault:"64000"`

	// Background expiration sweep interval; 0 disables the reaper
	ReapInterval time.Duration `env:"REAP_INTERVAL" envDefault:"30s"`

	// Optional JSON Schema file validating structured values on write
	SchemaFile string `env:"SCHEMA_FILE"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	// Log level: "debug", "info", "warn", "error"
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Log format: "json", "text"
	Format string `env:"LOG_FORMAT" envDefault:"json"`

	// Log file path (empty for stdout)
	Output string `env:"LOG_OUTPUT" envDefault:""`

	// Enable log rotation
	Rotation bool `env:"LOG_ROTATION" envDefault:"true"`

	// Max log file size in MB
	MaxSize int `env:"LOG_MAX_SIZE" envDefault:"100"`

	// Number of backup files to keep
	MaxBackups int `env:"LOG_MAX_BACKUPS" envDefault:"7"`

	// Max age in days
	MaxAge int `env:"LOG_MAX_AGE" envDefault:"30"`
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	// Enable Prometheus metrics
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Metrics server address
	Addr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	// Enable tracing
	Enabled bool `env:"TRACING_ENABLED" envDefault:"false"`

	// OTLP endpoint
	Endpoint string `env:"TRACING_ENDPOINT" envDefault:""`

	// Exporter type: "grpc" or "http"
	ExporterType string `env:"TRACING_EXPORTER" envDefault:"grpc"`

	// Skip TLS verification on export
	Insecure bool `env:"TRACING_INSECURE" envDefault:"false"`
}

// Load loads configuration from environment variables and command line
// flags, flags winning.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	flag.StringVar(&cfg.Server.HTTPAddr, "http-addr", cfg.Server.HTTPAddr, "HTTP API address")
	flag.StringVar(&cfg.Storage.Path, "db-path", cfg.Storage.Path, "Database file path (\":memory:\" for in-memory)")
	flag.DurationVar(&cfg.Storage.ReapInterval, "reap-interval", cfg.Storage.ReapInterval, "Expiration sweep interval (0 disables)")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "Log format (json, text)")
	flag.Parse()

	if cfg.Storage.Path != ":memory:" {
		cfg.Storage.Path = filepath.Clean(cfg.Storage.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("http server address cannot be empty")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty")
	}

	if c.Storage.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout cannot be negative")
	}

	if c.Storage.ReapInterval < 0 {
		return fmt.Errorf("reap interval cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing endpoint is required when tracing is enabled")
		}
		if c.Tracing.ExporterType != "grpc" && c.Tracing.ExporterType != "http" {
			return fmt.Errorf("invalid tracing exporter: %s", c.Tracing.ExporterType)
		}
	}

	return nil
}
