package core

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the StockEase client.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// A YAML config file, when provided via WithConfigFile or
// STOCKEASE_CONFIG_FILE, is applied between layers 2 and 3.
//
// Example usage:
//
//	cfg, err := core.NewConfig(
//	    core.WithBaseURL("https://api.stockease.example/api"),
//	    core.WithTimeout(30*time.Second),
//	)
type Config struct {
	// BaseURL is the backend API prefix every endpoint path is resolved
	// against, e.g. "http://localhost:8080/api".
	BaseURL string `yaml:"base_url" env:"STOCKEASE_API_BASE_URL, default=http://localhost:8080/api"`

	// Timeout bounds each request; expiry surfaces as a network error.
	Timeout time.Duration `yaml:"timeout" env:"STOCKEASE_HTTP_TIMEOUT, default=120s"`

	// ConfigFile optionally points at a YAML file overriding env values.
	ConfigFile string `yaml:"-" env:"STOCKEASE_CONFIG_FILE"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// SessionConfig selects and configures the session storage backend.
type SessionConfig struct {
	// Provider is one of "memory", "file", "redis".
	Provider string `yaml:"provider" env:"STOCKEASE_SESSION_PROVIDER, default=memory"`
	// FilePath is the session file location for the file provider.
	FilePath string `yaml:"file_path" env:"STOCKEASE_SESSION_FILE"`
	// RedisURL configures the redis provider, e.g. "redis://localhost:6379/2".
	RedisURL string `yaml:"redis_url" env:"STOCKEASE_REDIS_URL"`
	// Namespace prefixes all redis keys to prevent collisions.
	Namespace string `yaml:"namespace" env:"STOCKEASE_SESSION_NAMESPACE, default=stockease:session"`
}

// TelemetryConfig contains observability configuration for distributed
// tracing. Telemetry is only initialized when Enabled=true. The endpoint
// should be an OTLP gRPC receiver address; when empty, spans go to stdout.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"STOCKEASE_TELEMETRY_ENABLED, default=false"`
	Endpoint    string `yaml:"endpoint" env:"STOCKEASE_TELEMETRY_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"STOCKEASE_TELEMETRY_SERVICE_NAME, default=stockease-client"`
	Insecure    bool   `yaml:"insecure" env:"STOCKEASE_TELEMETRY_INSECURE, default=true"`
}

// LoggingConfig controls the SDK's structured logging output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level" env:"STOCKEASE_LOG_LEVEL, default=info"`
	// Pretty enables human-friendly console output instead of JSON.
	Pretty bool `yaml:"pretty" env:"STOCKEASE_LOG_PRETTY, default=false"`
}

// Option is a functional option for configuring the client
type Option func(*Config)

// NewConfig creates a Config by applying defaults, environment variables,
// an optional YAML config file, and functional options, in that order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	// Honor the standard OTel variable when no StockEase-specific endpoint
	// is set.
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	// Options run twice so WithConfigFile can take effect before the file
	// is loaded, while still letting every option override file values.
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
		for _, opt := range opts {
			opt(cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the YAML file shape. Fields are pointers so that only keys
// present in the file override the current values; timeout is a duration
// string like "45s", which yaml cannot decode into time.Duration directly.
type fileConfig struct {
	BaseURL *string `yaml:"base_url"`
	Timeout *string `yaml:"timeout"`
	Session *struct {
		Provider  *string `yaml:"provider"`
		FilePath  *string `yaml:"file_path"`
		RedisURL  *string `yaml:"redis_url"`
		Namespace *string `yaml:"namespace"`
	} `yaml:"session"`
	Telemetry *struct {
		Enabled     *bool   `yaml:"enabled"`
		Endpoint    *string `yaml:"endpoint"`
		ServiceName *string `yaml:"service_name"`
		Insecure    *bool   `yaml:"insecure"`
	} `yaml:"telemetry"`
	Logging *struct {
		Level  *string `yaml:"level"`
		Pretty *bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// loadFile merges values from a YAML config file into the Config.
func (c *Config) loadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: unsupported config file extension %q", ErrInvalidConfiguration, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading config file: %v", ErrInvalidConfiguration, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: parsing config file %s: %v", ErrInvalidConfiguration, path, err)
	}

	if fc.BaseURL != nil {
		c.BaseURL = strings.TrimRight(*fc.BaseURL, "/")
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("%w: invalid timeout %q in %s: %v", ErrInvalidConfiguration, *fc.Timeout, path, err)
		}
		c.Timeout = d
	}
	if fc.Session != nil {
		if fc.Session.Provider != nil {
			c.Session.Provider = *fc.Session.Provider
		}
		if fc.Session.FilePath != nil {
			c.Session.FilePath = *fc.Session.FilePath
		}
		if fc.Session.RedisURL != nil {
			c.Session.RedisURL = *fc.Session.RedisURL
		}
		if fc.Session.Namespace != nil {
			c.Session.Namespace = *fc.Session.Namespace
		}
	}
	if fc.Telemetry != nil {
		if fc.Telemetry.Enabled != nil {
			c.Telemetry.Enabled = *fc.Telemetry.Enabled
		}
		if fc.Telemetry.Endpoint != nil {
			c.Telemetry.Endpoint = *fc.Telemetry.Endpoint
		}
		if fc.Telemetry.ServiceName != nil {
			c.Telemetry.ServiceName = *fc.Telemetry.ServiceName
		}
		if fc.Telemetry.Insecure != nil {
			c.Telemetry.Insecure = *fc.Telemetry.Insecure
		}
	}
	if fc.Logging != nil {
		if fc.Logging.Level != nil {
			c.Logging.Level = *fc.Logging.Level
		}
		if fc.Logging.Pretty != nil {
			c.Logging.Pretty = *fc.Logging.Pretty
		}
	}
	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base URL %q is not an absolute URL", ErrInvalidConfiguration, c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfiguration, c.Timeout)
	}

	switch c.Session.Provider {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("%w: unknown session provider %q", ErrInvalidConfiguration, c.Session.Provider)
	}

	if c.Session.Provider == "redis" && c.Session.RedisURL == "" {
		return fmt.Errorf("%w: redis session provider requires a redis URL", ErrInvalidConfiguration)
	}
	return nil
}

// WithBaseURL sets the backend API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithConfigFile loads additional configuration from a YAML file
func WithConfigFile(path string) Option {
	return func(c *Config) {
		c.ConfigFile = path
	}
}

// WithSessionProvider selects the session storage backend
func WithSessionProvider(provider string) Option {
	return func(c *Config) {
		c.Session.Provider = provider
	}
}

// WithSessionFile selects the file session store at the given path
func WithSessionFile(path string) Option {
	return func(c *Config) {
		c.Session.Provider = "file"
		c.Session.FilePath = path
	}
}

// WithRedisSession selects the redis session store
func WithRedisSession(redisURL string) Option {
	return func(c *Config) {
		c.Session.Provider = "redis"
		c.Session.RedisURL = redisURL
	}
}

// WithTelemetry enables tracing, exporting to the given OTLP endpoint.
// An empty endpoint falls back to stdout export for development.
func WithTelemetry(enabled bool, endpoint string) Option {
	return func(c *Config) {
		c.Telemetry.Enabled = enabled
		c.Telemetry.Endpoint = endpoint
	}
}

// WithLogLevel sets the minimum log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.Logging.Level = level
	}
}

// WithLogPretty toggles console-style log output
func WithLogPretty(pretty bool) Option {
	return func(c *Config) {
		c.Logging.Pretty = pretty
	}
}
