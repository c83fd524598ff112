package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, "memory", cfg.Session.Provider)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STOCKEASE_API_BASE_URL", "https://inventory.example.com/api")
	t.Setenv("STOCKEASE_HTTP_TIMEOUT", "30s")
	t.Setenv("STOCKEASE_LOG_LEVEL", "debug")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://inventory.example.com/api", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestNewConfig_TelemetryEndpointFromEnv(t *testing.T) {
	t.Setenv("STOCKEASE_TELEMETRY_ENDPOINT", "collector.internal:4317")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "collector.internal:4317", cfg.Telemetry.Endpoint)
}

func TestNewConfig_OTELEndpointFallback(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "otel-collector:4317", cfg.Telemetry.Endpoint)
}

func TestNewConfig_StockEaseEndpointWinsOverOTEL(t *testing.T) {
	t.Setenv("STOCKEASE_TELEMETRY_ENDPOINT", "collector.internal:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "collector.internal:4317", cfg.Telemetry.Endpoint)
}

func TestNewConfig_OptionsOverrideEnvironment(t *testing.T) {
	t.Setenv("STOCKEASE_API_BASE_URL", "https://from-env.example.com/api")

	cfg, err := NewConfig(
		WithBaseURL("https://from-option.example.com/api/"),
		WithTimeout(5*time.Second),
		WithLogLevel("warn"),
	)
	require.NoError(t, err)

	// Option wins over env, and trailing slashes are trimmed
	assert.Equal(t, "https://from-option.example.com/api", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestNewConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockease.yaml")
	content := `
base_url: https://from-file.example.com/api
timeout: 45s
session:
  provider: file
  file_path: /tmp/stockease-session.json
logging:
  level: debug
  pretty: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewConfig(WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.example.com/api", cfg.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "file", cfg.Session.Provider)
	assert.Equal(t, "/tmp/stockease-session.json", cfg.Session.FilePath)
	assert.True(t, cfg.Logging.Pretty)
}

func TestNewConfig_OptionsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockease.yml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://from-file.example.com/api\n"), 0o600))

	cfg, err := NewConfig(
		WithConfigFile(path),
		WithBaseURL("https://from-option.example.com/api"),
	)
	require.NoError(t, err)
	assert.Equal(t, "https://from-option.example.com/api", cfg.BaseURL)
}

func TestNewConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"relative base URL", []Option{WithBaseURL("localhost:8080")}},
		{"empty base URL", []Option{WithBaseURL("")}},
		{"non-positive timeout", []Option{WithTimeout(0)}},
		{"unknown session provider", []Option{WithSessionProvider("vault")}},
		{"redis provider without URL", []Option{WithSessionProvider("redis")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestNewConfig_UnsupportedConfigFileExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockease.toml")
	require.NoError(t, os.WriteFile(path, []byte("base_url = \"x\"\n"), 0o600))

	_, err := NewConfig(WithConfigFile(path))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestWithRedisSession(t *testing.T) {
	cfg, err := NewConfig(WithRedisSession("redis://localhost:6379/2"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Session.Provider)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Session.RedisURL)
}
