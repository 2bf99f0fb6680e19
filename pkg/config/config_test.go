package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_FileSizeLimit(t *testing.T) {
	path := writeConfig(t, strings.Repeat("x: value\n", 200000)) // ~1.6MB

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: http://orchestrator:5000
  timeout: 3s
aggregation:
  max_concurrent_details: 4
events:
  transport: nats
  nats_url: nats://localhost:4222
emphasis:
  delay: 1500ms
refresh:
  schedule: "@every 30s"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://orchestrator:5000", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 4, cfg.Aggregation.MaxConcurrentDetails)
	assert.Equal(t, TransportNATS, cfg.Events.Transport)
	assert.Equal(t, 1500*time.Millisecond, cfg.Emphasis.Delay)
	assert.Equal(t, "@every 30s", cfg.Refresh.Schedule)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.Backend.URL)
	assert.Equal(t, TransportWebSocket, cfg.Events.Transport)
	assert.Equal(t, "/events", cfg.Events.WebSocketPath)
	assert.Equal(t, "orchestrator.events.>", cfg.Events.NATSSubject)
	assert.Equal(t, time.Second, cfg.Emphasis.Delay)
	assert.Equal(t, "#e74c3c", cfg.Emphasis.Color)
	assert.Equal(t, 4, cfg.Emphasis.Width)
	assert.Equal(t, 500, cfg.Transcript.MaxEntries)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Contains(t, cfg.Layout, "physics")
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AGENTVIZ_BACKEND_URL", "http://env:9000")
	t.Setenv("AGENTVIZ_HTTP_PORT", "9999")

	cfg, err := LoadConfig(writeConfig(t, "backend:\n  url: http://file:5000\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000", cfg.Backend.URL)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadConfig_BadPortEnv(t *testing.T) {
	t.Setenv("AGENTVIZ_HTTP_PORT", "eighty")

	_, err := LoadConfig(writeConfig(t, "{}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENTVIZ_HTTP_PORT")
}

func TestLoadConfig_NonexistentFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/agentviz.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "backend: [[[\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty backend url", mutate: func(c *Config) { c.Backend.URL = "" }},
		{name: "unknown transport", mutate: func(c *Config) { c.Events.Transport = "smoke-signals" }},
		{name: "nats without url", mutate: func(c *Config) { c.Events.Transport = TransportNATS }},
		{name: "negative delay", mutate: func(c *Config) { c.Emphasis.Delay = -time.Second }},
		{name: "negative concurrency", mutate: func(c *Config) { c.Aggregation.MaxConcurrentDetails = -1 }},
		{name: "bad schedule", mutate: func(c *Config) { c.Refresh.Schedule = "every now and then" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "http://saved:5000"
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved:5000", loaded.Backend.URL)
	assert.Equal(t, cfg.Emphasis, loaded.Emphasis)
}
