package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// maxConfigSize bounds the size of a config file read from disk
const maxConfigSize = 1 << 20

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
	TransportNone      = "none"
)

// Config represents the viewer configuration
type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Events      EventsConfig      `yaml:"events"`
	Emphasis    EmphasisConfig    `yaml:"emphasis"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Transcript  TranscriptConfig  `yaml:"transcript"`
	Server      ServerConfig      `yaml:"server"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Layout      map[string]any    `yaml:"layout"`
}

// BackendConfig locates the orchestrator REST API
type BackendConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int           `yaml:"burst"`
}

// AggregationConfig tunes the snapshot fan-out
type AggregationConfig struct {
	MaxConcurrentDetails int `yaml:"max_concurrent_details"` // 0 = unlimited
}

// EventsConfig selects the server-pushed event transport
type EventsConfig struct {
	Transport     string        `yaml:"transport"`
	WebSocketPath string        `yaml:"websocket_path"`
	NATSURL       string        `yaml:"nats_url"`
	NATSSubject   string        `yaml:"nats_subject"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	BufferSize    int           `yaml:"buffer_size"`
}

// EmphasisConfig controls transient edge emphasis
type EmphasisConfig struct {
	Delay time.Duration `yaml:"delay"`
	Color string        `yaml:"color"`
	Width int           `yaml:"width"`
}

// RefreshConfig schedules periodic snapshots
type RefreshConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 30s"; empty = disabled
}

// TranscriptConfig bounds the communication log
type TranscriptConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// ServerConfig configures the HTTP endpoints
type ServerConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
	Headers  string `yaml:"headers"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file, then applies defaults
// and environment overrides
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkYAML(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv returns the defaults with environment overrides applied
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:5000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Backend.Burst == 0 {
		c.Backend.Burst = 10
	}
	if c.Events.Transport == "" {
		c.Events.Transport = TransportWebSocket
	}
	if c.Events.WebSocketPath == "" {
		c.Events.WebSocketPath = "/events"
	}
	if c.Events.NATSSubject == "" {
		c.Events.NATSSubject = "orchestrator.events.>"
	}
	if c.Events.ReconnectWait == 0 {
		c.Events.ReconnectWait = time.Second
	}
	if c.Events.BufferSize == 0 {
		c.Events.BufferSize = 64
	}
	if c.Emphasis.Delay == 0 {
		c.Emphasis.Delay = time.Second
	}
	if c.Emphasis.Color == "" {
		c.Emphasis.Color = "#e74c3c"
	}
	if c.Emphasis.Width == 0 {
		c.Emphasis.Width = 4
	}
	if c.Transcript.MaxEntries == 0 {
		c.Transcript.MaxEntries = 500
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
	if c.Layout == nil {
		c.Layout = DefaultLayout()
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("AGENTVIZ_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("AGENTVIZ_EVENTS_TRANSPORT"); v != "" {
		c.Events.Transport = v
	}
	if v := os.Getenv("AGENTVIZ_NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
	if v := os.Getenv("AGENTVIZ_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGENTVIZ_HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("%w: backend.url is required", ErrInvalidConfig)
	}
	switch c.Events.Transport {
	case TransportWebSocket, TransportNone:
	case TransportNATS:
		if c.Events.NATSURL == "" {
			return fmt.Errorf("%w: events.nats_url is required for the nats transport", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown events.transport %q", ErrInvalidConfig, c.Events.Transport)
	}
	if c.Emphasis.Delay < 0 {
		return fmt.Errorf("%w: emphasis.delay must not be negative", ErrInvalidConfig)
	}
	if c.Aggregation.MaxConcurrentDetails < 0 {
		return fmt.Errorf("%w: aggregation.max_concurrent_details must not be negative", ErrInvalidConfig)
	}
	if c.Refresh.Schedule != "" {
		if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
			return fmt.Errorf("%w: refresh.schedule: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// DefaultLayout mirrors the physics settings the browser view ships with.
// The layout engine treats them as opaque options.
func DefaultLayout() map[string]any {
	return map[string]any{
		"physics": map[string]any{
			"enabled": true,
			"barnesHut": map[string]any{
				"gravitationalConstant": -2000,
				"centralGravity":        0.3,
				"springLength":          95,
				"springConstant":        0.04,
				"damping":               0.09,
				"avoidOverlap":          0.1,
			},
			"stabilization": map[string]any{
				"iterations":     1000,
				"updateInterval": 100,
			},
		},
		"interaction": map[string]any{
			"dragNodes": true,
			"dragView":  true,
			"zoomView":  true,
			"hover":     true,
		},
	}
}
