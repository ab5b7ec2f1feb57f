package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
//
// Fields carry no envconfig default tags: defaults come from Default, an
// optional TOML file is layered over them, and the environment wins last.
type Config struct {
	Workspace WorkspaceConfig
	Channel   ChannelConfig
	Editor    EditorConfig
	Server    ServerConfig
	Logging   LogConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

// WorkspaceConfig identifies the remote workspace the session binds to.
type WorkspaceConfig struct {
	URL       string `envconfig:"WORKSPACE_URL"`
	UserID    string `envconfig:"USER_ID"`
	SandboxID string `envconfig:"SANDBOX_ID"`
}

// ChannelConfig tunes the remote sync channel.
type ChannelConfig struct {
	HandshakeTimeout time.Duration `envconfig:"HANDSHAKE_TIMEOUT"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT"`
	RequestRetries   int           `envconfig:"REQUEST_RETRIES"`
	WriteTimeout     time.Duration `envconfig:"WRITE_TIMEOUT"`
	MaxFrameBytes    int           `envconfig:"MAX_FRAME_BYTES"`
	Reconnect        bool          `envconfig:"RECONNECT"`
	ReconnectMin     time.Duration `envconfig:"RECONNECT_MIN"`
	ReconnectMax     time.Duration `envconfig:"RECONNECT_MAX"`
	OutboundRPS      float64       `envconfig:"OUTBOUND_RPS"`
	OutboundBurst    int           `envconfig:"OUTBOUND_BURST"`
	BreakerFailures  uint32        `envconfig:"BREAKER_FAILURES"`
	BreakerCooldown  time.Duration `envconfig:"BREAKER_COOLDOWN"`
}

// EditorConfig holds editor session behavior.
type EditorConfig struct {
	SaveKey        string   `envconfig:"EDITOR_SAVE_KEY"`
	GenerateKey    string   `envconfig:"EDITOR_GENERATE_KEY"`
	ZoneHeight     int      `envconfig:"EDITOR_ZONE_HEIGHT"`
	LayoutDir      string   `envconfig:"EDITOR_LAYOUT_DIR"`
	ProtectedNames []string `envconfig:"EDITOR_PROTECTED_NAMES"`
}

// ServerConfig holds the reference workspace server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT"`
	Host        string   `envconfig:"HOST"`
	SeedDir     string   `envconfig:"SEED_DIR"`
	SeedIgnore  []string `envconfig:"SEED_IGNORE"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL"`
	Development bool   `envconfig:"LOG_DEV"`
}

// MetricsConfig holds the metrics endpoint configuration.
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR"`
}

// RateLimitConfig holds per-client HTTP rate limiting for the workspace server.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED"`
}

// TracingConfig controls request and message spans on the workspace server.
type TracingConfig struct {
	Enabled bool `envconfig:"TRACING_ENABLED"`
	Buffer  int  `envconfig:"TRACING_BUFFER"`
}

// FileEnv names the environment variable pointing at an optional TOML file.
const FileEnv = "EDITOR_CONFIG"

// Load builds configuration from defaults, the optional TOML file named by
// EDITOR_CONFIG, and the environment, in that order.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := ApplyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			URL: "ws://localhost:4000/ws",
		},
		Channel: ChannelConfig{
			HandshakeTimeout: 10 * time.Second,
			RequestTimeout:   10 * time.Second,
			RequestRetries:   1,
			WriteTimeout:     5 * time.Second,
			MaxFrameBytes:    8 * 1024 * 1024,
			Reconnect:        true,
			ReconnectMin:     500 * time.Millisecond,
			ReconnectMax:     10 * time.Second,
			OutboundRPS:      50,
			OutboundBurst:    100,
			BreakerFailures:  5,
			BreakerCooldown:  30 * time.Second,
		},
		Editor: EditorConfig{
			SaveKey:        "mod+s",
			GenerateKey:    "mod+g",
			ZoneHeight:     3,
			ProtectedNames: []string{".git", ".git/**"},
		},
		Server: ServerConfig{
			Port:        "4000",
			Host:        "0.0.0.0",
			SeedIgnore:  []string{".git/**", "node_modules/**"},
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		Tracing: TracingConfig{
			Enabled: true,
			Buffer:  1024,
		},
	}
}

// Validate rejects settings the session cannot run with.
func (c *Config) Validate() error {
	if c.Workspace.URL == "" {
		return fmt.Errorf("config: WORKSPACE_URL is required")
	}
	if c.Channel.RequestTimeout <= 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must be positive, got %s", c.Channel.RequestTimeout)
	}
	if c.Channel.RequestRetries < 0 {
		return fmt.Errorf("config: REQUEST_RETRIES must not be negative, got %d", c.Channel.RequestRetries)
	}
	if c.Channel.ReconnectMax < c.Channel.ReconnectMin {
		return fmt.Errorf("config: RECONNECT_MAX (%s) is below RECONNECT_MIN (%s)", c.Channel.ReconnectMax, c.Channel.ReconnectMin)
	}
	if c.Editor.ZoneHeight <= 0 {
		return fmt.Errorf("config: EDITOR_ZONE_HEIGHT must be positive, got %d", c.Editor.ZoneHeight)
	}
	return nil
}
