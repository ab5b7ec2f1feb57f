package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Workspace config
	assert.Equal(t, "ws://localhost:4000/ws", cfg.Workspace.URL)

	// Channel config
	assert.Equal(t, 10*time.Second, cfg.Channel.RequestTimeout)
	assert.Equal(t, 1, cfg.Channel.RequestRetries)
	assert.True(t, cfg.Channel.Reconnect)

	// Editor config
	assert.Equal(t, "mod+s", cfg.Editor.SaveKey)
	assert.Equal(t, "mod+g", cfg.Editor.GenerateKey)
	assert.Equal(t, 3, cfg.Editor.ZoneHeight)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"WORKSPACE_URL":      "ws://remote:4000/ws",
		"USER_ID":            "user_1",
		"SANDBOX_ID":         "sb_1",
		"REQUEST_TIMEOUT":    "2s",
		"REQUEST_RETRIES":    "3",
		"RECONNECT":          "false",
		"EDITOR_ZONE_HEIGHT": "5",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"PORT":               "9000",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://remote:4000/ws", cfg.Workspace.URL)
	assert.Equal(t, "user_1", cfg.Workspace.UserID)
	assert.Equal(t, "sb_1", cfg.Workspace.SandboxID)
	assert.Equal(t, 2*time.Second, cfg.Channel.RequestTimeout)
	assert.Equal(t, 3, cfg.Channel.RequestRetries)
	assert.False(t, cfg.Channel.Reconnect)
	assert.Equal(t, 5, cfg.Editor.ZoneHeight)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "9000", cfg.Server.Port)

	// untouched values keep their defaults
	assert.Equal(t, "mod+s", cfg.Editor.SaveKey)
	assert.Equal(t, 10*time.Second, cfg.Channel.HandshakeTimeout)
}

func TestFileIsOverriddenByEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.toml")
	data := []byte(`
[workspace]
url = "ws://file:4000/ws"
sandbox_id = "from-file"

[channel]
request_timeout = "750ms"
reconnect = false

[editor]
generate_key = "mod+k"
protected_names = [".env"]
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv(FileEnv, path)
	t.Setenv("SANDBOX_ID", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://file:4000/ws", cfg.Workspace.URL)
	assert.Equal(t, "from-env", cfg.Workspace.SandboxID)
	assert.Equal(t, 750*time.Millisecond, cfg.Channel.RequestTimeout)
	assert.False(t, cfg.Channel.Reconnect)
	assert.Equal(t, "mod+k", cfg.Editor.GenerateKey)
	assert.Equal(t, []string{".env"}, cfg.Editor.ProtectedNames)
	assert.Equal(t, "mod+s", cfg.Editor.SaveKey)
}

func TestApplyTOMLRejectsBadDuration(t *testing.T) {
	cfg := Default()
	err := ApplyTOML(cfg, []byte("[channel]\nrequest_timeout = \"soon\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel.request_timeout")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.Workspace.URL = "" }},
		{"zero timeout", func(c *Config) { c.Channel.RequestTimeout = 0 }},
		{"negative retries", func(c *Config) { c.Channel.RequestRetries = -1 }},
		{"inverted backoff", func(c *Config) { c.Channel.ReconnectMax = time.Millisecond }},
		{"zero zone height", func(c *Config) { c.Editor.ZoneHeight = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadOrDefaultFallsBackOnError(t *testing.T) {
	t.Setenv("REQUEST_RETRIES", "many")

	cfg := LoadOrDefault()

	assert.Equal(t, 1, cfg.Channel.RequestRetries)
}
