package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for TOML files. Durations are strings
// ("750ms", "10s") and every field is optional.
type fileConfig struct {
	Workspace struct {
		URL       *string `toml:"url"`
		UserID    *string `toml:"user_id"`
		SandboxID *string `toml:"sandbox_id"`
	} `toml:"workspace"`
	Channel struct {
		HandshakeTimeout *string  `toml:"handshake_timeout"`
		RequestTimeout   *string  `toml:"request_timeout"`
		RequestRetries   *int     `toml:"request_retries"`
		WriteTimeout     *string  `toml:"write_timeout"`
		MaxFrameBytes    *int     `toml:"max_frame_bytes"`
		Reconnect        *bool    `toml:"reconnect"`
		ReconnectMin     *string  `toml:"reconnect_min"`
		ReconnectMax     *string  `toml:"reconnect_max"`
		OutboundRPS      *float64 `toml:"outbound_rps"`
		OutboundBurst    *int     `toml:"outbound_burst"`
		BreakerFailures  *uint32  `toml:"breaker_failures"`
		BreakerCooldown  *string  `toml:"breaker_cooldown"`
	} `toml:"channel"`
	Editor struct {
		SaveKey        *string  `toml:"save_key"`
		GenerateKey    *string  `toml:"generate_key"`
		ZoneHeight     *int     `toml:"zone_height"`
		LayoutDir      *string  `toml:"layout_dir"`
		ProtectedNames []string `toml:"protected_names"`
	} `toml:"editor"`
	Logging struct {
		Level       *string `toml:"level"`
		Development *bool   `toml:"development"`
	} `toml:"logging"`
	Metrics struct {
		Addr *string `toml:"addr"`
	} `toml:"metrics"`
}

// ApplyFile overlays the TOML file at path onto cfg.
func ApplyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return ApplyTOML(cfg, data)
}

// ApplyTOML overlays TOML data onto cfg. Keys absent from data keep their
// current value.
func ApplyTOML(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&cfg.Workspace.URL, fc.Workspace.URL)
	setString(&cfg.Workspace.UserID, fc.Workspace.UserID)
	setString(&cfg.Workspace.SandboxID, fc.Workspace.SandboxID)

	ch := &cfg.Channel
	durations := []struct {
		dst *time.Duration
		src *string
		key string
	}{
		{&ch.HandshakeTimeout, fc.Channel.HandshakeTimeout, "channel.handshake_timeout"},
		{&ch.RequestTimeout, fc.Channel.RequestTimeout, "channel.request_timeout"},
		{&ch.WriteTimeout, fc.Channel.WriteTimeout, "channel.write_timeout"},
		{&ch.ReconnectMin, fc.Channel.ReconnectMin, "channel.reconnect_min"},
		{&ch.ReconnectMax, fc.Channel.ReconnectMax, "channel.reconnect_max"},
		{&ch.BreakerCooldown, fc.Channel.BreakerCooldown, "channel.breaker_cooldown"},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("config file: %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if fc.Channel.RequestRetries != nil {
		ch.RequestRetries = *fc.Channel.RequestRetries
	}
	if fc.Channel.MaxFrameBytes != nil {
		ch.MaxFrameBytes = *fc.Channel.MaxFrameBytes
	}
	if fc.Channel.Reconnect != nil {
		ch.Reconnect = *fc.Channel.Reconnect
	}
	if fc.Channel.OutboundRPS != nil {
		ch.OutboundRPS = *fc.Channel.OutboundRPS
	}
	if fc.Channel.OutboundBurst != nil {
		ch.OutboundBurst = *fc.Channel.OutboundBurst
	}
	if fc.Channel.BreakerFailures != nil {
		ch.BreakerFailures = *fc.Channel.BreakerFailures
	}

	setString(&cfg.Editor.SaveKey, fc.Editor.SaveKey)
	setString(&cfg.Editor.GenerateKey, fc.Editor.GenerateKey)
	setString(&cfg.Editor.LayoutDir, fc.Editor.LayoutDir)
	if fc.Editor.ZoneHeight != nil {
		cfg.Editor.ZoneHeight = *fc.Editor.ZoneHeight
	}
	if fc.Editor.ProtectedNames != nil {
		cfg.Editor.ProtectedNames = fc.Editor.ProtectedNames
	}

	setString(&cfg.Logging.Level, fc.Logging.Level)
	if fc.Logging.Development != nil {
		cfg.Logging.Development = *fc.Logging.Development
	}
	setString(&cfg.Metrics.Addr, fc.Metrics.Addr)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
