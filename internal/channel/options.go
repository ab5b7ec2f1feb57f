package channel

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bretbouchard/sandbox/internal/infrastructure/config"
	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
	"github.com/bretbouchard/sandbox/internal/logging"
)

// Executor runs callbacks on the caller's execution context. Post is also
// called from inside that context, when a callback disconnects or sends
// while offline, so it must not block.
type Executor interface {
	Post(fn func()) bool
}

type inline struct{}

func (inline) Post(fn func()) bool {
	fn()
	return true
}

// Options configures a Client. Zero durations, sizes and rates take the
// defaults of config.Default; Reconnect is off unless set.
type Options struct {
	URL       string
	UserID    string
	SandboxID string

	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration
	RequestRetries   int
	WriteTimeout     time.Duration
	MaxFrameBytes    int

	Reconnect    bool
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	OutboundRPS   float64
	OutboundBurst int

	BreakerFailures uint32
	BreakerCooldown time.Duration

	// Executor delivers replies and handlers; nil runs them inline on the
	// channel's own goroutines.
	Executor Executor
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
	Dialer   *websocket.Dialer
}

// OptionsFromConfig maps the workspace and channel config sections
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:              cfg.Workspace.URL,
		UserID:           cfg.Workspace.UserID,
		SandboxID:        cfg.Workspace.SandboxID,
		HandshakeTimeout: cfg.Channel.HandshakeTimeout,
		RequestTimeout:   cfg.Channel.RequestTimeout,
		RequestRetries:   cfg.Channel.RequestRetries,
		WriteTimeout:     cfg.Channel.WriteTimeout,
		MaxFrameBytes:    cfg.Channel.MaxFrameBytes,
		Reconnect:        cfg.Channel.Reconnect,
		ReconnectMin:     cfg.Channel.ReconnectMin,
		ReconnectMax:     cfg.Channel.ReconnectMax,
		OutboundRPS:      cfg.Channel.OutboundRPS,
		OutboundBurst:    cfg.Channel.OutboundBurst,
		BreakerFailures:  cfg.Channel.BreakerFailures,
		BreakerCooldown:  cfg.Channel.BreakerCooldown,
	}
}

func (o Options) withDefaults() Options {
	d := config.Default().Channel
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = d.RequestTimeout
	}
	if o.RequestRetries < 0 {
		o.RequestRetries = 0
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.MaxFrameBytes <= 0 {
		o.MaxFrameBytes = d.MaxFrameBytes
	}
	if o.ReconnectMin <= 0 {
		o.ReconnectMin = d.ReconnectMin
	}
	if o.ReconnectMax < o.ReconnectMin {
		o.ReconnectMax = d.ReconnectMax
	}
	if o.OutboundRPS <= 0 {
		o.OutboundRPS = d.OutboundRPS
	}
	if o.OutboundBurst <= 0 {
		o.OutboundBurst = d.OutboundBurst
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = d.BreakerFailures
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = d.BreakerCooldown
	}
	if o.Executor == nil {
		o.Executor = inline{}
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.HandshakeTimeout,
		}
	}
	return o
}
