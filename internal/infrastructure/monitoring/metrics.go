package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes used as the "outcome" label
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeTimeout      = "timeout"
	OutcomeDisconnected = "disconnected"
	OutcomeRejected     = "rejected"
)

// Metrics holds all Prometheus metrics. Every method is safe to call on a
// nil *Metrics, so components can run without a registry.
type Metrics struct {
	// HTTP metrics (workspace server)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Channel metrics (editor client)
	ChannelRequests   *prometheus.CounterVec
	ChannelLatency    *prometheus.HistogramVec
	ChannelRetries    *prometheus.CounterVec
	ChannelReconnects prometheus.Counter
	ChannelFrames     *prometheus.CounterVec

	// Editor metrics
	TabsOpen          prometheus.Gauge
	FetchesSuperseded prometheus.Counter
	Saves             *prometheus.CounterVec
	DecorationUpdates prometheus.Counter
	LayoutsSaved      prometheus.Counter
	LayoutsRestored   prometheus.Counter

	// WebSocket metrics (workspace server)
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for the JSON health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for JSON responses
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector registered on reg. A nil reg
// registers on the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workspace_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Channel metrics
		ChannelRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editor_channel_requests_total",
				Help: "Total number of channel requests by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		ChannelLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "editor_channel_request_duration_seconds",
				Help:    "Time from first send to acknowledgement",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"event"},
		),
		ChannelRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editor_channel_retries_total",
				Help: "Total number of requests re-sent after a timeout",
			},
			[]string{"event"},
		),
		ChannelReconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "editor_channel_reconnects_total",
				Help: "Total number of automatic reconnects",
			},
		),
		ChannelFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editor_channel_frames_total",
				Help: "Total number of frames by direction and type",
			},
			[]string{"direction", "type"},
		),

		// Editor metrics
		TabsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "editor_tabs_open",
				Help: "Number of open tabs",
			},
		),
		FetchesSuperseded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "editor_fetches_superseded_total",
				Help: "Total number of file fetches discarded because another tab was activated",
			},
		),
		Saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editor_saves_total",
				Help: "Total number of saves by outcome",
			},
			[]string{"outcome"},
		),
		DecorationUpdates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "editor_decoration_updates_total",
				Help: "Total number of end-of-line decoration recomputes",
			},
		),
		LayoutsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "editor_layouts_saved_total",
				Help: "Total number of tab layouts saved",
			},
		),
		LayoutsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "editor_layouts_restored_total",
				Help: "Total number of tab layouts restored",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "workspace_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_ws_messages_total",
				Help: "Total number of WebSocket messages by direction and event",
			},
			[]string{"direction", "event"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "process_uptime_seconds",
			Help: "Uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordChannelRequest records a finished channel request
func (m *Metrics) RecordChannelRequest(event, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ChannelRequests.WithLabelValues(event, outcome).Inc()
	if outcome == OutcomeOK {
		m.ChannelLatency.WithLabelValues(event).Observe(duration.Seconds())
	}
}

// IncChannelRetries records a request re-sent after a timeout
func (m *Metrics) IncChannelRetries(event string) {
	if m == nil {
		return
	}
	m.ChannelRetries.WithLabelValues(event).Inc()
}

// IncChannelReconnects records an automatic reconnect
func (m *Metrics) IncChannelReconnects() {
	if m == nil {
		return
	}
	m.ChannelReconnects.Inc()
}

// RecordFrame records a frame sent ("out") or received ("in")
func (m *Metrics) RecordFrame(direction, frameType string) {
	if m == nil {
		return
	}
	m.ChannelFrames.WithLabelValues(direction, frameType).Inc()
}

// SetTabsOpen sets the number of open tabs
func (m *Metrics) SetTabsOpen(count int) {
	if m == nil {
		return
	}
	m.TabsOpen.Set(float64(count))
}

// IncFetchesSuperseded records a discarded stale fetch result
func (m *Metrics) IncFetchesSuperseded() {
	if m == nil {
		return
	}
	m.FetchesSuperseded.Inc()
}

// RecordSave records a save by outcome
func (m *Metrics) RecordSave(outcome string) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(outcome).Inc()
}

// IncDecorationUpdates records an end-of-line decoration recompute
func (m *Metrics) IncDecorationUpdates() {
	if m == nil {
		return
	}
	m.DecorationUpdates.Inc()
}

// IncLayoutsSaved increments the layouts saved counter
func (m *Metrics) IncLayoutsSaved() {
	if m == nil {
		return
	}
	m.LayoutsSaved.Inc()
}

// IncLayoutsRestored increments the layouts restored counter
func (m *Metrics) IncLayoutsRestored() {
	if m == nil {
		return
	}
	m.LayoutsRestored.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, event string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, event).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for JSON responses
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
