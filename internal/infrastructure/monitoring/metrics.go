package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// File intake metrics
	FilesAccepted *prometheus.CounterVec
	FilesRejected *prometheus.CounterVec

	// Viewer lifecycle metrics
	ViewersActive  prometheus.Gauge
	ViewerOpens    *prometheus.CounterVec
	ViewerDuration *prometheus.HistogramVec
	ChangeEvents   *prometheus.CounterVec

	// Session persistence metrics
	SessionOps    *prometheus.CounterVec
	SessionBytes  prometheus.Histogram
	StorageErrors *prometheus.CounterVec

	// Storage circuit breaker metrics
	BreakerOpen        *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
	BreakerRejections  *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	Uptime    prometheus.GaugeFunc
	startTime time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds current values for the JSON health API
type Snapshot struct {
	TotalRequests int64 `json:"total_requests"`
	TotalErrors   int64 `json:"total_errors"`
	ActiveViewers int64 `json:"active_viewers"`
	SessionsSaved int64 `json:"sessions_saved"`
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "molx_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		FilesAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_files_accepted_total",
				Help: "Structure files accepted, by extension",
			},
			[]string{"extension"},
		),
		FilesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_files_rejected_total",
				Help: "Structure files rejected, by reason",
			},
			[]string{"reason"},
		),

		ViewersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "molx_viewers_active",
				Help: "Number of live viewer engine handles",
			},
		),
		ViewerOpens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_viewer_opens_total",
				Help: "Viewer initializations, by outcome (restored, loaded, failed, discarded)",
			},
			[]string{"outcome"},
		),
		ViewerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "molx_viewer_init_duration_seconds",
				Help:    "Time from Initializing to Ready",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"path"},
		),
		ChangeEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_viewer_change_events_total",
				Help: "Engine change events observed, by object kind",
			},
			[]string{"kind"},
		),

		SessionOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_session_operations_total",
				Help: "Session persistence operations, by operation and result",
			},
			[]string{"op", "result"},
		),
		SessionBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "molx_session_snapshot_bytes",
				Help:    "Size of saved viewer snapshots",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_storage_errors_total",
				Help: "Key-value storage errors, by driver and operation",
			},
			[]string{"driver", "op"},
		),

		BreakerOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "molx_storage_breaker_open",
				Help: "1 while the storage circuit breaker refuses calls",
			},
			[]string{"breaker"},
		),
		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_storage_breaker_transitions_total",
				Help: "Storage circuit breaker state changes, by target state",
			},
			[]string{"breaker", "to"},
		),
		BreakerRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_storage_breaker_rejections_total",
				Help: "Storage calls refused by the circuit breaker",
			},
			[]string{"breaker"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "molx_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molx_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "molx_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the Prometheus exposition format for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
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

// RecordFileAccepted counts an accepted structure file
func (m *Metrics) RecordFileAccepted(ext string) {
	if m == nil {
		return
	}
	m.FilesAccepted.WithLabelValues(ext).Inc()
}

// RecordFileRejected counts a rejected upload
func (m *Metrics) RecordFileRejected(reason string) {
	if m == nil {
		return
	}
	m.FilesRejected.WithLabelValues(reason).Inc()
}

// RecordViewerOpen records a finished viewer initialization
func (m *Metrics) RecordViewerOpen(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ViewerOpens.WithLabelValues(outcome).Inc()
	if outcome == "restored" || outcome == "loaded" {
		m.ViewerDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// IncViewersActive increments live viewer handles
func (m *Metrics) IncViewersActive() {
	if m == nil {
		return
	}
	m.ViewersActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveViewers++
	m.mu.Unlock()
}

// DecViewersActive decrements live viewer handles
func (m *Metrics) DecViewersActive() {
	if m == nil {
		return
	}
	m.ViewersActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveViewers--
	m.mu.Unlock()
}

// RecordChangeEvent counts an engine change event
func (m *Metrics) RecordChangeEvent(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	m.ChangeEvents.WithLabelValues(kind).Inc()
}

// RecordSessionOp counts a session persistence operation
func (m *Metrics) RecordSessionOp(op, result string) {
	if m == nil {
		return
	}
	m.SessionOps.WithLabelValues(op, result).Inc()
	if op == "save" && result == "ok" {
		m.mu.Lock()
		m.snapshot.SessionsSaved++
		m.mu.Unlock()
	}
}

// ObserveSnapshotSize records the size of a saved snapshot
func (m *Metrics) ObserveSnapshotSize(n int) {
	if m == nil {
		return
	}
	m.SessionBytes.Observe(float64(n))
}

// RecordStorageError counts a key-value backend failure
func (m *Metrics) RecordStorageError(driver, op string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(driver, op).Inc()
}

// RecordBreakerTransition records a storage breaker state change
func (m *Metrics) RecordBreakerTransition(breaker, to string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(breaker, to).Inc()
	open := 0.0
	if to == "open" {
		open = 1
	}
	m.BreakerOpen.WithLabelValues(breaker).Set(open)
}

// RecordBreakerRejection counts a storage call refused by the breaker
func (m *Metrics) RecordBreakerRejection(breaker string) {
	if m == nil {
		return
	}
	m.BreakerRejections.WithLabelValues(breaker).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// GetSnapshot returns a copy of the JSON-friendly counters
func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeSeconds returns seconds since the collector was created
func (m *Metrics) UptimeSeconds() float64 {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime).Seconds()
}
