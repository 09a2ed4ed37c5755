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

// Navigation outcomes used as the "outcome" label
const (
	OutcomeNavigated = "navigated"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

// Metrics holds all Prometheus metrics. Every Record/Set method is safe to
// call on a nil *Metrics so components can run unmonitored.
type Metrics struct {
	registry *prometheus.Registry

	// Navigation metrics
	Navigations    *prometheus.CounterVec
	GuardDuration  *prometheus.HistogramVec
	GuardVetoes    *prometheus.CounterVec
	OpenViewModels *prometheus.GaugeVec

	// Callback metrics
	CallbacksPending  prometheus.Gauge
	CallbacksResolved *prometheus.CounterVec
	CallbacksDropped  prometheus.Counter

	// Session metrics
	SessionsSaved    prometheus.Counter
	SessionsRestored prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON health endpoint
type Snapshot struct {
	Navigated     int64 `json:"navigated"`
	Failed        int64 `json:"failed"`
	Canceled      int64 `json:"canceled"`
	TotalRequests int64 `json:"total_requests"`
}

// NewMetrics creates a metrics collector with its own registry, so several
// instances can coexist in one process (tests, embedded dispatchers).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		Navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcore_navigations_total",
				Help: "Navigation attempts by type, mode and outcome",
			},
			[]string{"type", "mode", "outcome"},
		),
		GuardDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navcore_guard_duration_seconds",
				Help:    "Time spent awaiting navigating/closing guards",
				Buckets: []float64{.0001, .001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"type", "mode"},
		),
		GuardVetoes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcore_guard_vetoes_total",
				Help: "Navigations denied by a guard",
			},
			[]string{"type", "mode"},
		),
		OpenViewModels: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "navcore_open_view_models",
				Help: "Live opened view-models per navigation type, as of the last read",
			},
			[]string{"type"},
		),

		CallbacksPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "navcore_callbacks_pending",
				Help: "Operation callbacks awaiting a result",
			},
		),
		CallbacksResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcore_callbacks_resolved_total",
				Help: "Operation callbacks resolved by result kind",
			},
			[]string{"kind"},
		),
		CallbacksDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "navcore_callbacks_unmatched_total",
				Help: "Results set with no pending callback",
			},
		),

		SessionsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "navcore_sessions_saved_total",
				Help: "Registry snapshots saved",
			},
		),
		SessionsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "navcore_sessions_restored_total",
				Help: "Registry snapshots restored",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navcore_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "navcore_ws_connections",
				Help: "Number of active event stream connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcore_ws_messages_total",
				Help: "Event stream messages by result",
			},
			[]string{"result"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "navcore_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordNavigation records the terminal outcome of a navigation attempt
func (m *Metrics) RecordNavigation(navType, mode, outcome string) {
	if m == nil {
		return
	}
	m.Navigations.WithLabelValues(navType, mode, outcome).Inc()

	m.mu.Lock()
	switch outcome {
	case OutcomeNavigated:
		m.snapshot.Navigated++
	case OutcomeFailed:
		m.snapshot.Failed++
	case OutcomeCanceled:
		m.snapshot.Canceled++
	}
	m.mu.Unlock()
}

// RecordGuard records how long a navigating phase took and whether it vetoed
func (m *Metrics) RecordGuard(navType, mode string, duration time.Duration, allowed bool) {
	if m == nil {
		return
	}
	m.GuardDuration.WithLabelValues(navType, mode).Observe(duration.Seconds())
	if !allowed {
		m.GuardVetoes.WithLabelValues(navType, mode).Inc()
	}
}

// SetOpenViewModels sets the live view-model count for a navigation type
func (m *Metrics) SetOpenViewModels(navType string, count int) {
	if m == nil {
		return
	}
	m.OpenViewModels.WithLabelValues(navType).Set(float64(count))
}

// SetCallbacksPending sets the pending callback gauge
func (m *Metrics) SetCallbacksPending(count int) {
	if m == nil {
		return
	}
	m.CallbacksPending.Set(float64(count))
}

// RecordCallbackResolved counts one resolved callback
func (m *Metrics) RecordCallbackResolved(kind string) {
	if m == nil {
		return
	}
	m.CallbacksResolved.WithLabelValues(kind).Inc()
}

// RecordCallbackUnmatched counts a result nobody was waiting for
func (m *Metrics) RecordCallbackUnmatched() {
	if m == nil {
		return
	}
	m.CallbacksDropped.Inc()
}

// IncSessionsSaved increments the sessions saved counter
func (m *Metrics) IncSessionsSaved() {
	if m == nil {
		return
	}
	m.SessionsSaved.Inc()
}

// IncSessionsRestored increments the sessions restored counter
func (m *Metrics) IncSessionsRestored() {
	if m == nil {
		return
	}
	m.SessionsRestored.Inc()
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
	m.mu.Unlock()
}

// IncWSConnections increments event stream connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements event stream connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// RecordWSMessage records an event stream message ("sent" or "dropped")
func (m *Metrics) RecordWSMessage(result string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(result).Inc()
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	if m == nil {
		return
	}
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// Snapshot returns the running totals
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
