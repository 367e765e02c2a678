package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the daemon's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Program metrics
	Transitions   *prometheus.CounterVec
	ActiveProgram *prometheus.GaugeVec
	Reloads       *prometheus.CounterVec

	// Action metrics
	ActionDuration *prometheus.HistogramVec
	ActionFailures *prometheus.CounterVec

	// Low-level API metrics
	LowLevelCalls *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "window_opener_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "window_opener_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "window_opener_program_transitions_total",
				Help: "Program starts and stops",
			},
			[]string{"program", "transition"},
		),
		ActiveProgram: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "window_opener_program_active",
				Help: "1 for the active program, 0 otherwise",
			},
			[]string{"program"},
		),
		Reloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "window_opener_config_reloads_total",
				Help: "Configuration reload attempts",
			},
			[]string{"result"},
		),
		ActionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "window_opener_action_duration_seconds",
				Help:    "Duration of program actions",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "endpoint"},
		),
		ActionFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "window_opener_action_failures_total",
				Help: "Program actions that reported failure",
			},
			[]string{"method", "endpoint"},
		),
		LowLevelCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "window_opener_lowlevel_calls_total",
				Help: "Low-level API calls by method and outcome",
			},
			[]string{"method", "result"},
		),
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTransition records a program start or stop and updates the active gauge.
func (m *Metrics) RecordTransition(program, transition string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(program, transition).Inc()
	switch transition {
	case "start":
		m.ActiveProgram.WithLabelValues(program).Set(1)
	case "stop":
		m.ActiveProgram.WithLabelValues(program).Set(0)
	}
}

// RecordAction records one executed action.
func (m *Metrics) RecordAction(method, endpoint string, duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.ActionDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if !ok {
		m.ActionFailures.WithLabelValues(method, endpoint).Inc()
	}
}

// RecordLowLevel records one low-level API call.
func (m *Metrics) RecordLowLevel(method string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.LowLevelCalls.WithLabelValues(method, result).Inc()
}

// RecordReload records a configuration reload attempt.
func (m *Metrics) RecordReload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "refused"
	}
	m.Reloads.WithLabelValues(result).Inc()
}
