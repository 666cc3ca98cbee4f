// Package metrics exposes Prometheus metrics for the gateway.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	registry *prometheus.Registry

	// Turn metrics
	TurnsTotal   *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
	TurnPhase    *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Rate limit metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates a Metrics instance with a private registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "carelingo"
	}

	registry := prometheus.NewRegistry()

	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of processed turns",
		},
		[]string{"scenario", "status"},
	)

	turnDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"scenario"},
	)

	turnPhase := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_phase_duration_seconds",
			Help:      "Duration of individual turn phases in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"phase"},
	)

	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live practice sessions",
		},
	)

	sessionsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of practice sessions created",
		},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"error_type"},
	)

	rateLimitHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of rate limit hits",
		},
		[]string{"limit_type"},
	)

	registry.MustRegister(
		turnsTotal,
		turnDuration,
		turnPhase,
		sessionsActive,
		sessionsTotal,
		errorsTotal,
		rateLimitHits,
	)

	return &Metrics{
		registry:       registry,
		TurnsTotal:     turnsTotal,
		TurnDuration:   turnDuration,
		TurnPhase:      turnPhase,
		SessionsActive: sessionsActive,
		SessionsTotal:  sessionsTotal,
		ErrorsTotal:    errorsTotal,
		RateLimitHits:  rateLimitHits,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTurn records a completed or failed turn.
func (m *Metrics) RecordTurn(scenario, status string, duration time.Duration) {
	m.TurnsTotal.WithLabelValues(scenario, status).Inc()
	if status == "ok" {
		m.TurnDuration.WithLabelValues(scenario).Observe(duration.Seconds())
	}
}

// RecordPhase records a single phase of a turn.
func (m *Metrics) RecordPhase(phase string, duration time.Duration) {
	m.TurnPhase.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordSessionStart records a session being created.
func (m *Metrics) RecordSessionStart() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// RecordSessionEnd records a session being removed.
func (m *Metrics) RecordSessionEnd() {
	m.SessionsActive.Dec()
}

// RecordError records an error by canonical type.
func (m *Metrics) RecordError(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordRateLimitHit records a denied request.
func (m *Metrics) RecordRateLimitHit(limitType string) {
	m.RateLimitHits.WithLabelValues(limitType).Inc()
}
