package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for evaluation cycles, filter runs,
// and gate decisions. A disabled Metrics is a no-op, so callers never need
// to branch.
type Metrics struct {
	config MetricsConfig

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	graphBuildsTotal   *prometheus.CounterVec
	decisionsTotal     *prometheus.CounterVec
	lockedResources    prometheus.Gauge
	graphResources     prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. When disabled, all record methods
// are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "lockwarden"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Filter evaluations by filter name and outcome.",
			},
			[]string{"filter", "outcome"},
		),
		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Filter evaluation duration.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"filter"},
		),
		graphBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_builds_total",
				Help:      "Resource graph builds by outcome.",
			},
			[]string{"outcome"},
		),
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Gate decisions by action and result.",
			},
			[]string{"action", "result"},
		),
		lockedResources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "locked_resources",
				Help:      "Locked resources in the last evaluated snapshot.",
			},
		),
		graphResources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_resources",
				Help:      "Resources in the last evaluated snapshot.",
			},
		),
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.graphBuildsTotal,
		m.decisionsTotal,
		m.lockedResources,
		m.graphResources,
	)

	return m
}

// Enabled reports whether metrics collection is active.
func (m *Metrics) Enabled() bool {
	return m.registry != nil
}

// RecordEvaluation records one filter evaluation.
func (m *Metrics) RecordEvaluation(filter string, matched int, duration time.Duration, err error) {
	if !m.Enabled() {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.evaluationsTotal.WithLabelValues(filter, outcome).Inc()
	if err == nil {
		m.evaluationDuration.WithLabelValues(filter).Observe(duration.Seconds())
	}
}

// RecordGraphBuild records one graph build attempt and, on success, the
// snapshot gauges.
func (m *Metrics) RecordGraphBuild(resources, locked int, err error) {
	if !m.Enabled() {
		return
	}
	if err != nil {
		m.graphBuildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.graphBuildsTotal.WithLabelValues("ok").Inc()
	m.graphResources.Set(float64(resources))
	m.lockedResources.Set(float64(locked))
}

// RecordDecision records one gate decision.
func (m *Metrics) RecordDecision(action string, allowed bool) {
	if !m.Enabled() {
		return
	}
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.decisionsTotal.WithLabelValues(action, result).Inc()
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if !m.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
