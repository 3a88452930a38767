package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the resolution engine. A nil or
// disabled Metrics is safe to call: every recording method no-ops.
type Metrics struct {
	config MetricsConfig

	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	attemptsTotal       *prometheus.CounterVec
	failuresClassified  *prometheus.CounterVec
	remediationActions  *prometheus.CounterVec
	versionLookupsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "toolgrab"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of tool resolution runs started",
			},
			[]string{"recipe"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of tool resolution runs completed",
			},
			[]string{"recipe", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of tool resolution runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "method_attempts_total",
				Help:      "Total number of install method attempts",
			},
			[]string{"method", "status"},
		),
		failuresClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_classified_total",
				Help:      "Total number of failures classified, by handler layer and category",
			},
			[]string{"layer", "category"},
		),
		remediationActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remediation_actions_total",
				Help:      "Total number of remediation actions decided",
			},
			[]string{"action"},
		),
		versionLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "version_lookups_total",
				Help:      "Total number of remote latest-version lookups",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.attemptsTotal,
		m.failuresClassified,
		m.remediationActions,
		m.versionLookupsTotal,
	)

	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.config.Enabled
}

// RunStarted records the start of a tool resolution run.
func (m *Metrics) RunStarted(recipe string) {
	if m.enabled() {
		m.runsStarted.WithLabelValues(recipe).Inc()
	}
}

// RunCompleted records a completed run with its terminal status.
func (m *Metrics) RunCompleted(recipe, status string, seconds float64) {
	if m.enabled() {
		m.runsCompleted.WithLabelValues(recipe, status).Inc()
		m.runDuration.WithLabelValues(status).Observe(seconds)
	}
}

// AttemptExecuted records one method attempt.
func (m *Metrics) AttemptExecuted(method, status string) {
	if m.enabled() {
		m.attemptsTotal.WithLabelValues(method, status).Inc()
	}
}

// FailureClassified records one classifier verdict.
func (m *Metrics) FailureClassified(layer, category string) {
	if m.enabled() {
		m.failuresClassified.WithLabelValues(layer, category).Inc()
	}
}

// RemediationDecided records one remediation action.
func (m *Metrics) RemediationDecided(action string) {
	if m.enabled() {
		m.remediationActions.WithLabelValues(action).Inc()
	}
}

// VersionLookup records one remote version lookup.
func (m *Metrics) VersionLookup(status string) {
	if m.enabled() {
		m.versionLookupsTotal.WithLabelValues(status).Inc()
	}
}

// Handler returns the HTTP handler exposing the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics HTTP endpoint when a listen address is
// configured. It blocks; run it in its own goroutine.
func (m *Metrics) Serve() error {
	if !m.enabled() || m.config.ListenAddress == "" {
		return nil
	}
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	return http.ListenAndServe(m.config.ListenAddress, mux)
}
