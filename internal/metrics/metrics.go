// Package metrics exposes import measurements to Prometheus. A Manager is
// handed to the engine as its observer and serves /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the import metrics and the registry they live in.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	runtime          bool
	registry         *prometheus.Registry

	imports        *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	rows           *prometheus.CounterVec
	warnings       *prometheus.CounterVec
	auditEntries   prometheus.Counter
}

// Option configures a Manager.
type Option func(*Manager)

func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

func WithSubsystem(s string) Option {
	return func(m *Manager) { m.subsystem = s }
}

// WithHistogramBuckets sets the import duration buckets, in seconds.
func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.histogramBuckets = b
		}
	}
}

// WithRegistry registers into r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithRuntimeMetrics adds the Go runtime and process collectors.
func WithRuntimeMetrics(enabled bool) Option {
	return func(m *Manager) { m.runtime = enabled }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lanes",
		subsystem:        "import",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.imports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Import calls by profile, mode and outcome",
	}, []string{"profile", "mode", "outcome"})

	m.importDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_seconds",
		Help:      "Wall time of import calls",
		Buckets:   m.histogramBuckets,
	}, []string{"profile", "mode"})

	m.rows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_total",
		Help:      "Rows by outcome: matched, unmatched, updated, skipped",
	}, []string{"outcome"})

	m.warnings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "warnings_total",
		Help:      "Warnings raised by type",
	}, []string{"type"})

	m.auditEntries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_entries_total",
		Help:      "Audit entries written by committed imports",
	})

	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func (m *Manager) ImportFinished(profile, mode, outcome string, elapsed time.Duration) {
	m.imports.WithLabelValues(profile, mode, outcome).Inc()
	m.importDuration.WithLabelValues(profile, mode).Observe(elapsed.Seconds())
}

func (m *Manager) RowsProcessed(outcome string, n int) {
	if n > 0 {
		m.rows.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *Manager) WarningRaised(kind string) {
	m.warnings.WithLabelValues(kind).Inc()
}

func (m *Manager) AuditWritten(n int) {
	if n > 0 {
		m.auditEntries.Add(float64(n))
	}
}

// TrackActiveImports exports fn as a gauge of commits currently running.
func (m *Manager) TrackActiveImports(fn func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_commits",
		Help:      "Commits currently holding a limiter slot",
	}, func() float64 { return float64(fn()) })
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }
