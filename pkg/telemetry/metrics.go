package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for configuration parsing.
type Metrics struct {
	config MetricsConfig

	// Ingestion metrics
	filesRead    *prometheus.CounterVec
	includes     prometheus.Counter
	readDuration prometheus.Histogram

	// Resolution metrics
	interpolationFallbacks *prometheus.CounterVec
	validationErrors       prometheus.Counter

	// Persistence metrics
	saves *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		filesRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_read_total",
				Help:      "Total number of configuration files processed, by status",
			},
			[]string{"status"},
		),
		includes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "includes_total",
				Help:      "Total number of include directives followed",
			},
		),
		readDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "read_duration_seconds",
				Help:      "Duration of configuration reads in seconds",
				Buckets:   buckets,
			},
		),
		interpolationFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interpolation_fallbacks_total",
				Help:      "Total number of interpolation references resolved outside their own section",
			},
			[]string{"source"},
		),
		validationErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_errors_total",
				Help:      "Total number of validation errors reported",
			},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Total number of configuration files written, by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.filesRead,
		m.includes,
		m.readDuration,
		m.interpolationFallbacks,
		m.validationErrors,
		m.saves,
	)

	return m, nil
}

// NewNopMetrics returns a metrics instance that records nothing.
func NewNopMetrics() *Metrics {
	return &Metrics{}
}

// RecordFileRead records a processed file with status "ok" or "skipped".
func (m *Metrics) RecordFileRead(status string) {
	if m.filesRead == nil {
		return
	}
	m.filesRead.WithLabelValues(status).Inc()
}

// RecordIncludes records followed include directives.
func (m *Metrics) RecordIncludes(n int) {
	if m.includes == nil {
		return
	}
	m.includes.Add(float64(n))
}

// ObserveRead records the duration of a read.
func (m *Metrics) ObserveRead(duration time.Duration) {
	if m.readDuration == nil {
		return
	}
	m.readDuration.Observe(duration.Seconds())
}

// RecordInterpolationFallback records a reference resolved from source.
func (m *Metrics) RecordInterpolationFallback(source string) {
	if m.interpolationFallbacks == nil {
		return
	}
	m.interpolationFallbacks.WithLabelValues(source).Inc()
}

// RecordValidationErrors records reported validation errors.
func (m *Metrics) RecordValidationErrors(n int) {
	if m.validationErrors == nil {
		return
	}
	m.validationErrors.Add(float64(n))
}

// RecordSave records a written file with status "ok" or "failed".
func (m *Metrics) RecordSave(status string) {
	if m.saves == nil {
		return
	}
	m.saves.WithLabelValues(status).Inc()
}

// Registry returns the registry metrics are registered with, nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the collected metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m.registry == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
