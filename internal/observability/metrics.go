// Package observability records per-operation Prometheus metrics for
// probcal runs and exports them as a node-exporter textfile.
package observability

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/probcal/internal/cube"
)

const namespace = "probcal"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the counters and histograms for cube operations. Each
// Metrics owns a private registry so several can coexist in one process.
type Metrics struct {
	Operations *prometheus.CounterVec   // labels: operation, outcome={success,error}
	Errors     *prometheus.CounterVec   // labels: operation, kind
	Duration   *prometheus.HistogramVec // labels: operation
	Elements   *prometheus.CounterVec   // labels: operation

	registry *prometheus.Registry
	clock    clockwork.Clock
}

// NewMetrics creates and registers all operation metrics. A nil clock
// means real time.
func NewMetrics(clock clockwork.Clock) *Metrics {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Cube operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed cube operations by error kind.",
		}, []string{"operation", "kind"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of a cube operation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"}),
		Elements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_elements_total",
			Help:      "Data elements written by successful operations.",
		}, []string{"operation"}),
		registry: prometheus.NewRegistry(),
		clock:    clock,
	}
	m.registry.MustRegister(m.Operations, m.Errors, m.Duration, m.Elements)
	return m
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe runs fn as the named operation and records its outcome, duration
// and output size.
func (m *Metrics) Observe(operation string, fn func() (*cube.Cube, error)) (*cube.Cube, error) {
	start := m.clock.Now()
	out, err := fn()
	m.Duration.WithLabelValues(operation).Observe(m.clock.Since(start).Seconds())

	if err != nil {
		m.Operations.WithLabelValues(operation, OutcomeError).Inc()
		kind, ok := cube.KindOf(err)
		if !ok {
			kind = "UNKNOWN"
		}
		m.Errors.WithLabelValues(operation, string(kind)).Inc()
		return nil, err
	}
	m.Operations.WithLabelValues(operation, OutcomeSuccess).Inc()
	if out != nil {
		m.Elements.WithLabelValues(operation).Add(float64(len(out.Data)))
	}
	return out, nil
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
