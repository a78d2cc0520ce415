package adapters

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"

	"agent-bundles/internal/ports"
)

const metricsNamespace = "agent_bundles"

// MetricsTextfileAdapter collects fetch metrics in a private registry and
// writes them in the node_exporter textfile format on Flush.
type MetricsTextfileAdapter struct {
	Path     string
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	bundles  *prometheus.CounterVec
}

var _ ports.MetricsWriterPort = (*MetricsTextfileAdapter)(nil)

func NewMetricsTextfileAdapter(path string) *MetricsTextfileAdapter {
	registry := prometheus.NewRegistry()
	m := &MetricsTextfileAdapter{
		Path:     path,
		registry: registry,
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "fetch_attempts_total",
				Help:      "Bundle fetch attempts by outcome",
			},
			[]string{"outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "fetch_attempt_duration_seconds",
				Help:      "Duration of single bundle fetch attempts",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		bundles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "bundles_total",
				Help:      "Bundles processed by gateway membership and result",
			},
			[]string{"gateway", "result"},
		),
	}
	registry.MustRegister(m.attempts, m.latency, m.bundles)
	return m
}

func (m *MetricsTextfileAdapter) ObserveAttempt(bundle string, outcome string, elapsed time.Duration) {
	m.attempts.WithLabelValues(outcome).Inc()
	m.latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *MetricsTextfileAdapter) ObserveBundle(bundle string, gateway bool, success bool) {
	result := "failed"
	if success {
		result = "fetched"
	}
	m.bundles.WithLabelValues(strconv.FormatBool(gateway), result).Inc()
}

func (m *MetricsTextfileAdapter) Flush() error {
	if m.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.Path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create metrics directory").
			WithCause(err)
	}
	if err := prometheus.WriteToTextfile(m.Path, m.registry); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics textfile").
			WithCause(err)
	}
	return nil
}

// NoopMetrics is used when no metrics file is configured.
type NoopMetrics struct{}

var _ ports.MetricsWriterPort = NoopMetrics{}

func (NoopMetrics) ObserveAttempt(string, string, time.Duration) {}

func (NoopMetrics) ObserveBundle(string, bool, bool) {}

func (NoopMetrics) Flush() error { return nil }
