// Package metrics provides the Prometheus mirror of collector traffic.
// Metric names follow the Prometheus naming conventions.
package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements types.Metrics using the Prometheus client library.
// All metric names are prefixed with the sanitized component name.
type PrometheusMetrics struct {
	namespace string

	// eventsTotal counts events by status (success/error) and endpoint
	eventsTotal *prometheus.CounterVec
	// errorsTotal counts failed events by error type and endpoint
	errorsTotal *prometheus.CounterVec
	// durationSeconds tracks send latency per endpoint
	durationSeconds *prometheus.HistogramVec
	// payloadBytes tracks encoded body sizes per endpoint
	payloadBytes *prometheus.HistogramVec
	// inProgress tracks operations currently in flight
	inProgress *prometheus.GaugeVec
}

// New creates a PrometheusMetrics instance and registers it with reg.
// A nil reg means prometheus.DefaultRegisterer. Registering the same
// component twice reuses the collectors already registered instead of
// panicking.
//
// Pre-configured metrics:
//   - {component}_events_total: Counter with labels [status, endpoint]
//   - {component}_errors_total: Counter with labels [error_type, endpoint]
//   - {component}_duration_seconds: Histogram with label [operation]
//   - {component}_payload_bytes: Histogram with label [endpoint]
//   - {component}_in_progress: Gauge with label [operation]
func New(component string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ns := Sanitize(component)
	m := &PrometheusMetrics{namespace: ns}

	m.eventsTotal = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_events_total", ns),
			Help: fmt.Sprintf("Telemetry events sent by %s", component),
		},
		[]string{"status", "endpoint"},
	))

	m.errorsTotal = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_errors_total", ns),
			Help: fmt.Sprintf("Telemetry events that failed in %s", component),
		},
		[]string{"error_type", "endpoint"},
	))

	// Default buckets: 0.005 .. 10 seconds
	m.durationSeconds = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_duration_seconds", ns),
			Help:    fmt.Sprintf("Operation duration in %s", component),
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	))

	m.payloadBytes = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_payload_bytes", ns),
			Help: fmt.Sprintf("Encoded event sizes sent by %s", component),
			Buckets: []float64{
				256,
				1024,    // 1KB
				4096,    // 4KB
				16384,   // 16KB
				65536,   // 64KB
				262144,  // 256KB
				1048576, // 1MB
			},
		},
		[]string{"endpoint"},
	))

	m.inProgress = register(reg, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_in_progress", ns),
			Help: fmt.Sprintf("Operations in progress in %s", component),
		},
		[]string{"operation"},
	))

	return m
}

// register registers c, returning the existing collector when an identical
// one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("metrics: register collector: %v", err))
	}
	return c
}

// Sanitize turns a component name into a valid metric name prefix.
func Sanitize(component string) string {
	var b strings.Builder
	for i, r := range component {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "lytix"
	}
	return b.String()
}

// RecordSuccess increments the success counter for an endpoint.
func (m *PrometheusMetrics) RecordSuccess(endpoint string) {
	m.eventsTotal.WithLabelValues("success", endpoint).Inc()
}

// RecordError increments both the events counter (with status="error") and
// the detailed error counter.
func (m *PrometheusMetrics) RecordError(endpoint string, errorType string) {
	m.eventsTotal.WithLabelValues("error", endpoint).Inc()
	m.errorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordDuration records the duration of an operation in seconds.
func (m *PrometheusMetrics) RecordDuration(operation string, duration float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordPayloadSize records the size of an encoded event body.
func (m *PrometheusMetrics) RecordPayloadSize(endpoint string, bytes int64) {
	m.payloadBytes.WithLabelValues(endpoint).Observe(float64(bytes))
}

// StartOperation increments the in-progress gauge for an operation.
//
//	metrics.StartOperation("send")
//	defer metrics.EndOperation("send")
func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

// EndOperation decrements the in-progress gauge for an operation.
func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordSuccess(string) {}
func (Noop) RecordError(string, string) {}
func (Noop) RecordDuration(string, float64) {}
func (Noop) RecordPayloadSize(string, int64) {}
func (Noop) StartOperation(string) {}
func (Noop) EndOperation(string) {}
