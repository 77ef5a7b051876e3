// Package metrics defines Prometheus metrics for switch operations.
//
// Metric naming follows Prometheus conventions:
//   - switchconnector_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
	OutcomeError       = "error"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// TransportAttempts counts driver calls by protocol, operation and outcome.
	TransportAttempts *prometheus.CounterVec
	// Fallbacks counts operations that moved on to the secondary transport.
	Fallbacks *prometheus.CounterVec
	// OperationDuration is a histogram of end-to-end operation time.
	OperationDuration *prometheus.HistogramVec
}

// New creates and registers the collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TransportAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchconnector_transport_attempts_total",
				Help: "Total driver calls by protocol, operation and outcome.",
			},
			[]string{"protocol", "operation", "outcome"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchconnector_fallbacks_total",
				Help: "Total operations retried on the secondary transport.",
			},
			[]string{"operation"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "switchconnector_operation_duration_seconds",
				Help:    "Duration of switch operations in seconds, fallback included.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"operation"},
		),
	}
	m.registry.MustRegister(
		m.TransportAttempts,
		m.Fallbacks,
		m.OperationDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAttempt records one driver call.
func (m *Metrics) ObserveAttempt(protocol, operation, outcome string) {
	if m == nil {
		return
	}
	m.TransportAttempts.WithLabelValues(protocol, operation, outcome).Inc()
}

// ObserveFallback records a switch to the secondary transport.
func (m *Metrics) ObserveFallback(operation string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(operation).Inc()
}

// ObserveDuration records the total time of an operation.
func (m *Metrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
