// Package metrics provides Prometheus metrics for gateway calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RequestsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeAPIError = "api_error"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Metrics contains all gateway client metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec   // Calls by operation and outcome
	RequestDuration *prometheus.HistogramVec // Round-trip latency by operation
	APIErrorsTotal  *prometheus.CounterVec   // Non-success responses by operation and status code
	CircuitOpen     prometheus.Gauge         // 1 while the transport breaker is open
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "braintree_requests_total",
			Help: "Total number of gateway operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "braintree_request_duration_seconds",
			Help:    "Duration of gateway operations including body decode",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),

		APIErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "braintree_api_errors_total",
			Help: "Total number of non-success gateway responses by status code",
		}, []string{"operation", "status"}),

		CircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "braintree_circuit_open",
			Help: "Whether the transport circuit breaker is currently open",
		}),
	}
}

// ObserveRequest records one finished operation. Safe to call on a nil receiver.
func (m *Metrics) ObserveRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordAPIError counts a non-success response status.
func (m *Metrics) RecordAPIError(operation, status string) {
	if m == nil {
		return
	}
	m.APIErrorsTotal.WithLabelValues(operation, status).Inc()
}

// SetCircuitOpen updates the breaker gauge.
func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
