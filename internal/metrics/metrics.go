// Package metrics provides Prometheus metrics for mission control.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the coordinator.
type Metrics struct {
	DecisionsTotal    *prometheus.CounterVec
	DispatchTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	DispatchQueueSize prometheus.Gauge
	ErrorsTotal       *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mc_decisions_total",
				Help: "Total number of suggestion decisions by action and result.",
			},
			[]string{"action", "result"},
		),
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mc_dispatch_total",
				Help: "Total number of execution dispatches by suggestion type and result.",
			},
			[]string{"type", "result"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mc_http_request_duration_seconds",
				Help:    "HTTP request processing duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		DispatchQueueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mc_dispatch_queue_size",
				Help: "Number of dispatch jobs currently queued.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mc_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.DecisionsTotal)
	reg.MustRegister(m.DispatchTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.DispatchQueueSize)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDecision increments the decision counter.
func (m *Metrics) RecordDecision(action, result string) {
	m.DecisionsTotal.WithLabelValues(action, result).Inc()
}

// RecordDispatch increments the dispatch counter.
func (m *Metrics) RecordDispatch(suggestionType, result string) {
	m.DispatchTotal.WithLabelValues(suggestionType, result).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}

// ObserveDuration records request duration for a route.
func (m *Metrics) ObserveDuration(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}
