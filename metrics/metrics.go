// Package metrics exposes Prometheus collectors for the planning pipeline.
// All methods are safe on a nil *Metrics so tests can omit it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wayfarer"

type Metrics struct {
	registry *prometheus.Registry

	plans        *prometheus.CounterVec
	adjustments  *prometheus.CounterVec
	migrations   *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Plan requests by outcome.",
		}, []string{"outcome"}),
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustments_total",
			Help:      "Adjustment requests by outcome.",
		}, []string{"outcome"}),
		migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migrated_itineraries_total",
			Help:      "Itineraries copied from sessions to accounts, by result.",
		}, []string{"result"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_seconds",
			Help:      "Latency of model calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}, []string{"component", "success"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status class.",
		}, []string{"method", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.plans, m.adjustments, m.migrations, m.modelLatency, m.httpRequests,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PlanOutcome(outcome string) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AdjustOutcome(outcome string) {
	if m == nil {
		return
	}
	m.adjustments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Migrated(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.migrations.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) ModelCall(component string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	m.modelLatency.WithLabelValues(component, label).Observe(d.Seconds())
}

func (m *Metrics) HTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 400:
		class = "3xx"
	case status < 500:
		class = "4xx"
	}
	m.httpRequests.WithLabelValues(method, class).Inc()
}
