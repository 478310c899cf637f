// Package metrics exposes the pigeonhole Prometheus instruments.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service instruments on a private registry. The registry
// carries no Go runtime collectors, so the exposition contains exactly the
// application series.
type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	predictionCount *prometheus.CounterVec
}

// New builds the instrument set on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "app_request_count",
		Help: "Total number of requests to repo",
	}, []string{"method", "endpoint"})

	m.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "app_request_latency_seconds",
		Help: "Latency of requests in seconds",
	}, []string{"endpoint"})

	m.predictionCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "model_prediction_count",
		Help: "Count of predictions for each class",
	}, []string{"prediction"})

	m.registry.MustRegister(m.requestCount, m.requestLatency, m.predictionCount)
	return m
}

// RecordRequest counts one request for a method and endpoint pair. Recording
// failures are logged, never propagated into request handling.
func (m *Metrics) RecordRequest(method, endpoint string) {
	c, err := m.requestCount.GetMetricWithLabelValues(method, endpoint)
	if err != nil {
		slog.Warn("metrics: request counter", "error", err)
		return
	}
	c.Inc()
}

// ObserveLatency records one request duration in seconds for endpoint.
func (m *Metrics) ObserveLatency(endpoint string, seconds float64) {
	h, err := m.requestLatency.GetMetricWithLabelValues(endpoint)
	if err != nil {
		slog.Warn("metrics: latency histogram", "error", err)
		return
	}
	h.Observe(seconds)
}

// RecordPrediction counts one model prediction by class label.
func (m *Metrics) RecordPrediction(label string) {
	c, err := m.predictionCount.GetMetricWithLabelValues(label)
	if err != nil {
		slog.Warn("metrics: prediction counter", "error", err)
		return
	}
	c.Inc()
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
