// Package metrics exposes Prometheus instrumentation for the processor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the processor's metric families on a private registry.
type Collector struct {
	registry *prometheus.Registry

	transactionsCreated prometheus.Counter
	transitions         *prometheus.CounterVec
	fraudEvaluations    *prometheus.CounterVec
	fraudDuration       prometheus.Histogram
	alertsRaised        prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewCollector builds a Collector with its own registry so tests can
// instantiate it repeatedly without duplicate registration panics.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		transactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "processor_transactions_created_total",
			Help: "Transactions accepted and persisted in pending state.",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_transaction_transitions_total",
			Help: "Status transitions applied, by target status.",
		}, []string{"status"}),
		fraudEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_fraud_evaluations_total",
			Help: "Fraud evaluations completed, by resulting risk level.",
		}, []string{"risk_level"}),
		fraudDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "processor_fraud_evaluation_duration_seconds",
			Help:    "Fraud evaluation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		alertsRaised: factory.NewCounter(prometheus.CounterOpts{
			Name: "processor_fraud_alerts_total",
			Help: "Fraud alerts raised.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_http_requests_total",
			Help: "HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "processor_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// TransactionCreated counts a persisted transaction.
func (c *Collector) TransactionCreated() {
	c.transactionsCreated.Inc()
}

// TransactionTransitioned counts an applied status transition.
func (c *Collector) TransactionTransitioned(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

// FraudEvaluated counts a completed evaluation and, when an alert was
// raised, the alert itself.
func (c *Collector) FraudEvaluated(riskLevel string, alerted bool) {
	c.fraudEvaluations.WithLabelValues(riskLevel).Inc()
	if alerted {
		c.alertsRaised.Inc()
	}
}

// FraudEvaluationObserved records the latency of one evaluation.
func (c *Collector) FraudEvaluationObserved(seconds float64) {
	c.fraudDuration.Observe(seconds)
}

// HTTPRequest records one served request.
func (c *Collector) HTTPRequest(method, route, code string, seconds float64) {
	c.httpRequests.WithLabelValues(method, route, code).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
