package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "review_rating"

// Gate outcomes. Every request through the auth gate ends in exactly one.
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeRejected      = "rejected"
	OutcomeAuthenticated = "authenticated"
)

// Metrics is a prometheus.Collector for the service's own metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	authOutcomes *prometheus.CounterVec
	authFailures *prometheus.CounterVec
	peerRequests *prometheus.CounterVec
}

// NewMetrics returns a new Metrics registered on its own registry
// together with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "auth_outcomes_total",
				Help:      "Requests passing the authentication gate, by outcome.",
			}, []string{"outcome"},
		),
		authFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "auth_failures_total",
				Help:      "Rejected credentials, by failure kind.",
			}, []string{"kind"},
		),
		peerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "peer_requests_total",
				Help:      "Calls to peer services, by service and result.",
			}, []string{"service", "result"},
		),
	}
	m.registry.MustRegister(
		m,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Describe is part of the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.authOutcomes.Describe(ch)
	m.authFailures.Describe(ch)
	m.peerRequests.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.authOutcomes.Collect(ch)
	m.authFailures.Collect(ch)
	m.peerRequests.Collect(ch)
}

// RecordAuthOutcome counts one gate outcome
func (m *Metrics) RecordAuthOutcome(outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(outcome).Inc()
}

// RecordAuthFailure counts one rejected credential
func (m *Metrics) RecordAuthFailure(kind string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(kind).Inc()
}

// RecordPeerRequest counts one peer-service call
func (m *Metrics) RecordPeerRequest(service, result string) {
	if m == nil {
		return
	}
	m.peerRequests.WithLabelValues(service, result).Inc()
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
