package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for grant operations.
type Metrics struct {
	Created        prometheus.Counter
	Revoked        prometheus.Counter
	GrantRejected  *prometheus.CounterVec
	AccessChecks   *prometheus.CounterVec
	Fetches        *prometheus.CounterVec
	AccessLatency  prometheus.Histogram
}

// New registers and returns grant metrics collectors.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_grants_created_total",
			Help: "Total number of access grants created",
		}),
		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_grants_revoked_total",
			Help: "Total number of access grants revoked by their granter",
		}),
		GrantRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_grant_rejected_total",
			Help: "Total number of rejected grant calls, labeled by error code",
		}, []string{"code"}),
		AccessChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_grant_access_checks_total",
			Help: "Total number of access checks, labeled by outcome",
		}, []string{"outcome"}),
		Fetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_grant_fetches_total",
			Help: "Total number of attestation fetches through grants, labeled by outcome",
		}, []string{"outcome"}),
		AccessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_grant_access_check_latency_seconds",
			Help:    "Latency of access checks in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.Created.Inc()
}

func (m *Metrics) IncrementRevoked() {
	m.Revoked.Inc()
}

func (m *Metrics) IncrementGrantRejected(code string) {
	m.GrantRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementAccessChecks(outcome string) {
	m.AccessChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementFetches(outcome string) {
	m.Fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAccessLatency(seconds float64) {
	m.AccessLatency.Observe(seconds)
}
