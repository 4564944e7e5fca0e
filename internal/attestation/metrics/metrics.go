package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for attestation operations.
type Metrics struct {
	Issued          *prometheus.CounterVec
	Revoked         prometheus.Counter
	IssueRejected   *prometheus.CounterVec
	ValidityChecks  prometheus.Counter
	IssueLatency    prometheus.Histogram
}

// New registers and returns attestation metrics collectors.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_attestations_issued_total",
			Help: "Total number of attestations issued, labeled by check type",
		}, []string{"check_type"}),
		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_attestations_revoked_total",
			Help: "Total number of attestations revoked by their issuer",
		}),
		IssueRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_attestation_issue_rejected_total",
			Help: "Total number of rejected issue calls, labeled by error code",
		}, []string{"code"}),
		ValidityChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_attestation_validity_checks_total",
			Help: "Total number of is-valid lookups",
		}),
		IssueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_attestation_issue_latency_seconds",
			Help:    "Latency of attestation issue operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementIssued(checkType string) {
	m.Issued.WithLabelValues(checkType).Inc()
}

func (m *Metrics) IncrementRevoked() {
	m.Revoked.Inc()
}

func (m *Metrics) IncrementIssueRejected(code string) {
	m.IssueRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementValidityChecks() {
	m.ValidityChecks.Inc()
}

func (m *Metrics) ObserveIssueLatency(seconds float64) {
	m.IssueLatency.Observe(seconds)
}
