package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for expiry tracker operations.
type Metrics struct {
	Registered     *prometheus.CounterVec
	MarkedExpired  *prometheus.CounterVec
	Updated        *prometheus.CounterVec
	Checks         prometheus.Counter
	BatchSize      prometheus.Histogram
	BatchLatency   prometheus.Histogram
}

// New registers and returns expiry tracker metrics collectors.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_expiry_items_registered_total",
			Help: "Total number of items registered with the tracker, labeled by item type",
		}, []string{"item_type"}),
		MarkedExpired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_expiry_items_marked_total",
			Help: "Total number of items explicitly marked expired, labeled by item type",
		}, []string{"item_type"}),
		Updated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_expiry_updates_total",
			Help: "Total number of expiry updates, labeled by item type",
		}, []string{"item_type"}),
		Checks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_expiry_checks_total",
			Help: "Total number of single-item expiry checks",
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_expiry_batch_size",
			Help:    "Item count per batch expiry check",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		BatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_expiry_batch_latency_seconds",
			Help:    "Latency of batch expiry checks in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementRegistered(itemType string) {
	m.Registered.WithLabelValues(itemType).Inc()
}

func (m *Metrics) IncrementMarkedExpired(itemType string) {
	m.MarkedExpired.WithLabelValues(itemType).Inc()
}

func (m *Metrics) IncrementUpdated(itemType string) {
	m.Updated.WithLabelValues(itemType).Inc()
}

func (m *Metrics) IncrementChecks() {
	m.Checks.Inc()
}

func (m *Metrics) ObserveBatch(size int, seconds float64) {
	m.BatchSize.Observe(float64(size))
	m.BatchLatency.Observe(seconds)
}
