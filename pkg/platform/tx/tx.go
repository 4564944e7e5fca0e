// Package tx provides the serialized mutation boundary for the ledger.
//
// The execution substrate this service models guarantees single-writer,
// fully serialized transaction semantics: every mutating operation runs to
// completion before the next one is observed, and ordering is total. A
// single process-wide mutex encodes that guarantee. Services perform all
// precondition checks before any mutation inside the critical section
// (checks-effects), so a failed operation never leaves partial state.
package tx

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "vouch/pkg/domain-errors"
)

var (
	serialWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vouch_ledger_serial_wait_seconds",
		Help:    "Time spent waiting to enter the serialized mutation section",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	serialAcquisitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vouch_ledger_serial_acquisitions_total",
		Help: "Total number of serialized mutation sections entered",
	})
)

// defaultTimeout bounds how long a mutation may hold the writer section.
const defaultTimeout = 5 * time.Second

// Serializer runs mutating ledger operations one at a time, in submission
// order. Share one instance across all ledger services.
type Serializer struct {
	mu      sync.Mutex
	timeout time.Duration
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithTimeout overrides the per-operation deadline applied when the caller's
// context has none.
func WithTimeout(d time.Duration) Option {
	return func(s *Serializer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSerializer constructs the shared writer section.
func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSerial executes fn with the writer lock held. The caller's checks and
// writes both happen inside fn, so readers never observe partial state.
func (s *Serializer) RunSerial(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mutation aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	lockStart := time.Now()
	s.mu.Lock()
	serialWaitDuration.Observe(time.Since(lockStart).Seconds())
	serialAcquisitions.Inc()
	defer s.mu.Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mutation aborted: context cancelled")
	}

	return fn(ctx)
}
