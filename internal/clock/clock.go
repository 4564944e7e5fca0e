// Package clock holds the single logical clock shared by every ledger
// component. The clock is a monotonically increasing counter, not wall time;
// all expiry comparisons across attestations, grants, and the expiry tracker
// are defined in its units.
package clock

import (
	"sync/atomic"

	"vouch/pkg/domain"
)

// Clock is the read/advance interface services depend on.
type Clock interface {
	// Now returns the current logical time without advancing it.
	Now() domain.Time
	// Tick advances the clock and returns the new instant. Every mutating
	// ledger operation stamps itself with one tick, which makes the total
	// order of mutations observable.
	Tick() domain.Time
}

// Logical is the in-process implementation backed by an atomic counter.
type Logical struct {
	counter atomic.Uint64
}

// New returns a logical clock starting at the given instant.
func New(start domain.Time) *Logical {
	c := &Logical{}
	c.counter.Store(uint64(start))
	return c
}

func (c *Logical) Now() domain.Time {
	return domain.Time(c.counter.Load())
}

func (c *Logical) Tick() domain.Time {
	return domain.Time(c.counter.Add(1))
}

// AdvanceTo moves the clock forward to at least t. Moving backwards is a
// no-op; the counter never decreases.
func (c *Logical) AdvanceTo(t domain.Time) domain.Time {
	for {
		cur := c.counter.Load()
		if cur >= uint64(t) {
			return domain.Time(cur)
		}
		if c.counter.CompareAndSwap(cur, uint64(t)) {
			return t
		}
	}
}
