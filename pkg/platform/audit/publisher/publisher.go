package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  audit.Store
	events chan audit.Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

// WithLogger sets a logger for async error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			if p.logger != nil {
				p.logger.Error("failed to persist audit event",
					"error", err,
					"event", event.Name,
					"actor", event.Actor,
				)
			}
		}
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit records one event. In async mode the send never blocks a ledger
// operation; a full buffer drops the event and reports it.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.async {
		select {
		case p.events <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"event", event.Name,
					"actor", event.Actor,
				)
			}
			return dErrors.New(dErrors.CodeInternal, "audit buffer full")
		}
	}
	return p.store.Append(ctx, event)
}

// List returns the events recorded for one actor identity.
func (p *Publisher) List(ctx context.Context, actor domain.Identity) ([]audit.Event, error) {
	return p.store.ListByActor(ctx, actor)
}
