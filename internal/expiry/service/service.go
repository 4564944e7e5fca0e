package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"vouch/internal/clock"
	"vouch/internal/expiry"
	"vouch/internal/expiry/metrics"
	"vouch/internal/expiry/store"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/audit/publisher"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// defaultBatchConcurrency bounds parallel store reads in CheckBatch.
const defaultBatchConcurrency = 8

// maxBatchItems caps one batch check request.
const maxBatchItems = 250

// Serial is the serialized mutation boundary shared across ledger services.
type Serial interface {
	RunSerial(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the expiry tracker. Registration and updates are
// serialized mutations; checks are pure reads against the logical clock.
type Service struct {
	store    store.Store
	clock    clock.Clock
	serial   Serial
	auditor  *publisher.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	batchPar int
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBatchConcurrency bounds how many items a batch check reads in parallel.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchPar = n
		}
	}
}

func New(st store.Store, clk clock.Clock, serial Serial, auditor *publisher.Publisher,
	logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    st,
		clock:    clk,
		serial:   serial,
		auditor:  auditor,
		logger:   logger,
		batchPar: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register starts tracking an item. Each (type, id) pair may be registered
// once; the registering identity becomes the only one allowed to update it.
func (s *Service) Register(ctx context.Context, caller domain.Identity, key expiry.Key, at domain.Time) (*expiry.Record, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing caller identity")
	}

	var rec *expiry.Record
	err := s.serial.RunSerial(ctx, func(ctx context.Context) error {
		now := s.clock.Tick()
		var err error
		rec, err = expiry.NewRecord(key, caller, now, at)
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeDuplicateItem, "item is already tracked")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store expiry record")
		}

		s.emit(ctx, audit.Event{
			Name:        audit.EventExpiryRegistered,
			Actor:       caller,
			ItemType:    string(key.Type),
			ItemID:      key.ID,
			LogicalTime: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRegistered(string(key.Type))
	}
	s.logger.InfoContext(ctx, "expiry registered",
		"item_type", key.Type,
		"item_id", key.ID,
		"expiry", rec.Expiry,
	)
	return rec, nil
}

// MarkExpired sets the sticky expired flag. The clock must have reached the
// item's expiry; marking is an acknowledgement of reality, not a shortcut
// around it.
func (s *Service) MarkExpired(ctx context.Context, caller domain.Identity, key expiry.Key) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing caller identity")
	}

	err := s.serial.RunSerial(ctx, func(ctx context.Context) error {
		rec, err := s.get(ctx, key)
		if err != nil {
			return err
		}
		if rec.Expired {
			return dErrors.New(dErrors.CodeAlreadyExpired, "item is already marked expired")
		}

		now := s.clock.Tick()
		if now < rec.Expiry {
			return dErrors.New(dErrors.CodeNotYetExpired, "item has not reached its expiry")
		}
		if err := s.store.SetExpired(ctx, key); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark item expired")
		}

		s.emit(ctx, audit.Event{
			Name:        audit.EventItemMarkedExpired,
			Actor:       caller,
			ItemType:    string(key.Type),
			ItemID:      key.ID,
			LogicalTime: now,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementMarkedExpired(string(key.Type))
	}
	s.logger.InfoContext(ctx, "item marked expired", "item_type", key.Type, "item_id", key.ID)
	return nil
}

// UpdateExpiry moves the item to a new future expiry and clears the sticky
// flag. Only the registering identity may update.
func (s *Service) UpdateExpiry(ctx context.Context, caller domain.Identity, key expiry.Key, at domain.Time) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing caller identity")
	}

	err := s.serial.RunSerial(ctx, func(ctx context.Context) error {
		rec, err := s.get(ctx, key)
		if err != nil {
			return err
		}
		if !rec.CanUpdate(caller) {
			return dErrors.New(dErrors.CodeNotRecordOwner, "only the registering identity may update")
		}

		now := s.clock.Tick()
		if at <= now {
			return dErrors.New(dErrors.CodeInvalidExpiryWindow, "new expiry must be in the future")
		}
		if err := s.store.SetExpiry(ctx, key, at); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update expiry")
		}

		s.emit(ctx, audit.Event{
			Name:        audit.EventExpiryUpdated,
			Actor:       caller,
			ItemType:    string(key.Type),
			ItemID:      key.ID,
			LogicalTime: now,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementUpdated(string(key.Type))
	}
	s.logger.InfoContext(ctx, "expiry updated", "item_type", key.Type, "item_id", key.ID, "expiry", at)
	return nil
}

// IsExpired reports whether the item is expired at the current instant,
// by flag or by clock.
func (s *Service) IsExpired(ctx context.Context, key expiry.Key) (bool, error) {
	if s.metrics != nil {
		s.metrics.IncrementChecks()
	}
	rec, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	return rec.IsExpired(s.clock.Now()), nil
}

// TimeUntilExpiry returns the remaining ticks, zero when already expired.
func (s *Service) TimeUntilExpiry(ctx context.Context, key expiry.Key) (domain.Time, error) {
	rec, err := s.get(ctx, key)
	if err != nil {
		return 0, err
	}
	return rec.TimeUntilExpiry(s.clock.Now()), nil
}

// WillExpireWithin reports whether the item is expired now or will be within
// the next window ticks.
func (s *Service) WillExpireWithin(ctx context.Context, key expiry.Key, window uint64) (bool, error) {
	rec, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	return rec.WillExpireWithin(s.clock.Now(), window), nil
}

// ItemsExpiringAt returns every tracked item scheduled to expire exactly at
// the given instant.
func (s *Service) ItemsExpiringAt(ctx context.Context, at domain.Time) ([]*expiry.Record, error) {
	records, err := s.store.ListExpiringAt(ctx, at)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "expiry schedule lookup failed")
	}
	return records, nil
}

// BatchResult is one item's outcome in a batch check. Unknown items carry
// the not_found code instead of a verdict.
type BatchResult struct {
	Key     expiry.Key
	Expired bool
	Err     error
}

// CheckBatch evaluates many items concurrently against one clock reading.
// Store errors fail the batch; unknown items are reported per-result.
func (s *Service) CheckBatch(ctx context.Context, keys []expiry.Key) ([]BatchResult, error) {
	if len(keys) == 0 {
		return []BatchResult{}, nil
	}
	if len(keys) > maxBatchItems {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "too many items in one batch")
	}

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBatch(len(keys), time.Since(start).Seconds())
		}
	}()

	// One reading for the whole batch keeps the results mutually consistent.
	now := s.clock.Now()

	results := make([]BatchResult, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchPar)
	for i, key := range keys {
		g.Go(func() error {
			rec, err := s.store.Get(ctx, key)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					results[i] = BatchResult{Key: key, Err: dErrors.New(dErrors.CodeNotFound, "item is not tracked")}
					return nil
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "expiry lookup failed")
			}
			results[i] = BatchResult{Key: key, Expired: rec.IsExpired(now)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) get(ctx context.Context, key expiry.Key) (*expiry.Record, error) {
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "item is not tracked")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "expiry lookup failed")
	}
	return rec, nil
}

// emit records the audit event; audit failure never fails the mutation.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event.Name, "error", err)
	}
}
