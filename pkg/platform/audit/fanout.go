package audit

import (
	"context"
	"errors"

	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// FanOut appends every event to all sinks and serves reads from the first
// sink that supports them. Append fails if any sink fails; callers that want
// fire-and-forget semantics wrap it in the async publisher.
type FanOut struct {
	sinks []Store
}

func NewFanOut(sinks ...Store) *FanOut {
	return &FanOut{sinks: sinks}
}

func (f *FanOut) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanOut) ListByActor(ctx context.Context, actor domain.Identity) ([]Event, error) {
	for _, s := range f.sinks {
		events, err := s.ListByActor(ctx, actor)
		if errors.Is(err, sentinel.ErrUnavailable) {
			continue
		}
		return events, err
	}
	return nil, sentinel.ErrUnavailable
}
