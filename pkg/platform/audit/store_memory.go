package audit

import (
	"context"
	"sync"

	"vouch/pkg/domain"
)

// InMemoryStore keeps audit events in memory for tests and standalone mode.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actor domain.Identity) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Actor == actor {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every stored event in append order. Test helper.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}
