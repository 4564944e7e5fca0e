package store

import (
	"context"
	"sync"

	"vouch/internal/expiry"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// InMemoryStore is the in-memory tracker store used in standalone mode and
// in tests. The schedule maps each expiry instant to the keys landing on it,
// replacing the original fixed-size schedule table with unbounded buckets.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[expiry.Key]*expiry.Record
	schedule map[domain.Time][]expiry.Key
}

func New() *InMemoryStore {
	return &InMemoryStore{
		records:  make(map[expiry.Key]*expiry.Record),
		schedule: make(map[domain.Time][]expiry.Key),
	}
}

func (s *InMemoryStore) Save(_ context.Context, rec *expiry.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Key]; ok {
		return sentinel.ErrConflict
	}
	stored := *rec
	s.records[rec.Key] = &stored
	s.schedule[rec.Expiry] = append(s.schedule[rec.Expiry], rec.Key)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, key expiry.Key) (*expiry.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *InMemoryStore) SetExpired(_ context.Context, key expiry.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Expired = true
	return nil
}

func (s *InMemoryStore) SetExpiry(_ context.Context, key expiry.Key, at domain.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.unschedule(rec.Expiry, key)
	rec.Expiry = at
	rec.Expired = false
	s.schedule[at] = append(s.schedule[at], key)
	return nil
}

func (s *InMemoryStore) ListExpiringAt(_ context.Context, at domain.Time) ([]*expiry.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.schedule[at]
	out := make([]*expiry.Record, 0, len(keys))
	for _, key := range keys {
		rec := *s.records[key]
		out = append(out, &rec)
	}
	return out, nil
}

func (s *InMemoryStore) unschedule(at domain.Time, key expiry.Key) {
	keys := s.schedule[at]
	for i, k := range keys {
		if k == key {
			s.schedule[at] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(s.schedule[at]) == 0 {
		delete(s.schedule, at)
	}
}
