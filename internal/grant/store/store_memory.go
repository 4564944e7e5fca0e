package store

import (
	"context"
	"sync"

	"vouch/internal/grant"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type pairKey struct {
	grantee       domain.Identity
	attestationID domain.AttestationID
}

// InMemoryStore is the in-memory grant store used in standalone mode and in
// tests. The activePair map is the authoritative pair index; a pair appears
// there exactly while its grant is active.
type InMemoryStore struct {
	mu         sync.RWMutex
	nextID     domain.GrantID
	records    map[domain.GrantID]*grant.Record
	activePair map[pairKey]domain.GrantID
	byGrantee  map[domain.Identity][]domain.GrantID
	bySubject  map[domain.SubjectID][]domain.GrantID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		nextID:     1,
		records:    make(map[domain.GrantID]*grant.Record),
		activePair: make(map[pairKey]domain.GrantID),
		byGrantee:  make(map[domain.Identity][]domain.GrantID),
		bySubject:  make(map[domain.SubjectID][]domain.GrantID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, rec *grant.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	rec.ID = id

	stored := *rec
	s.records[id] = &stored
	s.activePair[pairKey{rec.Grantee, rec.AttestationID}] = id
	s.byGrantee[rec.Grantee] = append(s.byGrantee[rec.Grantee], id)
	s.bySubject[rec.SubjectID] = append(s.bySubject[rec.SubjectID], id)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.GrantID) (*grant.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, id domain.GrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Active = false
	key := pairKey{rec.Grantee, rec.AttestationID}
	if s.activePair[key] == id {
		delete(s.activePair, key)
	}
	return nil
}

func (s *InMemoryStore) ActiveGrant(_ context.Context, grantee domain.Identity, attestationID domain.AttestationID) (*grant.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.activePair[pairKey{grantee, attestationID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *s.records[id]
	return &out, nil
}

func (s *InMemoryStore) ListByGrantee(_ context.Context, grantee domain.Identity) ([]*grant.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byGrantee[grantee]), nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]*grant.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.bySubject[subjectID]), nil
}

func (s *InMemoryStore) collect(ids []domain.GrantID) []*grant.Record {
	out := make([]*grant.Record, 0, len(ids))
	for _, id := range ids {
		rec := *s.records[id]
		out = append(out, &rec)
	}
	return out
}
