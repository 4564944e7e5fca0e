package store

import (
	"context"
	"sync"

	"vouch/internal/attestation"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// InMemoryStore keeps attestation records and both secondary indices in
// memory. Index slices keep stable insertion order with no capacity ceiling.
type InMemoryStore struct {
	mu        sync.RWMutex
	nextID    uint64
	records   map[domain.AttestationID]*attestation.Record
	bySubject map[domain.SubjectID][]domain.AttestationID
	byIssuer  map[domain.ProviderID][]domain.AttestationID
}

// New constructs an empty in-memory attestation store.
func New() *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[domain.AttestationID]*attestation.Record),
		bySubject: make(map[domain.SubjectID][]domain.AttestationID),
		byIssuer:  make(map[domain.ProviderID][]domain.AttestationID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, record *attestation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	record.ID = domain.AttestationID(s.nextID)
	copyRecord := *record
	s.records[record.ID] = &copyRecord
	s.bySubject[record.SubjectID] = append(s.bySubject[record.SubjectID], record.ID)
	s.byIssuer[record.IssuerID] = append(s.byIssuer[record.IssuerID], record.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.AttestationID) (*attestation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyRecord := *record
	return &copyRecord, nil
}

func (s *InMemoryStore) SetValidUntil(_ context.Context, id domain.AttestationID, validUntil domain.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.ValidUntil = validUntil
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]*attestation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.bySubject[subjectID]), nil
}

func (s *InMemoryStore) ListByIssuer(_ context.Context, issuerID domain.ProviderID) ([]*attestation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byIssuer[issuerID]), nil
}

// collect resolves index entries to record copies, preserving index order.
func (s *InMemoryStore) collect(ids []domain.AttestationID) []*attestation.Record {
	out := make([]*attestation.Record, 0, len(ids))
	for _, id := range ids {
		if record, ok := s.records[id]; ok {
			copyRecord := *record
			out = append(out, &copyRecord)
		}
	}
	return out
}
