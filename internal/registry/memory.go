package registry

import (
	"context"
	"sync"

	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// InMemoryVolunteers is a seedable volunteer registry used in standalone mode
// and tests. IDs are allocated monotonically starting at 1.
type InMemoryVolunteers struct {
	mu         sync.RWMutex
	nextID     uint64
	byIdentity map[domain.Identity]domain.SubjectID
	registered map[domain.SubjectID]struct{}
}

func NewInMemoryVolunteers() *InMemoryVolunteers {
	return &InMemoryVolunteers{
		byIdentity: make(map[domain.Identity]domain.SubjectID),
		registered: make(map[domain.SubjectID]struct{}),
	}
}

// Register adds a volunteer identity and returns its subject id. Registering
// the same identity twice returns the existing id.
func (r *InMemoryVolunteers) Register(_ context.Context, identity domain.Identity) (domain.SubjectID, error) {
	if identity.IsNil() {
		return 0, sentinel.ErrInvalidState
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byIdentity[identity]; ok {
		return id, nil
	}
	r.nextID++
	id := domain.SubjectID(r.nextID)
	r.byIdentity[identity] = id
	r.registered[id] = struct{}{}
	return id, nil
}

func (r *InMemoryVolunteers) IsRegistered(_ context.Context, subjectID domain.SubjectID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.registered[subjectID]
	return ok, nil
}

func (r *InMemoryVolunteers) LookupByIdentity(_ context.Context, identity domain.Identity) (domain.SubjectID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdentity[identity]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return id, nil
}

// InMemoryProviders is a seedable provider registry used in standalone mode
// and tests. A provider exists once added and is only trusted once verified.
type InMemoryProviders struct {
	mu         sync.RWMutex
	nextID     uint64
	byIdentity map[domain.Identity]domain.ProviderID
	verified   map[domain.ProviderID]bool
}

func NewInMemoryProviders() *InMemoryProviders {
	return &InMemoryProviders{
		byIdentity: make(map[domain.Identity]domain.ProviderID),
		verified:   make(map[domain.ProviderID]bool),
	}
}

// Add registers a provider identity without verifying it.
func (r *InMemoryProviders) Add(_ context.Context, identity domain.Identity) (domain.ProviderID, error) {
	if identity.IsNil() {
		return 0, sentinel.ErrInvalidState
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byIdentity[identity]; ok {
		return id, nil
	}
	r.nextID++
	id := domain.ProviderID(r.nextID)
	r.byIdentity[identity] = id
	r.verified[id] = false
	return id, nil
}

// Verify marks a provider as accredited.
func (r *InMemoryProviders) Verify(_ context.Context, providerID domain.ProviderID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.verified[providerID]; !ok {
		return sentinel.ErrNotFound
	}
	r.verified[providerID] = true
	return nil
}

func (r *InMemoryProviders) IsVerifiedProvider(_ context.Context, providerID domain.ProviderID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.verified[providerID], nil
}

func (r *InMemoryProviders) LookupByIdentity(_ context.Context, identity domain.Identity) (domain.ProviderID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdentity[identity]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return id, nil
}
