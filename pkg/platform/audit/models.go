package audit

import (
	"context"
	"time"

	"vouch/pkg/domain"
)

// Event is emitted from domain logic for every state-mutating ledger
// operation. It carries the event name, the relevant ids, the actor identity,
// and the logical time of the mutation. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Name          string
	Actor         domain.Identity
	SubjectID     domain.SubjectID
	IssuerID      domain.ProviderID
	AttestationID domain.AttestationID
	GrantID       domain.GrantID
	Grantee       domain.Identity
	ItemType      string
	ItemID        uint64
	LogicalTime   domain.Time
	Timestamp     time.Time
	RequestID     string
}

// Event names, one per mutating operation.
const (
	EventAttestationIssued  = "attestation_issued"
	EventAttestationRevoked = "attestation_revoked"
	EventGrantCreated       = "grant_created"
	EventGrantRevoked       = "grant_revoked"
	EventExpiryRegistered   = "expiry_registered"
	EventItemMarkedExpired  = "item_marked_expired"
	EventExpiryUpdated      = "expiry_updated"
)

// Store is the append-only persistence interface for audit events.
// Error Contract:
// - Append returns nil on success or a wrapped infrastructure error
// - ListByActor returns an empty slice (not an error) for unknown actors
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor domain.Identity) ([]Event, error)
}
