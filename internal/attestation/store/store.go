package store

import (
	"context"

	"vouch/internal/attestation"
	"vouch/pkg/domain"
)

// Store is the persistence interface for attestation records and their
// secondary indices. Save allocates the monotonic id and appends to the
// by-subject and by-issuer indices in one step so no caller can observe a
// record without its index entries.
//
// Error Contract:
// - Get and SetValidUntil return sentinel.ErrNotFound for unknown ids
// - List methods return empty slices (not errors) for unknown keys,
//   preserving stable insertion order
type Store interface {
	Save(ctx context.Context, record *attestation.Record) error
	Get(ctx context.Context, id domain.AttestationID) (*attestation.Record, error)
	SetValidUntil(ctx context.Context, id domain.AttestationID, validUntil domain.Time) error
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*attestation.Record, error)
	ListByIssuer(ctx context.Context, issuerID domain.ProviderID) ([]*attestation.Record, error)
}
