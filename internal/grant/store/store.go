package store

import (
	"context"

	"vouch/internal/grant"
	"vouch/pkg/domain"
)

// Store persists grant records and the active-pair index that makes
// CheckAccess a point lookup. Implementations must keep the index and the
// record in step: Save registers the (grantee, attestation) pair,
// Deactivate removes it.
//
// Save assigns the record ID in place. Get and Deactivate return
// sentinel.ErrNotFound for unknown IDs. ActiveGrant returns
// sentinel.ErrNotFound when no active grant exists for the pair. List
// methods return empty slices rather than nil.
type Store interface {
	Save(ctx context.Context, rec *grant.Record) error
	Get(ctx context.Context, id domain.GrantID) (*grant.Record, error)
	Deactivate(ctx context.Context, id domain.GrantID) error
	ActiveGrant(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (*grant.Record, error)
	ListByGrantee(ctx context.Context, grantee domain.Identity) ([]*grant.Record, error)
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*grant.Record, error)
}
