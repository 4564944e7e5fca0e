// Package registry defines the ports the ledger consumes from the external
// volunteer and provider identity registries. The core never owns this data;
// it only asks two questions per registry: is this numeric id known, and
// which numeric id does this caller identity map to.
package registry

import (
	"context"

	"vouch/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Volunteers,Providers

// Volunteers resolves volunteer subjects.
// Error Contract:
// - LookupByIdentity returns sentinel.ErrNotFound when the identity is unknown
// - IsRegistered returns (false, nil) for unknown subject ids
type Volunteers interface {
	IsRegistered(ctx context.Context, subjectID domain.SubjectID) (bool, error)
	LookupByIdentity(ctx context.Context, identity domain.Identity) (domain.SubjectID, error)
}

// Providers resolves accredited check providers.
// Error Contract: same as Volunteers.
type Providers interface {
	IsVerifiedProvider(ctx context.Context, providerID domain.ProviderID) (bool, error)
	LookupByIdentity(ctx context.Context, identity domain.Identity) (domain.ProviderID, error)
}
