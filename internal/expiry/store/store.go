package store

import (
	"context"

	"vouch/internal/expiry"
	"vouch/pkg/domain"
)

// Store persists expiry tracker records keyed by (item type, item id) and
// maintains the expiry schedule used by items-expiring-at queries.
//
// Save returns sentinel.ErrConflict when the key is already tracked. Get,
// SetExpired, and SetExpiry return sentinel.ErrNotFound for unknown keys.
// SetExpiry moves the record to the new schedule slot and clears the expired
// flag. ListExpiringAt returns an empty slice when nothing is scheduled at
// that instant.
type Store interface {
	Save(ctx context.Context, rec *expiry.Record) error
	Get(ctx context.Context, key expiry.Key) (*expiry.Record, error)
	SetExpired(ctx context.Context, key expiry.Key) error
	SetExpiry(ctx context.Context, key expiry.Key, at domain.Time) error
	ListExpiringAt(ctx context.Context, at domain.Time) ([]*expiry.Record, error)
}
