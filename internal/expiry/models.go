// Package expiry implements the generic expiry tracker. It watches items of
// any registered type against the shared logical clock; it does not own the
// items it tracks, and the attestation and grant ledgers keep their own
// inline expiry independent of it.
package expiry

import (
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// ItemType is the closed set of trackable item kinds.
type ItemType string

const (
	ItemAttestation ItemType = "attestation"
	ItemGrant       ItemType = "grant"
	ItemCredential  ItemType = "credential"
)

func (t ItemType) IsValid() bool {
	switch t {
	case ItemAttestation, ItemGrant, ItemCredential:
		return true
	}
	return false
}

// Key identifies one tracked item. Item ids are scoped per type, so the same
// numeric id may be tracked once as an attestation and once as a grant.
type Key struct {
	Type ItemType
	ID   uint64
}

// Record is one tracked item. Expired is a sticky flag: once marked it stays
// set until an explicit expiry update resets it, even if the clock would
// otherwise still consider the item live.
type Record struct {
	Key          Key
	Expiry       domain.Time
	Expired      bool
	RegisteredBy domain.Identity
	RegisteredAt domain.Time
}

// NewRecord validates registration-time invariants.
func NewRecord(key Key, registeredBy domain.Identity, registeredAt, expiry domain.Time) (*Record, error) {
	if !key.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidItemType, "item type must be one of attestation, grant, credential")
	}
	if key.ID == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "item ID is required")
	}
	if expiry <= registeredAt {
		return nil, dErrors.New(dErrors.CodeInvalidExpiryWindow, "expiry must be in the future")
	}
	return &Record{
		Key:          key,
		Expiry:       expiry,
		RegisteredBy: registeredBy,
		RegisteredAt: registeredAt,
	}, nil
}

// IsExpired reports whether the item is expired at the given instant, either
// by the sticky flag or by the clock reaching the expiry.
func (r Record) IsExpired(now domain.Time) bool {
	return r.Expired || now >= r.Expiry
}

// TimeUntilExpiry returns the remaining ticks, zero when already expired.
func (r Record) TimeUntilExpiry(now domain.Time) domain.Time {
	if r.IsExpired(now) {
		return 0
	}
	return r.Expiry - now
}

// WillExpireWithin reports whether the item is expired now or will be within
// the next window ticks. The remaining ticks are compared directly so an
// arbitrarily large window cannot wrap the horizon past the expiry.
func (r Record) WillExpireWithin(now domain.Time, window uint64) bool {
	if r.IsExpired(now) {
		return true
	}
	return uint64(r.Expiry-now) <= window
}

// CanUpdate reports whether identity may change this record's expiry.
func (r Record) CanUpdate(identity domain.Identity) bool {
	return r.RegisteredBy == identity
}
