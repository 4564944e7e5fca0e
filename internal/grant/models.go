// Package grant holds the consent model: one volunteer authorizing one
// organization to view one attestation. Grants are soft-deleted only; the
// state machine is created(active) -> revoked (terminal), with expiry
// computed from the logical clock rather than stored as a transition.
package grant

import (
	"vouch/internal/attestation"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// State is the computed lifecycle state of a grant.
type State string

const (
	StateActive  State = "active"
	StateRevoked State = "revoked"
	StateExpired State = "expired"
)

// Record is one consent decision. GranterIdentity is the only identity that
// may revoke it; SubjectID is denormalized from the attestation at grant
// time after the ownership check passes.
type Record struct {
	ID              domain.GrantID
	SubjectID       domain.SubjectID
	Grantee         domain.Identity
	AttestationID   domain.AttestationID
	GrantedAt       domain.Time
	Expiry          domain.Time
	Active          bool
	GranterIdentity domain.Identity
}

// NewRecord validates the grant-time invariants that do not require other
// records: the expiry must be in the future and within the maximum window.
func NewRecord(subjectID domain.SubjectID, grantee domain.Identity, granter domain.Identity,
	attestationID domain.AttestationID, grantedAt, expiry domain.Time, maxWindow uint64) (*Record, error) {
	if grantee.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "grantee identity is required")
	}
	if attestationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "attestation ID is required")
	}
	if expiry <= grantedAt {
		return nil, dErrors.New(dErrors.CodeInvalidExpiryWindow, "expiry must be in the future")
	}
	if uint64(expiry-grantedAt) > maxWindow {
		return nil, dErrors.New(dErrors.CodeInvalidExpiryWindow, "expiry exceeds the maximum grant window")
	}
	return &Record{
		SubjectID:       subjectID,
		Grantee:         grantee,
		GranterIdentity: granter,
		AttestationID:   attestationID,
		GrantedAt:       grantedAt,
		Expiry:          expiry,
		Active:          true,
	}, nil
}

// IsLive reports whether the grant authorizes access at the given instant.
func (r Record) IsLive(now domain.Time) bool {
	return r.Active && now < r.Expiry
}

// StateAt computes the lifecycle state at the given instant. Revocation wins
// over expiry when both apply, matching the terminal transition.
func (r Record) StateAt(now domain.Time) State {
	if !r.Active {
		return StateRevoked
	}
	if now >= r.Expiry {
		return StateExpired
	}
	return StateActive
}

// CanRevoke reports whether identity may revoke this grant.
func (r Record) CanRevoke(identity domain.Identity) bool {
	return r.GranterIdentity == identity
}

// CheckOwnership asserts that the granting volunteer owns the referenced
// attestation. It is a pure function over immutable snapshots of both
// records, evaluated inside the same serialized operation that writes the
// grant.
func CheckOwnership(att *attestation.Record, granterSubject domain.SubjectID) error {
	if att.SubjectID != granterSubject {
		return dErrors.New(dErrors.CodeNotRecordOwner, "attestation belongs to a different volunteer")
	}
	return nil
}
