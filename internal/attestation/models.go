// Package attestation holds the domain model for provider-issued background
// check records. Records are append-only: once issued, only ValidUntil ever
// changes, and only through revocation.
package attestation

import (
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// CheckType is the closed set of background check categories.
type CheckType string

const (
	CheckCriminal   CheckType = "criminal"
	CheckEmployment CheckType = "employment"
	CheckEducation  CheckType = "education"
	CheckReference  CheckType = "reference"
)

func (c CheckType) IsValid() bool {
	switch c {
	case CheckCriminal, CheckEmployment, CheckEducation, CheckReference:
		return true
	}
	return false
}

// Status is the closed set of check outcomes.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusPending:
		return true
	}
	return false
}

// State is the computed lifecycle state of a record. It is never stored;
// revocation rewrites ValidUntil, so Expired covers both natural expiry and
// revocation when observed later.
type State string

const (
	StateValid   State = "valid"
	StateExpired State = "expired"
)

// Record is one completed background check result. SubjectID is the logical
// owner (the volunteer the check is about); IssuerIdentity is the only
// identity allowed to revoke. No personal data is stored, only ids and the
// issuer's opaque identity.
type Record struct {
	ID             domain.AttestationID
	SubjectID      domain.SubjectID
	IssuerID       domain.ProviderID
	CheckType      CheckType
	Status         Status
	IssuedAt       domain.Time
	ValidUntil     domain.Time
	IssuerIdentity domain.Identity
}

// NewRecord validates the issue-time invariants. The window check compares
// against maxWindow in logical ticks.
func NewRecord(subjectID domain.SubjectID, issuerID domain.ProviderID, issuerIdentity domain.Identity,
	checkType CheckType, status Status, issuedAt, validUntil domain.Time, maxWindow uint64) (*Record, error) {
	if !checkType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidCheckType, "check type must be one of criminal, employment, education, reference")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidStatus, "status must be one of passed, failed, pending")
	}
	if validUntil <= issuedAt {
		return nil, dErrors.New(dErrors.CodeInvalidExpiryWindow, "valid_until must be after issuance time")
	}
	if uint64(validUntil-issuedAt) > maxWindow {
		return nil, dErrors.New(dErrors.CodeInvalidExpiryWindow, "valid_until exceeds the maximum validity window")
	}
	return &Record{
		SubjectID:      subjectID,
		IssuerID:       issuerID,
		IssuerIdentity: issuerIdentity,
		CheckType:      checkType,
		Status:         status,
		IssuedAt:       issuedAt,
		ValidUntil:     validUntil,
	}, nil
}

// IsValid reports whether the record is live at the given logical instant.
func (r Record) IsValid(now domain.Time) bool {
	return now < r.ValidUntil
}

// StateAt computes the lifecycle state at the given logical instant.
func (r Record) StateAt(now domain.Time) State {
	if r.IsValid(now) {
		return StateValid
	}
	return StateExpired
}

// CanRevoke reports whether identity may revoke this record. Only the
// issuing identity holds that right.
func (r Record) CanRevoke(identity domain.Identity) bool {
	return r.IssuerIdentity == identity
}
