// Package domain provides type-safe identifiers and the logical time unit so
// the compiler prevents mixing up IDs across the attestation, grant, and
// expiry components.
package domain

import (
	"strconv"

	dErrors "vouch/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SubjectID where a
// ProviderID is expected. All ledger IDs are allocated monotonically by the
// owning store.
type (
	SubjectID     uint64
	ProviderID    uint64
	AttestationID uint64
	GrantID       uint64
)

// Identity is the cryptographic identity of a caller (volunteer, provider,
// or organization) as presented in its bearer token. The core never stores
// personal data against it, only the opaque identity string.
type Identity string

// Time is the shared logical clock value. All expiry math is defined in
// units of this counter, never wall clock.
type Time uint64

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSubjectID(s string) (SubjectID, error) {
	v, err := parseID(s, "subject ID")
	return SubjectID(v), err
}

func ParseProviderID(s string) (ProviderID, error) {
	v, err := parseID(s, "provider ID")
	return ProviderID(v), err
}

func ParseAttestationID(s string) (AttestationID, error) {
	v, err := parseID(s, "attestation ID")
	return AttestationID(v), err
}

func ParseGrantID(s string) (GrantID, error) {
	v, err := parseID(s, "grant ID")
	return GrantID(v), err
}

func ParseTime(s string) (Time, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "logical time cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "logical time must be a non-negative integer")
	}
	return Time(v), nil
}

// String methods - for logging and debugging.

func (id SubjectID) String() string     { return strconv.FormatUint(uint64(id), 10) }
func (id ProviderID) String() string    { return strconv.FormatUint(uint64(id), 10) }
func (id AttestationID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id GrantID) String() string       { return strconv.FormatUint(uint64(id), 10) }
func (id Identity) String() string      { return string(id) }
func (t Time) String() string           { return strconv.FormatUint(uint64(t), 10) }

// IsNil checks - used for service-layer validation. ID zero is never
// allocated by any store.

func (id SubjectID) IsNil() bool     { return id == 0 }
func (id ProviderID) IsNil() bool    { return id == 0 }
func (id AttestationID) IsNil() bool { return id == 0 }
func (id GrantID) IsNil() bool       { return id == 0 }
func (id Identity) IsNil() bool      { return id == "" }

// parseID is the shared validation logic. Zero IDs parse successfully so
// store lookups can return proper "not found" errors; use IsNil() at the
// service layer for business validation.
func parseID(s, label string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" must be a positive integer")
	}
	return v, nil
}
