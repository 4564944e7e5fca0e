package attestation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vouch/pkg/domain-errors"
)

const testMaxWindow = 1000

func TestNewRecordEnumValidation(t *testing.T) {
	_, err := NewRecord(1, 1, "did:key:prov", "polygraph", StatusPassed, 10, 100, testMaxWindow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCheckType))

	_, err = NewRecord(1, 1, "did:key:prov", CheckCriminal, "maybe", 10, 100, testMaxWindow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatus))
}

func TestNewRecordWindowInvariants(t *testing.T) {
	// valid_until must be strictly after issuance.
	_, err := NewRecord(1, 1, "did:key:prov", CheckCriminal, StatusPassed, 100, 100, testMaxWindow)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidExpiryWindow))

	_, err = NewRecord(1, 1, "did:key:prov", CheckCriminal, StatusPassed, 100, 50, testMaxWindow)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidExpiryWindow))

	// Gap may equal but never exceed the window.
	rec, err := NewRecord(1, 1, "did:key:prov", CheckCriminal, StatusPassed, 100, 100+testMaxWindow, testMaxWindow)
	require.NoError(t, err)
	assert.Greater(t, rec.ValidUntil, rec.IssuedAt)

	_, err = NewRecord(1, 1, "did:key:prov", CheckCriminal, StatusPassed, 100, 101+testMaxWindow, testMaxWindow)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidExpiryWindow))
}

func TestIsValidBoundary(t *testing.T) {
	rec := Record{IssuedAt: 10, ValidUntil: 100}
	assert.True(t, rec.IsValid(99))
	assert.False(t, rec.IsValid(100), "expiry instant itself is no longer valid")
	assert.False(t, rec.IsValid(200))

	assert.Equal(t, StateValid, rec.StateAt(50))
	assert.Equal(t, StateExpired, rec.StateAt(100))
}

func TestCanRevokeOnlyIssuer(t *testing.T) {
	rec := Record{IssuerIdentity: "did:key:prov-1"}
	assert.True(t, rec.CanRevoke("did:key:prov-1"))
	assert.False(t, rec.CanRevoke("did:key:prov-2"))
	assert.False(t, rec.CanRevoke(""))
}
