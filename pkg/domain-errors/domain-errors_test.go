package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageFallsBackToName(t *testing.T) {
	err := New(CodeDuplicateGrant, "")
	assert.Equal(t, "duplicate_grant", err.Error())

	err = New(CodeDuplicateGrant, "grant already active for pair")
	assert.Equal(t, "grant already active for pair", err.Error())
}

func TestWrapPreservesOriginalCode(t *testing.T) {
	inner := New(CodeNotFound, "attestation missing")
	wrapped := Wrap(inner, CodeInternal, "issue failed")

	assert.True(t, HasCode(wrapped, CodeNotFound), "wrapping must keep the original domain code")
	assert.False(t, HasCode(wrapped, CodeInternal))

	// Non-domain errors take the new code.
	wrapped = Wrap(fmt.Errorf("connection reset"), CodeInternal, "store failure")
	assert.True(t, HasCode(wrapped, CodeInternal))
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeAccessDenied, "no active grant")
	b := New(CodeAccessDenied, "different message")
	require.True(t, errors.Is(a, b))
	require.False(t, errors.Is(a, New(CodeUnauthorized, "")))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeAlreadyExpired, CodeOf(New(CodeAlreadyExpired, "")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestNumericRangesStable(t *testing.T) {
	// The numeric ranges are a compatibility contract with clients.
	for code, want := range map[Code]int{
		CodeUnauthorized:         100,
		CodeNotVerifiedProvider:  101,
		CodeAccessDenied:         103,
		CodeInvalidCheckType:     201,
		CodeNotFound:             204,
		CodeDuplicateGrant:       205,
		CodeSubjectNotRegistered: 300,
		CodeGrantNotActive:       303,
	} {
		assert.Equal(t, want, int(code), code.Name())
	}
}
