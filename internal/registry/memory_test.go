package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

func TestVolunteersRegisterAndLookup(t *testing.T) {
	r := NewInMemoryVolunteers()
	ctx := context.Background()

	id, err := r.Register(ctx, "did:key:vol-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectID(1), id)

	// Idempotent registration.
	again, err := r.Register(ctx, "did:key:vol-1")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	found, err := r.LookupByIdentity(ctx, "did:key:vol-1")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	ok, err := r.IsRegistered(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsRegistered(ctx, domain.SubjectID(99))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.LookupByIdentity(ctx, "did:key:unknown")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestProvidersVerificationGate(t *testing.T) {
	r := NewInMemoryProviders()
	ctx := context.Background()

	id, err := r.Add(ctx, "did:key:prov-1")
	require.NoError(t, err)

	// Added but not yet verified.
	ok, err := r.IsVerifiedProvider(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Verify(ctx, id))
	ok, err = r.IsVerifiedProvider(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	require.ErrorIs(t, r.Verify(ctx, domain.ProviderID(42)), sentinel.ErrNotFound)
}
