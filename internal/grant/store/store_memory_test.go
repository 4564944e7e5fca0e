package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/grant"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

func newTestGrant(subject domain.SubjectID, grantee domain.Identity, att domain.AttestationID) *grant.Record {
	return &grant.Record{
		SubjectID:       subject,
		Grantee:         grantee,
		GranterIdentity: "vol:ada",
		AttestationID:   att,
		GrantedAt:       100,
		Expiry:          200,
		Active:          true,
	}
}

func TestInMemoryStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := newTestGrant(7, "org:clinic", 3)
	require.NoError(t, s.Save(ctx, rec))
	assert.Equal(t, domain.GrantID(1), rec.ID)
	id := rec.ID

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, domain.Identity("org:clinic"), got.Grantee)
	assert.True(t, got.Active)

	_, err = s.Get(ctx, 99)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreActiveGrant(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := newTestGrant(7, "org:clinic", 3)
	require.NoError(t, s.Save(ctx, rec))
	id := rec.ID

	got, err := s.ActiveGrant(ctx, "org:clinic", 3)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = s.ActiveGrant(ctx, "org:clinic", 4)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = s.ActiveGrant(ctx, "org:lab", 3)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreDeactivate(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := newTestGrant(7, "org:clinic", 3)
	require.NoError(t, s.Save(ctx, rec))
	id := rec.ID

	require.NoError(t, s.Deactivate(ctx, id))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Active, "record survives as an inactive row")

	_, err = s.ActiveGrant(ctx, "org:clinic", 3)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "pair index entry removed on revoke")

	assert.ErrorIs(t, s.Deactivate(ctx, 99), sentinel.ErrNotFound)
}

func TestInMemoryStoreRegrantAfterRevoke(t *testing.T) {
	ctx := context.Background()
	s := New()

	firstRec := newTestGrant(7, "org:clinic", 3)
	require.NoError(t, s.Save(ctx, firstRec))
	first := firstRec.ID
	require.NoError(t, s.Deactivate(ctx, first))

	secondRec := newTestGrant(7, "org:clinic", 3)
	require.NoError(t, s.Save(ctx, secondRec))
	second := secondRec.ID
	assert.NotEqual(t, first, second)

	got, err := s.ActiveGrant(ctx, "org:clinic", 3)
	require.NoError(t, err)
	assert.Equal(t, second, got.ID, "pair index points at the new grant")
}

func TestInMemoryStoreLists(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Save(ctx, newTestGrant(7, "org:clinic", 3)))
	require.NoError(t, s.Save(ctx, newTestGrant(7, "org:lab", 4)))
	require.NoError(t, s.Save(ctx, newTestGrant(8, "org:clinic", 5)))

	byGrantee, err := s.ListByGrantee(ctx, "org:clinic")
	require.NoError(t, err)
	require.Len(t, byGrantee, 2)

	bySubject, err := s.ListBySubject(ctx, 7)
	require.NoError(t, err)
	require.Len(t, bySubject, 2)

	empty, err := s.ListByGrantee(ctx, "org:none")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestInMemoryStoreCopyOnRead(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := newTestGrant(7, "org:clinic", 3)
	require.NoError(t, s.Save(ctx, rec))
	id := rec.ID

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	got.Active = false

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.Active, "callers get copies, not shared pointers")
}
