package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/attestation"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

func testRecord(subject domain.SubjectID, issuer domain.ProviderID) *attestation.Record {
	return &attestation.Record{
		SubjectID:      subject,
		IssuerID:       issuer,
		IssuerIdentity: "did:key:prov-1",
		CheckType:      attestation.CheckCriminal,
		Status:         attestation.StatusPassed,
		IssuedAt:       10,
		ValidUntil:     110,
	}
}

func TestSaveAllocatesMonotonicIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := testRecord(1, 1)
	second := testRecord(1, 1)
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	assert.Equal(t, domain.AttestationID(1), first.ID)
	assert.Equal(t, domain.AttestationID(2), second.ID)
}

func TestIndicesKeepInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, testRecord(7, domain.ProviderID(i%2+1))))
	}

	bySubject, err := s.ListBySubject(ctx, 7)
	require.NoError(t, err)
	require.Len(t, bySubject, 5)
	for i := 1; i < len(bySubject); i++ {
		assert.Greater(t, bySubject[i].ID, bySubject[i-1].ID)
	}

	byIssuer, err := s.ListByIssuer(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byIssuer, 3)

	empty, err := s.ListBySubject(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	rec := testRecord(1, 1)
	require.NoError(t, s.Save(ctx, rec))

	fetched, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	fetched.Status = attestation.StatusFailed

	again, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, attestation.StatusPassed, again.Status, "mutating a fetched copy must not affect the store")
}

func TestSetValidUntil(t *testing.T) {
	s := New()
	ctx := context.Background()
	rec := testRecord(1, 1)
	require.NoError(t, s.Save(ctx, rec))

	require.NoError(t, s.SetValidUntil(ctx, rec.ID, 42))
	fetched, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Time(42), fetched.ValidUntil)

	require.ErrorIs(t, s.SetValidUntil(ctx, domain.AttestationID(99), 42), sentinel.ErrNotFound)
}

func TestGetUnknown(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), domain.AttestationID(1))
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
