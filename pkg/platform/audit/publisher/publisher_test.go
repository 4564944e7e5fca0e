package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/pkg/platform/audit"
)

func TestEmitSyncAppendsToStore(t *testing.T) {
	store := audit.NewInMemoryStore()
	p := New(store)

	err := p.Emit(context.Background(), audit.Event{
		Name:        audit.EventAttestationIssued,
		Actor:       "did:key:prov-1",
		SubjectID:   1,
		LogicalTime: 42,
	})
	require.NoError(t, err)

	events := store.All()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventAttestationIssued, events[0].Name)
	assert.False(t, events[0].Timestamp.IsZero(), "publisher stamps wall time")
}

func TestEmitAsyncDrainsOnClose(t *testing.T) {
	store := audit.NewInMemoryStore()
	p := New(store, WithAsyncBuffer(16))

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Emit(context.Background(), audit.Event{Name: audit.EventGrantCreated}))
	}
	p.Close()

	assert.Len(t, store.All(), 10)
}

func TestListByActor(t *testing.T) {
	store := audit.NewInMemoryStore()
	p := New(store)
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, audit.Event{Name: audit.EventGrantCreated, Actor: "did:key:vol-1", Timestamp: time.Now()}))
	require.NoError(t, p.Emit(ctx, audit.Event{Name: audit.EventGrantRevoked, Actor: "did:key:vol-2", Timestamp: time.Now()}))

	events, err := p.List(ctx, "did:key:vol-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventGrantCreated, events[0].Name)
}
