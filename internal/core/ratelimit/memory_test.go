package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSweepEvictsIdleIdentities(t *testing.T) {
	store := NewMemoryStore()
	policy := Policy{Requests: 5, Window: time.Minute}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_, err := store.Take(ctx, "old", start, policy)
	require.NoError(t, err)
	_, err = store.Take(ctx, "fresh", start.Add(50*time.Second), policy)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	removed := store.Sweep(start.Add(90*time.Second), policy.Window)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	// A swept identity starts over with a full budget.
	dec, err := store.Take(ctx, "old", start.Add(91*time.Second), policy)
	require.NoError(t, err)
	assert.Equal(t, 4, dec.Remaining)
}

func TestMemoryStoreOutOfOrderHits(t *testing.T) {
	store := NewMemoryStore()
	policy := Policy{Requests: 3, Window: time.Minute}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_, _ = store.Take(ctx, "a", base.Add(10*time.Second), policy)
	_, _ = store.Take(ctx, "a", base, policy)
	_, _ = store.Take(ctx, "a", base.Add(5*time.Second), policy)

	dec, _ := store.Take(ctx, "a", base.Add(30*time.Second), policy)
	require.False(t, dec.Allowed)
	// Oldest hit is at base, so the slot frees at base+60s.
	assert.Equal(t, 30*time.Second, dec.RetryAfter)
}

func TestMemoryStoreSweeperStopsOnClose(t *testing.T) {
	store := NewMemoryStore()
	policy := Policy{Requests: 1, Window: time.Millisecond}

	_, err := store.Take(context.Background(), "a", time.Now().UTC().Add(-time.Second), policy)
	require.NoError(t, err)

	store.StartSweeper(5*time.Millisecond, policy.Window, nil)
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Take(ctx, "a", time.Now(), DefaultPolicy)
	require.ErrorIs(t, err, context.Canceled)
}
