package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(zap.NewNop(), time.Minute)
	t.Cleanup(store.Stop)
	return store
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "result:abc", []byte(`{"score":0.9}`), time.Minute))

	value, ok := store.Get(ctx, "result:abc")
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"score":0.9}`), value)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := newTestStore(t)

	value, ok := store.Get(context.Background(), "result:nope")
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "result:abc", []byte("x"), 20*time.Millisecond))

	_, ok := store.Get(ctx, "result:abc")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = store.Get(ctx, "result:abc")
	assert.False(t, ok)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "result:abc", []byte("x"), time.Minute))
	require.NoError(t, store.Delete(ctx, "result:abc"))

	_, ok := store.Get(ctx, "result:abc")
	assert.False(t, ok)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "result:abc", []byte("old"), time.Minute))
	require.NoError(t, store.Set(ctx, "result:abc", []byte("new"), time.Minute))

	value, ok := store.Get(ctx, "result:abc")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}

func TestMemoryStoreCleanupRemovesExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "stale", []byte("x"), 10*time.Millisecond))
	require.NoError(t, store.Set(ctx, "fresh", []byte("y"), time.Minute))

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, store.Cleanup(ctx))

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.NotContains(t, store.entries, "stale")
	assert.Contains(t, store.entries, "fresh")
}
