package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreWindowReset(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	count, ttl, err := store.Incr(ctx, "k", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Hour, ttl)

	now = now.Add(30 * time.Minute)
	count, ttl, _ = store.Incr(ctx, "k", time.Hour)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 30*time.Minute, ttl)

	now = now.Add(31 * time.Minute)
	count, ttl, _ = store.Incr(ctx, "k", time.Hour)
	assert.Equal(t, int64(1), count, "a new window starts after expiry")
	assert.Equal(t, time.Hour, ttl)
}

func TestMemoryStoreCleanup(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Stop()

	now := time.Now()
	store.now = func() time.Time { return now }

	_, _, _ = store.Incr(context.Background(), "old", time.Minute)
	_, _, _ = store.Incr(context.Background(), "fresh", time.Hour)

	now = now.Add(2 * time.Minute)
	store.cleanup()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.windows, "old")
	assert.Contains(t, store.windows, "fresh")
}

func TestMemoryStoreStopIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	store.Stop()
	store.Stop()
}
