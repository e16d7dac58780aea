package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Liad-hossain/test-voice-export/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := testutil.SetupTestRedis(t)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRunLock_AcquireIsExclusive(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewRunLock(client)
	ctx := context.Background()

	release, ok, err := lock.Acquire(ctx, "matter-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, release)

	_, ok, err = lock.Acquire(ctx, "matter-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	_, ok, err = lock.Acquire(ctx, "matter-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "different matters do not contend")

	require.NoError(t, release(ctx))
	holder, err := lock.Holder(ctx, "matter-1")
	require.NoError(t, err)
	assert.Empty(t, holder)

	_, ok, err = lock.Acquire(ctx, "matter-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "acquire succeeds after release")
}

func TestRunLock_ReleaseKeepsForeignLock(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewRunLockWithPrefix(client, "test:lock:")
	ctx := context.Background()

	release, ok, err := lock.Acquire(ctx, "matter-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate expiry followed by another run taking over.
	require.NoError(t, client.Set(ctx, "test:lock:matter-1", "other-run", time.Minute).Err())

	require.NoError(t, release(ctx))
	holder, err := lock.Holder(ctx, "matter-1")
	require.NoError(t, err)
	assert.Equal(t, "other-run", holder)
}

func TestRunLock_TTL(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewRunLock(client)
	ctx := context.Background()

	_, ok, err := lock.Acquire(ctx, "matter-ttl", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := client.TTL(ctx, DefaultPrefix+"matter-ttl").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 20*time.Second)
	assert.LessOrEqual(t, ttl, 30*time.Second)

	remaining, err := lock.Remaining(ctx, "matter-ttl")
	require.NoError(t, err)
	assert.Greater(t, remaining, 20*time.Second)

	remaining, err = lock.Remaining(ctx, "matter-unlocked")
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestRunLock_EmptyKey(t *testing.T) {
	lock := NewRunLock(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))

	_, ok, err := lock.Acquire(context.Background(), "", time.Minute)
	require.Error(t, err)
	assert.False(t, ok)
}
