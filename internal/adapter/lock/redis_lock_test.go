package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker_ExclusiveUntilUnlock(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisLocker(client, time.Second, zaptest.NewLogger(t))
	ctx := context.Background()

	unlock, ok := locker.TryLock(ctx, "user:username:alice")
	require.True(t, ok)
	assert.True(t, mr.Exists("lock:user:username:alice"))

	_, ok = locker.TryLock(ctx, "user:username:alice")
	assert.False(t, ok)

	// A different key is independent
	unlockOther, ok := locker.TryLock(ctx, "user:username:bob")
	require.True(t, ok)
	unlockOther()

	unlock()
	assert.False(t, mr.Exists("lock:user:username:alice"))

	unlock, ok = locker.TryLock(ctx, "user:username:alice")
	require.True(t, ok)
	unlock()
}

func TestRedisLocker_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisLocker(client, 500*time.Millisecond, zaptest.NewLogger(t))
	ctx := context.Background()

	_, ok := locker.TryLock(ctx, "user:id:1")
	require.True(t, ok)

	mr.FastForward(time.Second)

	unlock, ok := locker.TryLock(ctx, "user:id:1")
	require.True(t, ok)
	unlock()
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisLocker(client, 500*time.Millisecond, zaptest.NewLogger(t))
	ctx := context.Background()

	staleUnlock, ok := locker.TryLock(ctx, "user:id:1")
	require.True(t, ok)

	mr.FastForward(time.Second)

	_, ok = locker.TryLock(ctx, "user:id:1")
	require.True(t, ok)

	staleUnlock()
	assert.True(t, mr.Exists("lock:user:id:1"))
}

func TestRedisLocker_FailOpen(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisLocker(client, time.Second, zaptest.NewLogger(t))
	mr.Close()

	unlock, ok := locker.TryLock(context.Background(), "user:id:1")
	require.True(t, ok)
	require.NotNil(t, unlock)
	unlock()
}

func TestNewRedisLocker_DefaultTTL(t *testing.T) {
	_, client := setupTestRedis(t)
	locker := NewRedisLocker(client, 0, zaptest.NewLogger(t))
	assert.Equal(t, DefaultTTL, locker.ttl)
}
