package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// keyPrefix namespaces lock keys away from anything else in the database.
const keyPrefix = "lock:"

// DefaultTTL bounds how long a crashed holder can keep a key locked.
const DefaultTTL = 5 * time.Second

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker serializes mutations on a key across service instances using
// SET NX PX with a random token.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisLocker creates a locker. A non-positive ttl falls back to DefaultTTL.
func NewRedisLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl, log: log}
}

// TryLock attempts to take key without waiting. ok is false only when another
// holder owns the key; on Redis errors the lock is skipped (fail open) and the
// store's unique index remains the last line of defence.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), bool) {
	fullKey := keyPrefix + key
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		l.log.Warn("lock redis error, proceeding unlocked", zap.String("key", fullKey), zap.Error(err))
		return func() {}, true
	}
	if !acquired {
		l.log.Debug("lock busy", zap.String("key", fullKey))
		return nil, false
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			l.log.Warn("failed to release lock", zap.String("key", fullKey), zap.Error(err))
		}
	}, true
}
