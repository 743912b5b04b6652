package utils

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`if redis.call('GET', KEYS[1]) == ARGV[1] then return redis.call('DEL', KEYS[1]) end return 0`)

// ErrLockTimeout is returned when a lock could not be acquired before the context ended.
var ErrLockTimeout = errors.New("lock acquire timeout")

// RedisLocker is a SETNX based mutex shared by every instance talking to the same Redis.
type RedisLocker struct {
	rc    *redis.Client
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker builds a locker whose keys expire after ttl if the holder dies.
func NewRedisLocker(rc *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{rc: rc, ttl: ttl, retry: 25 * time.Millisecond}
}

// Lock spins on SETNX until it wins or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = "lock:" + key
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rc.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if ok {
			return func() {
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := releaseScript.Run(rctx, l.rc, []string{key}, token).Err(); err != nil && err != redis.Nil {
					Sugar.Warnf("release lock %s failed: %v", key, err)
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}
