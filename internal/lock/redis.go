package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jobrisk/jobrisk/internal/model"
)

const defaultLockTTL = 2 * time.Minute

// Delete or extend the key only while it still holds our token.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLocker guards keys across processes sharing one Redis. A held lock is
// kept alive in the background until released, so a crashed holder frees it
// after ttl.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

// TryLock runs SET NX PX with a fresh token. A held key fails with
// model.ErrRunInProgress; Redis errors are returned as is.
func (r *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()

	ok, err := r.rdb.SetNX(ctx, k, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", k, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", k, model.ErrRunInProgress)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(k, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.rdb, []string{k}, token).Err(); err != nil {
				r.logger.Warn("failed to release lock", "key", k, "error", err)
			}
		})
	}, nil
}

func (r *RedisLocker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := extendScript.Run(ctx, r.rdb, []string{key}, token, r.ttl.Milliseconds()).Err()
			cancel()
			if err != nil {
				r.logger.Warn("failed to extend lock", "key", key, "error", err)
			}
		}
	}
}
