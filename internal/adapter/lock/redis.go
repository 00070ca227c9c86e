package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

const (
	defaultLockTTL    = 30 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a distributed per-point lock shared by every replica.
// Each key is held with SET NX PX; the TTL bounds how long a crashed holder
// can block a point.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
	log    *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  defaultRetryDelay,
		prefix: "booking:lock:point:",
		log:    log,
	}
}

func (l *RedisLocker) key(pointID string) string {
	return l.prefix + pointID
}

func (l *RedisLocker) Lock(ctx context.Context, pointIDs ...string) (func(), error) {
	ids := normalize(pointIDs)
	token := uuid.NewString()
	held := make([]string, 0, len(ids))

	for _, id := range ids {
		if err := l.acquire(ctx, l.key(id), token); err != nil {
			l.release(held, token)
			return nil, err
		}
		held = append(held, id)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %s", domain.ErrLockTimeout, key)
			}
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", domain.ErrLockTimeout, key)
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(ids []string, token string) {
	// the caller's context may already be canceled
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	for i := len(ids) - 1; i >= 0; i-- {
		key := l.key(ids[i])
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Error("Failed to release charging point lock",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}
