package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"mollie-gateway/internal/domain"
)

// RedisLocker is a single-instance SETNX lock. A lock expires after its ttl
// so a crashed holder cannot block deliveries forever.
type RedisLocker struct {
	cli      redis.Cmdable
	attempts int
	backoff  time.Duration
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli, attempts: 5, backoff: 50 * time.Millisecond}
}

// TryLock returns domain.ErrCallbackInProgress when the key stays held and
// the last Redis error when the server could not be reached.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < l.attempts; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			lastErr = err
		} else if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrCallbackInProgress
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	return luaUnlock.Run(ctx, l.cli, []string{key}, token).Err()
}
