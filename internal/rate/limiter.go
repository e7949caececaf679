package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter moves fixed-window counters on Redis. It carries no policy: the
// caller supplies the key, the limit, and the window on every call.
type Limiter struct {
	redis redis.UniversalClient
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient) *Limiter {
	return &Limiter{redis: redisClient}
}

// Allow consumes one attempt for key and reports whether the post-increment
// count is still within limit. The attempt is consumed even when the answer
// is false.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: arm the expiry only when the key carries none,
	// so later hits never extend the window. Two racing first hits may both
	// observe PTTL < 0 and re-arm the same window; the second PEXPIRE is a
	// harmless overwrite with the same duration.
	ttl, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		if err := l.redis.PExpire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count <= int64(limit), nil
}

// Remaining reports how many attempts are left for key without consuming
// one. A missing counter reports the full limit.
func (l *Limiter) Remaining(ctx context.Context, key string, limit int) (int, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return limit, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
