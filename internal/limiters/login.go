package limiters

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/internal/rate"
)

// LoginConfig holds the fixed-window policy for login attempts.
type LoginConfig struct {
	KeyPrefix   string
	MaxAttempts int
	Window      time.Duration
}

// LoginLimiter throttles login attempts per normalized identity.
type LoginLimiter struct {
	limiter *rate.Limiter
	config  LoginConfig
}

// NewLoginLimiter creates a login limiter backed by the given Redis client.
func NewLoginLimiter(redisClient redis.UniversalClient, cfg LoginConfig) *LoginLimiter {
	return &LoginLimiter{
		limiter: rate.New(redisClient),
		config:  cfg,
	}
}

// Allow consumes one login attempt for the identity and reports whether it
// is still within budget. The attempt is spent whether or not the login
// itself later succeeds.
func (l *LoginLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	return l.limiter.Allow(ctx, l.key(identity), l.config.MaxAttempts, l.config.Window)
}

// Remaining reports the attempts left for the identity without consuming one.
func (l *LoginLimiter) Remaining(ctx context.Context, identity string) (int, error) {
	return l.limiter.Remaining(ctx, l.key(identity), l.config.MaxAttempts)
}

// Window returns the configured window, for Retry-After style hints.
func (l *LoginLimiter) Window() time.Duration {
	return l.config.Window
}

func (l *LoginLimiter) key(identity string) string {
	return l.config.KeyPrefix + "login:" + NormalizeIdentity(identity)
}
