package limiters

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/internal/rate"
)

// PasswordResetConfig holds the fixed-window policy for password reset
// requests.
type PasswordResetConfig struct {
	KeyPrefix   string
	MaxAttempts int
	Window      time.Duration
}

// PasswordResetLimiter throttles password reset requests per normalized
// identity. Reset mails are expensive and enumerable, so the budget is much
// tighter than login's.
type PasswordResetLimiter struct {
	limiter *rate.Limiter
	config  PasswordResetConfig
}

// NewPasswordResetLimiter creates a password reset limiter backed by the
// given Redis client.
func NewPasswordResetLimiter(redisClient redis.UniversalClient, cfg PasswordResetConfig) *PasswordResetLimiter {
	return &PasswordResetLimiter{
		limiter: rate.New(redisClient),
		config:  cfg,
	}
}

// Allow consumes one reset attempt for the identity and reports whether it
// is still within budget.
func (l *PasswordResetLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	return l.limiter.Allow(ctx, l.key(identity), l.config.MaxAttempts, l.config.Window)
}

// Remaining reports the attempts left for the identity without consuming one.
func (l *PasswordResetLimiter) Remaining(ctx context.Context, identity string) (int, error) {
	return l.limiter.Remaining(ctx, l.key(identity), l.config.MaxAttempts)
}

// Window returns the configured window, for Retry-After style hints.
func (l *PasswordResetLimiter) Window() time.Duration {
	return l.config.Window
}

func (l *PasswordResetLimiter) key(identity string) string {
	return l.config.KeyPrefix + "password_reset:" + NormalizeIdentity(identity)
}
