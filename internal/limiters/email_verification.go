package limiters

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/internal/rate"
)

// EmailVerificationConfig holds the fixed-window policy for verification
// mail requests.
type EmailVerificationConfig struct {
	KeyPrefix   string
	MaxAttempts int
	Window      time.Duration
}

// EmailVerificationLimiter throttles verification mail requests per
// normalized identity.
type EmailVerificationLimiter struct {
	limiter *rate.Limiter
	config  EmailVerificationConfig
}

// NewEmailVerificationLimiter creates an email verification limiter backed
// by the given Redis client.
func NewEmailVerificationLimiter(redisClient redis.UniversalClient, cfg EmailVerificationConfig) *EmailVerificationLimiter {
	return &EmailVerificationLimiter{
		limiter: rate.New(redisClient),
		config:  cfg,
	}
}

// Allow consumes one verification attempt for the identity and reports
// whether it is still within budget.
func (l *EmailVerificationLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	return l.limiter.Allow(ctx, l.key(identity), l.config.MaxAttempts, l.config.Window)
}

// Remaining reports the attempts left for the identity without consuming one.
func (l *EmailVerificationLimiter) Remaining(ctx context.Context, identity string) (int, error) {
	return l.limiter.Remaining(ctx, l.key(identity), l.config.MaxAttempts)
}

// Window returns the configured window, for Retry-After style hints.
func (l *EmailVerificationLimiter) Window() time.Duration {
	return l.config.Window
}

func (l *EmailVerificationLimiter) key(identity string) string {
	return l.config.KeyPrefix + "email_verification:" + NormalizeIdentity(identity)
}
