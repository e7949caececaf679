package goSession

import (
	"context"
	"errors"
	"time"
)

// AllowLogin consumes one login attempt for identity and reports whether it
// fits the window. The attempt is counted before the caller verifies
// credentials, so a successful login still spends budget; the window
// expiring is what returns it. Fail closed on store errors: a denial plus
// the error.
func (g *Guard) AllowLogin(ctx context.Context, identity string) (bool, error) {
	if err := g.checkOpen(); err != nil {
		return false, err
	}

	ok, err := g.login.Allow(ctx, identity)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		return false, errors.Join(ErrRedisUnavailable, err)
	}
	if !ok {
		g.metricInc(MetricLoginRateLimited)
		g.emitRateLimit(ctx, "login", func() map[string]string {
			return map[string]string{
				"identifier": identity,
			}
		})
	}
	return ok, nil
}

// LoginAttemptsRemaining peeks at the remaining login budget without
// spending an attempt.
func (g *Guard) LoginAttemptsRemaining(ctx context.Context, identity string) (int, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}

	n, err := g.login.Remaining(ctx, identity)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		return 0, errors.Join(ErrRedisUnavailable, err)
	}
	return n, nil
}

// LoginWindow is the configured login window, for Retry-After style hints.
func (g *Guard) LoginWindow() time.Duration {
	return g.login.Window()
}

func (g *Guard) AllowPasswordReset(ctx context.Context, identity string) (bool, error) {
	if err := g.checkOpen(); err != nil {
		return false, err
	}

	ok, err := g.passwordReset.Allow(ctx, identity)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		return false, errors.Join(ErrRedisUnavailable, err)
	}
	if !ok {
		g.metricInc(MetricPasswordResetRateLimited)
		g.emitRateLimit(ctx, "password_reset", func() map[string]string {
			return map[string]string{
				"identifier": identity,
			}
		})
	}
	return ok, nil
}

func (g *Guard) PasswordResetAttemptsRemaining(ctx context.Context, identity string) (int, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}

	n, err := g.passwordReset.Remaining(ctx, identity)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		return 0, errors.Join(ErrRedisUnavailable, err)
	}
	return n, nil
}

func (g *Guard) AllowEmailVerification(ctx context.Context, identity string) (bool, error) {
	if err := g.checkOpen(); err != nil {
		return false, err
	}

	ok, err := g.emailVerification.Allow(ctx, identity)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		return false, errors.Join(ErrRedisUnavailable, err)
	}
	if !ok {
		g.metricInc(MetricEmailVerificationRateLimited)
		g.emitRateLimit(ctx, "email_verification", func() map[string]string {
			return map[string]string{
				"identifier": identity,
			}
		})
	}
	return ok, nil
}

func (g *Guard) EmailVerificationAttemptsRemaining(ctx context.Context, identity string) (int, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}

	n, err := g.emailVerification.Remaining(ctx, identity)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		return 0, errors.Join(ErrRedisUnavailable, err)
	}
	return n, nil
}
