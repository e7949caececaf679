package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

type Config struct {
	Redis     RedisConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
REDIS CONFIG
====================================
*/

// RedisConfig is used when the Guard dials its own client. It is ignored
// when a client is injected through WithRedis.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

/*
====================================
SESSION CONFIG
====================================
*/

type SessionConfig struct {
	// KeyPrefix, IndexPrefix, and OwnerPrefix shape the Redis key layout.
	// Live deployments have data under these names; changing them orphans
	// every existing session.
	KeyPrefix   string
	IndexPrefix string
	OwnerPrefix string

	// IdleTTL is the rolling inactivity window. Writes re-arm it, reads do
	// not.
	IdleTTL time.Duration
	// AbsoluteTTL caps session age from first observation regardless of
	// activity.
	AbsoluteTTL time.Duration

	// FallbackScanEnabled turns on the keyspace scan for users whose index
	// set is empty. Off unless a deployment still carries sessions from
	// before index tracking existed.
	FallbackScanEnabled bool
	// FallbackScanBudget caps how many keys one fallback pass may inspect.
	// Values below session.MinScanBudget are raised to the floor.
	FallbackScanBudget int

	// CookieName is the session cookie the HTTP middleware reads and
	// clears.
	CookieName string
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

type RateLimitPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

type RateLimitConfig struct {
	// KeyPrefix namespaces all limiter counters.
	KeyPrefix         string
	Login             RateLimitPolicy
	PasswordReset     RateLimitPolicy
	EmailVerification RateLimitPolicy
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Address: "127.0.0.1:6379",
		},
		Session: SessionConfig{
			KeyPrefix:           session.DefaultSessionPrefix,
			IndexPrefix:         session.DefaultIndexPrefix,
			OwnerPrefix:         session.DefaultOwnerPrefix,
			IdleTTL:             session.DefaultIdleTTL,
			AbsoluteTTL:         session.DefaultAbsoluteTTL,
			FallbackScanEnabled: false,
			FallbackScanBudget:  session.DefaultScanBudget,
			CookieName:          "sid",
		},
		RateLimit: RateLimitConfig{
			KeyPrefix: "ratelimit:",
			Login: RateLimitPolicy{
				MaxAttempts: 10,
				Window:      15 * time.Minute,
			},
			PasswordReset: RateLimitPolicy{
				MaxAttempts: 3,
				Window:      time.Hour,
			},
			EmailVerification: RateLimitPolicy{
				MaxAttempts: 3,
				Window:      time.Hour,
			},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// normalize fills zeroed fields with defaults and raises the fallback scan
// budget to its floor. It reports whether the budget was raised so the
// caller can log it.
func (c *Config) normalize() bool {
	def := defaultConfig()

	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = def.Session.KeyPrefix
	}
	if c.Session.IndexPrefix == "" {
		c.Session.IndexPrefix = def.Session.IndexPrefix
	}
	if c.Session.OwnerPrefix == "" {
		c.Session.OwnerPrefix = def.Session.OwnerPrefix
	}
	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = def.Session.IdleTTL
	}
	if c.Session.AbsoluteTTL == 0 {
		c.Session.AbsoluteTTL = def.Session.AbsoluteTTL
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = def.Session.CookieName
	}
	if c.RateLimit.KeyPrefix == "" {
		c.RateLimit.KeyPrefix = def.RateLimit.KeyPrefix
	}
	if c.RateLimit.Login.MaxAttempts == 0 && c.RateLimit.Login.Window == 0 {
		c.RateLimit.Login = def.RateLimit.Login
	}
	if c.RateLimit.PasswordReset.MaxAttempts == 0 && c.RateLimit.PasswordReset.Window == 0 {
		c.RateLimit.PasswordReset = def.RateLimit.PasswordReset
	}
	if c.RateLimit.EmailVerification.MaxAttempts == 0 && c.RateLimit.EmailVerification.Window == 0 {
		c.RateLimit.EmailVerification = def.RateLimit.EmailVerification
	}

	if c.Session.FallbackScanBudget <= 0 {
		c.Session.FallbackScanBudget = def.Session.FallbackScanBudget
		return false
	}
	if c.Session.FallbackScanBudget < session.MinScanBudget {
		c.Session.FallbackScanBudget = session.MinScanBudget
		return true
	}
	return false
}

/*
====================================
VALIDATION
====================================
*/

func (c *Config) Validate() error {
	// Session
	if c.Session.IdleTTL <= 0 {
		return errors.New("Session IdleTTL must be > 0")
	}
	if c.Session.AbsoluteTTL <= 0 {
		return errors.New("Session AbsoluteTTL must be > 0")
	}
	if c.Session.KeyPrefix == "" || c.Session.IndexPrefix == "" || c.Session.OwnerPrefix == "" {
		return errors.New("Session key prefixes must be non-empty")
	}
	if c.Session.FallbackScanBudget < session.MinScanBudget {
		return errors.New("Session FallbackScanBudget must be >= the floor")
	}

	// Rate limits
	if c.RateLimit.KeyPrefix == "" {
		return errors.New("RateLimit KeyPrefix must be non-empty")
	}
	for _, p := range []struct {
		name   string
		policy RateLimitPolicy
	}{
		{"Login", c.RateLimit.Login},
		{"PasswordReset", c.RateLimit.PasswordReset},
		{"EmailVerification", c.RateLimit.EmailVerification},
	} {
		if p.policy.MaxAttempts <= 0 {
			return errors.New("RateLimit " + p.name + " MaxAttempts must be > 0")
		}
		if p.policy.Window <= 0 {
			return errors.New("RateLimit " + p.name + " Window must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
