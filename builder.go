package goSession

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/limiters"
	"github.com/MrEthical07/goSession/session"
)

// Builder assembles a Guard. A Builder is single-use: Build may be called
// once.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	logger    *zap.Logger
	auditSink AuditSink
	built     bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis injects an existing client. The Guard will not close it; the
// caller keeps ownership. Without an injected client, Build dials
// Config.Redis.Address and the Guard closes that connection on Close.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) Build() (*Guard, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if raised := cfg.normalize(); raised {
		logger.Warn("fallback scan budget below floor, raised",
			zap.Int("budget", cfg.Session.FallbackScanBudget),
		)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := b.redis
	ownsRedis := false
	if rdb == nil {
		if cfg.Redis.Address == "" {
			return nil, errors.New("redis client or address required")
		}
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ownsRedis = true
	}

	// -------- SESSION STORE --------
	store := session.NewStore(rdb, session.Config{
		SessionPrefix:       cfg.Session.KeyPrefix,
		IndexPrefix:         cfg.Session.IndexPrefix,
		OwnerPrefix:         cfg.Session.OwnerPrefix,
		IdleTTL:             cfg.Session.IdleTTL,
		AbsoluteTTL:         cfg.Session.AbsoluteTTL,
		FallbackScanEnabled: cfg.Session.FallbackScanEnabled,
		FallbackScanBudget:  cfg.Session.FallbackScanBudget,
		Logger:              logger,
	})

	// -------- RATE LIMITERS --------
	guard := &Guard{
		config:    cfg,
		redis:     rdb,
		ownsRedis: ownsRedis,
		logger:    logger,
		store:     store,
		login: limiters.NewLoginLimiter(rdb, limiters.LoginConfig{
			KeyPrefix:   cfg.RateLimit.KeyPrefix,
			MaxAttempts: cfg.RateLimit.Login.MaxAttempts,
			Window:      cfg.RateLimit.Login.Window,
		}),
		passwordReset: limiters.NewPasswordResetLimiter(rdb, limiters.PasswordResetConfig{
			KeyPrefix:   cfg.RateLimit.KeyPrefix,
			MaxAttempts: cfg.RateLimit.PasswordReset.MaxAttempts,
			Window:      cfg.RateLimit.PasswordReset.Window,
		}),
		emailVerification: limiters.NewEmailVerificationLimiter(rdb, limiters.EmailVerificationConfig{
			KeyPrefix:   cfg.RateLimit.KeyPrefix,
			MaxAttempts: cfg.RateLimit.EmailVerification.MaxAttempts,
			Window:      cfg.RateLimit.EmailVerification.Window,
		}),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return guard, nil
}
