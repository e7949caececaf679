package goSession

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/limiters"
	"github.com/MrEthical07/goSession/session"
)

// Guard is the top-level handle for session lifecycle and abuse throttling.
// Build one with New().Build() and share it; all methods are safe for
// concurrent use.
type Guard struct {
	config    Config
	redis     redis.UniversalClient
	ownsRedis bool
	logger    *zap.Logger

	store             *session.Store
	login             *limiters.LoginLimiter
	passwordReset     *limiters.PasswordResetLimiter
	emailVerification *limiters.EmailVerificationLimiter

	audit   *auditDispatcher
	metrics *Metrics

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Close shuts the Guard down. It waits for the audit dispatcher to drain
// queued events until ctx expires; past the deadline the drain continues in
// the background and teardown proceeds anyway. A connection dialed by Build
// is closed here; an injected client stays open.
func (g *Guard) Close(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.closeOnce.Do(func() {
		g.closed.Store(true)

		if g.audit != nil {
			drained := make(chan struct{})
			go func() {
				g.audit.Close()
				close(drained)
			}()
			select {
			case <-drained:
			case <-ctx.Done():
				g.logger.Warn("audit drain cut short on close", zap.Error(ctx.Err()))
				g.closeErr = ctx.Err()
			}
		}

		if g.ownsRedis {
			if err := g.redis.Close(); err != nil && g.closeErr == nil {
				g.closeErr = err
			}
		}
	})
	return g.closeErr
}

// CookieName is the configured session cookie name. HTTP middleware reads
// and clears the cookie under this name.
func (g *Guard) CookieName() string {
	if g == nil {
		return ""
	}
	return g.config.Session.CookieName
}

// Ping reports store round-trip latency. Liveness probes use it.
func (g *Guard) Ping(ctx context.Context) (time.Duration, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}
	return g.store.Ping(ctx)
}

func (g *Guard) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full. Only nonzero with DropIfFull set.
func (g *Guard) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

func (g *Guard) checkOpen() error {
	if g == nil || g.closed.Load() {
		return ErrGuardClosed
	}
	return nil
}

func (g *Guard) metricInc(id MetricID) {
	if g == nil || g.metrics == nil {
		return
	}
	g.metrics.Inc(id)
}

func (g *Guard) metricAdd(id MetricID, n uint64) {
	if g == nil || g.metrics == nil {
		return
	}
	g.metrics.Add(id, n)
}
