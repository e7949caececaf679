package goSession

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
)

// IssueSession creates a session for userID, persists it, and registers it
// in the user's session index. Index registration is best-effort: if it
// fails the session is still valid and the failure is logged and counted,
// never surfaced to the login path.
func (g *Guard) IssueSession(ctx context.Context, userID string, data []byte) (*session.Session, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, errors.New("userID required")
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		SessionID: sid.String(),
		UserID:    userID,
		Data:      data,
	}

	if err := g.store.Save(ctx, sess); err != nil {
		g.metricInc(MetricStoreUnavailable)
		g.emitAudit(ctx, auditEventSessionIssued, false, userID, sess.SessionID, err, nil)
		return nil, err
	}

	if err := g.store.Track(ctx, userID, sess.SessionID); err != nil {
		g.metricInc(MetricTrackFailure)
		g.logger.Warn("session index tracking failed",
			zap.String("user_id", userID),
			zap.String("session_id", sess.SessionID),
			zap.Error(err),
		)
	}

	g.metricInc(MetricSessionIssued)
	g.emitAudit(ctx, auditEventSessionIssued, true, userID, sess.SessionID, nil, nil)

	return sess, nil
}

// GetSession resolves a session id. Reading never extends the idle window;
// only writes do. A session past its absolute age is destroyed during the
// lookup and reported as expired.
func (g *Guard) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	if g.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			g.metrics.Observe(MetricLookupLatency, time.Since(start))
		}()
	}
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := g.store.Get(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionExpired):
			g.metricInc(MetricSessionExpired)
			g.emitAudit(ctx, auditEventSessionExpired, false, "", sessionID, ErrSessionExpired, nil)
			return nil, errors.Join(ErrSessionNotFound, ErrSessionExpired)
		case errors.Is(err, redis.Nil):
			g.metricInc(MetricSessionLookupMiss)
			return nil, ErrSessionNotFound
		default:
			g.metricInc(MetricStoreUnavailable)
			return nil, err
		}
	}

	g.metricInc(MetricSessionLookupHit)
	return sess, nil
}

// SaveSession persists updated session state. As a write it re-arms the
// idle window.
func (g *Guard) SaveSession(ctx context.Context, sess *session.Session) error {
	if err := g.checkOpen(); err != nil {
		return err
	}
	if sess == nil || sess.SessionID == "" {
		return errors.New("session with id required")
	}

	if err := g.store.Save(ctx, sess); err != nil {
		g.metricInc(MetricStoreUnavailable)
		return err
	}
	return nil
}

// TouchSession re-arms the idle window without rewriting the payload.
func (g *Guard) TouchSession(ctx context.Context, sessionID string) error {
	if err := g.checkOpen(); err != nil {
		return err
	}
	if sessionID == "" {
		return ErrSessionNotFound
	}

	err := g.store.Touch(ctx, sessionID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return ErrSessionNotFound
	default:
		g.metricInc(MetricStoreUnavailable)
		return err
	}
}

// DestroySession removes one session. Destroying a session that is already
// gone is not an error.
func (g *Guard) DestroySession(ctx context.Context, sessionID string) error {
	if err := g.checkOpen(); err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}

	if err := g.store.Delete(ctx, sessionID); err != nil {
		g.metricInc(MetricStoreUnavailable)
		g.emitAudit(ctx, auditEventSessionDestroyed, false, "", sessionID, err, nil)
		return err
	}

	g.metricInc(MetricSessionDestroyed)
	g.emitAudit(ctx, auditEventSessionDestroyed, true, "", sessionID, nil, nil)
	return nil
}

// RevokeUserSessions destroys every session owned by userID and returns how
// many records were removed. With the legacy fallback enabled and the scan
// budget exhausted the count is a lower bound; the truncation is logged,
// counted, and flagged on the audit event so operators can rerun with a
// higher budget.
func (g *Guard) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	if err := g.checkOpen(); err != nil {
		return 0, err
	}

	res, err := g.store.DeleteAllForUser(ctx, userID)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		g.emitAudit(ctx, auditEventSessionsRevoked, false, userID, "", err, nil)
		return 0, err
	}

	g.metricInc(MetricSessionsRevoked)
	g.metricAdd(MetricRevokedSessionRecords, uint64(res.Deleted))
	if res.Fallback {
		g.metricInc(MetricRevocationFallback)
	}
	if res.Truncated {
		g.metricInc(MetricRevocationTruncated)
	}

	g.emitAudit(ctx, auditEventSessionsRevoked, true, userID, "", nil, func() map[string]string {
		md := map[string]string{
			"deleted": strconv.Itoa(res.Deleted),
		}
		if res.Fallback {
			md["fallback"] = "true"
			md["scanned"] = strconv.Itoa(res.Scanned)
			md["skipped"] = strconv.Itoa(res.Skipped)
		}
		if res.Truncated {
			md["truncated"] = "true"
		}
		return md
	})

	return res.Deleted, nil
}

// ActiveSessions lists the ids of userID's tracked sessions whose records
// are still live.
func (g *Guard) ActiveSessions(ctx context.Context, userID string) ([]string, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}

	ids, err := g.store.ActiveSessions(ctx, userID)
	if err != nil {
		g.metricInc(MetricStoreUnavailable)
		return nil, err
	}
	return ids, nil
}
