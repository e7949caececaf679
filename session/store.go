package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSessionExpired marks a session past its absolute age bound. Get joins
// it with redis.Nil so plain not-found handling also catches it.
var ErrSessionExpired = errors.New("session expired")

// Store defaults. The prefixes are wire contract with Redis: changing them
// across deploys orphans every record, index, and owner pointer written
// under the old names.
const (
	DefaultSessionPrefix = "sess:"
	DefaultIndexPrefix   = "user_sessions:"
	DefaultOwnerPrefix   = "session_user:"

	DefaultIdleTTL     = time.Hour
	DefaultAbsoluteTTL = 14 * 24 * time.Hour

	DefaultScanBudget = 5000
	MinScanBudget     = 500

	defaultScanPage = 100
)

const destroySessionScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("DEL", KEYS[2])
if ARGV[2] ~= "" then
  redis.call("SREM", KEYS[3], ARGV[1])
end
return existed
`

var destroySessionLua = redis.NewScript(destroySessionScript)

// Config controls key layout and TTL policy for a [Store]. Zero-value
// fields fall back to the package defaults; tests may set any budget or TTL
// directly, floors are enforced by the process-level configuration layer.
type Config struct {
	SessionPrefix string
	IndexPrefix   string
	OwnerPrefix   string

	// IdleTTL is the record expiry, re-armed on writes only.
	IdleTTL time.Duration
	// AbsoluteTTL bounds a session's total age from CreatedAt.
	AbsoluteTTL time.Duration
	// IndexTTL bounds index sets and owner pointers so they self-heal when
	// never explicitly cleaned up. Defaults to AbsoluteTTL.
	IndexTTL time.Duration

	// FallbackScanEnabled allows DeleteAllForUser to walk the key space for
	// users whose index is empty. Off unless an operator turns it on.
	FallbackScanEnabled bool
	// FallbackScanBudget caps how many keys one fallback pass may inspect.
	FallbackScanBudget int
	// FallbackScanPage is the SCAN count hint per page.
	FallbackScanPage int

	Logger *zap.Logger
}

// Store is the Redis-backed session store: one record per session, a
// per-user index set for fast revocation, and a reverse owner pointer per
// session.
type Store struct {
	redis  redis.UniversalClient
	config Config
}

// NewStore creates a session [Store] backed by the given Redis client.
func NewStore(redisClient redis.UniversalClient, cfg Config) *Store {
	if cfg.SessionPrefix == "" {
		cfg.SessionPrefix = DefaultSessionPrefix
	}
	if cfg.IndexPrefix == "" {
		cfg.IndexPrefix = DefaultIndexPrefix
	}
	if cfg.OwnerPrefix == "" {
		cfg.OwnerPrefix = DefaultOwnerPrefix
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.AbsoluteTTL <= 0 {
		cfg.AbsoluteTTL = DefaultAbsoluteTTL
	}
	if cfg.IndexTTL <= 0 {
		cfg.IndexTTL = cfg.AbsoluteTTL
	}
	if cfg.FallbackScanBudget <= 0 {
		cfg.FallbackScanBudget = DefaultScanBudget
	}
	if cfg.FallbackScanPage <= 0 {
		cfg.FallbackScanPage = defaultScanPage
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Store{redis: redisClient, config: cfg}
}

func (s *Store) key(sessionID string) string {
	return s.config.SessionPrefix + sessionID
}

func (s *Store) indexKey(userID string) string {
	return s.config.IndexPrefix + userID
}

func (s *Store) ownerKey(sessionID string) string {
	return s.config.OwnerPrefix + sessionID
}

// IdleTTL returns the configured idle expiry.
func (s *Store) IdleTTL() time.Duration {
	return s.config.IdleTTL
}

// AbsoluteTTL returns the configured absolute age bound.
func (s *Store) AbsoluteTTL() time.Duration {
	return s.config.AbsoluteTTL
}

// Save persists the session and (re)arms its idle expiry. CreatedAt is
// stamped on first save so the absolute clock starts at creation.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess.CreatedAt == 0 {
		sess.CreatedAt = time.Now().UnixMilli()
	}
	sess.SchemaVersion = CurrentSchemaVersion

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.SessionID), data, s.config.IdleTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get retrieves a session by ID and enforces the absolute age bound, no
// matter how recently the idle clock was touched. The idle expiry is NOT
// re-armed: reads leave the idle clock alone. Legacy payloads without a
// creation timestamp are stamped and rewritten at the current schema the
// first time they are seen.
//
//	Performance: 1 Redis GET on the hot path; legacy records add a rewrite.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	if err := s.maybeStampCreatedAt(ctx, key, sess); err != nil {
		return nil, err
	}

	if age := time.Since(time.UnixMilli(sess.CreatedAt)); age > s.config.AbsoluteTTL {
		if err := s.destroy(ctx, sess.UserID, sessionID); err != nil {
			return nil, err
		}
		return nil, errors.Join(redis.Nil, ErrSessionExpired)
	}

	return sess, nil
}

// Touch re-arms the idle expiry without reading or rewriting the record. It
// is the write that keeps an active session alive between state changes.
// Returns redis.Nil when the record no longer exists.
//
//	Performance: 1 Redis PEXPIRE.
func (s *Store) Touch(ctx context.Context, sessionID string) error {
	ok, err := s.redis.PExpire(ctx, s.key(sessionID), s.config.IdleTTL).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return redis.Nil
	}
	return nil
}

// Track registers the session in the owner's index so revocation can find
// it without scanning. Empty userID or sessionID is a no-op with zero store
// writes. Tracking is best-effort from the caller's point of view: a failed
// Track must never fail the login that triggered it, so callers log the
// error and move on.
//
//	Performance: 3 pipelined commands.
func (s *Store) Track(ctx context.Context, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return nil
	}

	indexKey := s.indexKey(userID)
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, indexKey, sessionID)
		pipe.Expire(ctx, indexKey, s.config.IndexTTL)
		pipe.Set(ctx, s.ownerKey(sessionID), userID, s.config.IndexTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes one session: record, owner pointer, and index membership.
// Deleting a session that is already gone is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Record already gone; the owner pointer may still linger.
			if err := s.redis.Del(ctx, s.ownerKey(sessionID)).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return err
	}

	return s.destroy(ctx, sess.UserID, sessionID)
}

// ActiveSessions returns the tracked session ids for the user that still
// have a live record. Tracked ids whose records expired are filtered out.
func (s *Store) ActiveSessions(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.indexKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	existsCmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		existsCmds[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	live := make([]string, 0, len(ids))
	for i, cmd := range existsCmds {
		v, cmdErr := cmd.Result()
		if cmdErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}
		if v == 1 {
			live = append(live, ids[i])
		}
	}
	return live, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// destroy removes the record, its owner pointer, and its index membership
// in one atomic script.
func (s *Store) destroy(ctx context.Context, userID, sessionID string) error {
	_, err := destroySessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sessionID), s.ownerKey(sessionID), s.indexKey(userID)},
		sessionID,
		userID,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// maybeStampCreatedAt rewrites records that predate the creation timestamp:
// stamp now, re-encode at the current schema, and SET with the remaining
// idle TTL so the rewrite does not extend the idle clock. Concurrent
// readers may both rewrite; both produce the same shape.
func (s *Store) maybeStampCreatedAt(ctx context.Context, key string, sess *Session) error {
	if sess.SchemaVersion == CurrentSchemaVersion && sess.CreatedAt != 0 {
		return nil
	}

	pttl, err := s.redis.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if pttl <= 0 {
		return nil
	}

	if sess.CreatedAt == 0 {
		sess.CreatedAt = time.Now().UnixMilli()
	}
	sess.SchemaVersion = CurrentSchemaVersion
	encoded, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, key, encoded, pttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
