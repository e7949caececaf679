package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RevokeResult describes one revocation pass.
type RevokeResult struct {
	// Deleted is the number of record deletions that hit a live key. A
	// tracked id whose record already expired does not count.
	Deleted int
	// Scanned is the number of keys the fallback scan inspected.
	Scanned int
	// Skipped counts payloads the fallback scan could not parse. Historical
	// data is untrusted; unparseable records are neither matched nor fatal.
	Skipped int
	// Fallback reports that the budgeted scan ran.
	Fallback bool
	// Truncated reports that the scan stopped on budget before the cursor
	// finished, so matching legacy sessions may remain. Operators raise the
	// budget and rerun.
	Truncated bool
}

// DeleteAllForUser destroys every session owned by userID and reports how
// many records were actually removed. Zero is a valid outcome for a user
// with nothing tracked.
//
// ATOMICITY NOTE: This operation is NOT fully atomic. It reads the user's
// index set (SMembers), then deletes records, owner pointers, and the index
// in a pipelined batch. A session created between the read and the deletes
// is not captured by this call; it will be caught by a repeat call, which is
// idempotent (already-deleted keys no-op). If the store is unreachable the
// error propagates: a failed revocation means "not yet safe", never
// "nothing to do".
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (RevokeResult, error) {
	var res RevokeResult
	if userID == "" {
		return res, nil
	}

	indexKey := s.indexKey(userID)
	sessionIDs, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return res, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if len(sessionIDs) == 0 {
		if !s.config.FallbackScanEnabled {
			// Nothing tracked and no scan allowed: drop the index key itself
			// and report zero.
			if err := s.redis.Del(ctx, indexKey).Err(); err != nil {
				return res, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			return res, nil
		}
		return s.revokeByScan(ctx, userID)
	}

	pipe := s.redis.Pipeline()
	delCmds := make([]*redis.IntCmd, len(sessionIDs))
	for i, id := range sessionIDs {
		delCmds[i] = pipe.Del(ctx, s.key(id))
		pipe.Del(ctx, s.ownerKey(id))
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return res, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	for _, cmd := range delCmds {
		n, cmdErr := cmd.Result()
		if cmdErr != nil {
			return res, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}
		res.Deleted += int(n)
	}

	return res, nil
}

// revokeByScan walks session record keys in cursor pages and deletes those
// whose payload names userID as the owner. The walk inspects at most the
// configured budget of keys and stops once spent, even mid-cursor:
// under-revoking with a small budget is the accepted price for bounded
// cost. Truncation is surfaced in the result and as a warn log so operators
// can raise the budget for stale accounts.
func (s *Store) revokeByScan(ctx context.Context, userID string) (RevokeResult, error) {
	res := RevokeResult{Fallback: true}
	pattern := s.config.SessionPrefix + "*"
	budget := s.config.FallbackScanBudget

	var cursor uint64
	for {
		remaining := budget - res.Scanned
		if remaining <= 0 {
			res.Truncated = true
			break
		}

		count := int64(s.config.FallbackScanPage)
		if int64(remaining) < count {
			count = int64(remaining)
		}

		keys, next, err := s.redis.Scan(ctx, cursor, pattern, count).Result()
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		// The COUNT passed to SCAN is a hint; the page may come back larger.
		// The budget line is enforced here.
		if len(keys) > remaining {
			keys = keys[:remaining]
			res.Truncated = true
		}
		res.Scanned += len(keys)

		matched, skipped, err := s.matchOwnedSessions(ctx, keys, userID)
		if err != nil {
			return res, err
		}
		res.Skipped += skipped

		if len(matched) > 0 {
			deleted, err := s.deleteMatched(ctx, matched)
			res.Deleted += deleted
			if err != nil {
				return res, err
			}
		}

		if res.Truncated || next == 0 {
			break
		}
		cursor = next
	}

	if res.Truncated {
		s.config.Logger.Warn("session revocation scan stopped on budget",
			zap.String("user_id", userID),
			zap.Int("budget", budget),
			zap.Int("scanned", res.Scanned),
			zap.Int("deleted", res.Deleted),
		)
	}

	// The index was empty to begin with; drop the key so it does not linger.
	if err := s.redis.Del(ctx, s.indexKey(userID)).Err(); err != nil {
		return res, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return res, nil
}

// matchOwnedSessions batch-reads the payloads behind keys and returns the
// keys owned by userID. Keys that vanished between SCAN and MGET are
// ignored; payloads that fail to decode are counted as skipped.
func (s *Store) matchOwnedSessions(ctx context.Context, keys []string, userID string) ([]string, int, error) {
	if len(keys) == 0 {
		return nil, 0, nil
	}

	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var (
		matched []string
		skipped int
	)
	for i, v := range values {
		if v == nil {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			skipped++
			continue
		}
		sess, decErr := Decode([]byte(raw))
		if decErr != nil {
			skipped++
			continue
		}
		if sess.UserID == userID {
			matched = append(matched, keys[i])
		}
	}
	return matched, skipped, nil
}

// deleteMatched pipelines per-key DELs for matched record keys and their
// owner pointers, returning how many record deletions hit.
func (s *Store) deleteMatched(ctx context.Context, keys []string) (int, error) {
	pipe := s.redis.Pipeline()
	delCmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		delCmds[i] = pipe.Del(ctx, key)
		sessionID := strings.TrimPrefix(key, s.config.SessionPrefix)
		pipe.Del(ctx, s.ownerKey(sessionID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var deleted int
	for _, cmd := range delCmds {
		n, cmdErr := cmd.Result()
		if cmdErr != nil {
			return deleted, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}
		deleted += int(n)
	}
	return deleted, nil
}
