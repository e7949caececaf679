package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// cmdRecorder is a go-redis Hook that records command names so tests can
// assert which operations actually hit the store.
type cmdRecorder struct {
	mu    sync.Mutex
	names []string
}

func (h *cmdRecorder) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdRecorder) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.record(cmd.Name())
		return next(ctx, cmd)
	}
}

func (h *cmdRecorder) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.record(cmd.Name())
		}
		return next(ctx, cmds)
	}
}

func (h *cmdRecorder) record(name string) {
	h.mu.Lock()
	h.names = append(h.names, strings.ToLower(name))
	h.mu.Unlock()
}

func (h *cmdRecorder) Count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.names {
		if c == name {
			n++
		}
	}
	return n
}

func (h *cmdRecorder) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.names)
}

func (h *cmdRecorder) Reset() {
	h.mu.Lock()
	h.names = nil
	h.mu.Unlock()
}

// newRecordedStore builds a store whose client records command names.
// go-redis emits handshake commands on first use; a warmup ping plus reset
// keeps them out of the measurements.
func newRecordedStore(t *testing.T, cfg Config) (*Store, *miniredis.Miniredis, *redis.Client, *cmdRecorder, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	recorder := &cmdRecorder{}
	rdb.AddHook(recorder)

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}
	recorder.Reset()

	store := NewStore(rdb, cfg)
	return store, mr, rdb, recorder, func() {
		rdb.Close()
		mr.Close()
	}
}

func seedTrackedSessions(t *testing.T, store *Store, userID string, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sid := fmt.Sprintf("%s-s%d", userID, i+1)
		if err := store.Save(ctx, testSession(sid, userID)); err != nil {
			t.Fatalf("save %s: %v", sid, err)
		}
		if err := store.Track(ctx, userID, sid); err != nil {
			t.Fatalf("track %s: %v", sid, err)
		}
		ids = append(ids, sid)
	}
	return ids
}

func TestRevokeDeletesAllTrackedSessions(t *testing.T) {
	store, mr, rdb, _, done := newRecordedStore(t, Config{})
	defer done()
	ctx := context.Background()

	ids := seedTrackedSessions(t, store, "u-1", 3)
	seedTrackedSessions(t, store, "u-2", 1)

	res, err := store.DeleteAllForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.Deleted != 3 {
		t.Fatalf("expected 3 deleted records, got %+v", res)
	}
	if res.Fallback || res.Truncated {
		t.Fatalf("indexed revocation must not fall back to scanning: %+v", res)
	}

	for _, sid := range ids {
		if mr.Exists("sess:" + sid) {
			t.Errorf("record %s should be gone", sid)
		}
		if mr.Exists("session_user:" + sid) {
			t.Errorf("owner pointer for %s should be gone", sid)
		}
	}
	if mr.Exists("user_sessions:u-1") {
		t.Error("index key should be removed")
	}

	// The other user's session is untouched.
	if err := rdb.Get(ctx, "sess:u-2-s1").Err(); err != nil {
		t.Errorf("unrelated session should survive: %v", err)
	}
}

func TestRevokeCountsOnlyRecordDeletionsThatHit(t *testing.T) {
	store, _, rdb, _, done := newRecordedStore(t, Config{})
	defer done()
	ctx := context.Background()

	seedTrackedSessions(t, store, "u-1", 3)

	// One record idles out: the key vanishes while the index entry remains.
	if err := rdb.Del(ctx, "sess:u-1-s2").Err(); err != nil {
		t.Fatalf("expire record: %v", err)
	}

	res, err := store.DeleteAllForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.Deleted != 2 {
		t.Fatalf("count must reflect deletions that hit a live key, got %+v", res)
	}
}

func TestRevokeEmptyIndexFallbackDisabledSkipsScan(t *testing.T) {
	store, mr, rdb, recorder, done := newRecordedStore(t, Config{})
	defer done()
	ctx := context.Background()

	// Legacy sessions exist but nothing is tracked for the user.
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("sess:lg-%d", i+1)
		if err := rdb.Set(ctx, key, encodeLegacyV1Payload(t, "u-1", nil), time.Hour).Err(); err != nil {
			t.Fatalf("seed legacy record: %v", err)
		}
	}
	recorder.Reset()

	res, err := store.DeleteAllForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.Deleted != 0 || res.Fallback {
		t.Fatalf("disabled fallback must report zero without scanning, got %+v", res)
	}

	if n := recorder.Count("scan"); n != 0 {
		t.Fatalf("no SCAN may be issued when the fallback is disabled, saw %d", n)
	}
	// SMEMBERS + DEL of the empty index key and nothing else.
	if total := recorder.Total(); total > 2 {
		t.Errorf("expected at most 2 commands, saw %d", total)
	}

	for i := 0; i < 3; i++ {
		if !mr.Exists(fmt.Sprintf("sess:lg-%d", i+1)) {
			t.Error("legacy records must survive when the fallback is disabled")
		}
	}
}

func TestRevokeEmptyUserIDIsNoOp(t *testing.T) {
	store, _, _, recorder, done := newRecordedStore(t, Config{})
	defer done()

	res, err := store.DeleteAllForUser(context.Background(), "")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res != (RevokeResult{}) {
		t.Fatalf("expected zero result, got %+v", res)
	}
	if recorder.Total() != 0 {
		t.Fatalf("empty userID must not touch the store, saw %d commands", recorder.Total())
	}
}

func TestRevokeFallbackScanFindsLegacySessions(t *testing.T) {
	store, mr, rdb, _, done := newRecordedStore(t, Config{FallbackScanEnabled: true})
	defer done()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("sess:lga-%d", i+1)
		if err := rdb.Set(ctx, key, encodeLegacyV1Payload(t, "u-1", nil), time.Hour).Err(); err != nil {
			t.Fatalf("seed legacy record: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		key := fmt.Sprintf("sess:lgb-%d", i+1)
		if err := rdb.Set(ctx, key, encodeLegacyV1Payload(t, "u-2", nil), time.Hour).Err(); err != nil {
			t.Fatalf("seed legacy record: %v", err)
		}
	}

	res, err := store.DeleteAllForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !res.Fallback {
		t.Fatalf("expected the fallback scan to run, got %+v", res)
	}
	if res.Truncated {
		t.Fatalf("six keys fit well inside the default budget, got %+v", res)
	}
	if res.Deleted != 4 {
		t.Fatalf("expected all four legacy sessions revoked, got %+v", res)
	}
	if res.Scanned != 6 {
		t.Fatalf("expected 6 keys inspected, got %+v", res)
	}

	for i := 0; i < 4; i++ {
		if mr.Exists(fmt.Sprintf("sess:lga-%d", i+1)) {
			t.Error("matched legacy record should be deleted")
		}
	}
	for i := 0; i < 2; i++ {
		if !mr.Exists(fmt.Sprintf("sess:lgb-%d", i+1)) {
			t.Error("another user's legacy record must survive")
		}
	}
}

func TestRevokeFallbackScanStopsAtBudget(t *testing.T) {
	store, mr, rdb, _, done := newRecordedStore(t, Config{
		FallbackScanEnabled: true,
		FallbackScanBudget:  2,
	})
	defer done()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("sess:lg-%d", i+1)
		if err := rdb.Set(ctx, key, encodeLegacyV1Payload(t, "u-1", nil), time.Hour).Err(); err != nil {
			t.Fatalf("seed legacy record: %v", err)
		}
	}

	res, err := store.DeleteAllForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !res.Fallback || !res.Truncated {
		t.Fatalf("expected a truncated fallback pass, got %+v", res)
	}
	if res.Scanned > 2 {
		t.Fatalf("budget of 2 must cap inspected keys, got %+v", res)
	}
	if res.Deleted > 2 {
		t.Fatalf("at most 2 sessions may be revoked under budget 2, got %+v", res)
	}

	var remaining int
	for i := 0; i < 5; i++ {
		if mr.Exists(fmt.Sprintf("sess:lg-%d", i+1)) {
			remaining++
		}
	}
	if remaining < 3 {
		t.Fatalf("expected at least 3 records to survive the bounded pass, got %d", remaining)
	}
}

func TestRevokeFallbackSkipsMalformedPayloads(t *testing.T) {
	store, mr, rdb, _, done := newRecordedStore(t, Config{FallbackScanEnabled: true})
	defer done()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		key := fmt.Sprintf("sess:ok-%d", i+1)
		if err := rdb.Set(ctx, key, encodeLegacyV1Payload(t, "u-1", nil), time.Hour).Err(); err != nil {
			t.Fatalf("seed legacy record: %v", err)
		}
	}
	if err := rdb.Set(ctx, "sess:junk", "not a session payload", time.Hour).Err(); err != nil {
		t.Fatalf("seed junk: %v", err)
	}
	if err := rdb.Set(ctx, "sess:other", encodeLegacyV1Payload(t, "u-2", nil), time.Hour).Err(); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	res, err := store.DeleteAllForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.Deleted != 2 {
		t.Fatalf("expected 2 matched deletions, got %+v", res)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped payload, got %+v", res)
	}
	if res.Truncated {
		t.Fatalf("skipping is not truncation, got %+v", res)
	}

	if !mr.Exists("sess:junk") {
		t.Error("unparseable records are skipped, never deleted")
	}
	if !mr.Exists("sess:other") {
		t.Error("another user's record must survive")
	}
}

func TestRevokeFailsClosedWhenRedisDown(t *testing.T) {
	store, mr, _, _, done := newRecordedStore(t, Config{})
	defer done()

	seedTrackedSessions(t, store, "u-1", 2)
	mr.Close()

	_, err := store.DeleteAllForUser(context.Background(), "u-1")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("revocation must fail closed on store errors, got %v", err)
	}
}
