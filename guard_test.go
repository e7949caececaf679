package goSession

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/session"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func newTestGuard(t *testing.T, cfg Config) (*Guard, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	guard, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return guard, mr, func() {
		_ = guard.Close(context.Background())
		_ = rdb.Close()
		mr.Close()
	}
}

func TestBuildDefaults(t *testing.T) {
	guard, _, done := newTestGuard(t, Config{})
	defer done()

	if got := guard.CookieName(); got != "sid" {
		t.Fatalf("expected default cookie name sid, got %q", got)
	}
	if _, err := guard.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	b := New().WithRedis(rdb)
	guard, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer func() { _ = guard.Close(context.Background()) }()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	} else if !strings.Contains(err.Error(), "already used") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildRequiresRedisClientOrAddress(t *testing.T) {
	if _, err := New().WithConfig(Config{}).Build(); err == nil {
		t.Fatal("expected Build to fail without a client or address")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	cfg := Config{}
	cfg.Session.IdleTTL = -1

	if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected Build to reject negative IdleTTL")
	}
}

func TestBuildRaisesScanBudgetToFloor(t *testing.T) {
	cfg := Config{}
	cfg.Session.FallbackScanBudget = 100

	guard, _, done := newTestGuard(t, cfg)
	defer done()

	if got := guard.config.Session.FallbackScanBudget; got != session.MinScanBudget {
		t.Fatalf("expected budget raised to %d, got %d", session.MinScanBudget, got)
	}
}

func TestCloseThenOpsReturnClosed(t *testing.T) {
	guard, _, done := newTestGuard(t, Config{})
	defer done()

	if err := guard.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := guard.IssueSession(context.Background(), "u-1", nil); !errors.Is(err, ErrGuardClosed) {
		t.Fatalf("expected ErrGuardClosed from IssueSession, got %v", err)
	}
	if _, err := guard.GetSession(context.Background(), "s-1"); !errors.Is(err, ErrGuardClosed) {
		t.Fatalf("expected ErrGuardClosed from GetSession, got %v", err)
	}
	if _, err := guard.AllowLogin(context.Background(), "alice"); !errors.Is(err, ErrGuardClosed) {
		t.Fatalf("expected ErrGuardClosed from AllowLogin, got %v", err)
	}
	if _, err := guard.RevokeUserSessions(context.Background(), "u-1"); !errors.Is(err, ErrGuardClosed) {
		t.Fatalf("expected ErrGuardClosed from RevokeUserSessions, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	guard, _, done := newTestGuard(t, Config{})
	defer done()

	if err := guard.Close(context.Background()); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := guard.Close(context.Background()); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestCloseLeavesInjectedClientOpen(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	guard, err := New().WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := guard.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("injected client should survive guard close: %v", err)
	}
}

func TestMetricsSnapshotEmptyWhenDisabled(t *testing.T) {
	guard, _, done := newTestGuard(t, Config{})
	defer done()

	if _, err := guard.IssueSession(context.Background(), "u-1", nil); err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	snap := guard.MetricsSnapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot with metrics disabled, got %+v", snap)
	}
}
