package goSession

import (
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

func TestFromEnvReadsVariables(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_IDLE_TTL", "30m")
	t.Setenv("SESSION_ABSOLUTE_TTL", "72h")
	t.Setenv("SESSION_COOKIE_NAME", "app_sid")
	t.Setenv("SESSION_FALLBACK_SCAN", "true")
	t.Setenv("SESSION_SCAN_BUDGET", "8000")

	cfg := FromEnv()

	if cfg.Redis.Address != "redis.internal:6380" {
		t.Fatalf("address: %q", cfg.Redis.Address)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Fatalf("password: %q", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("db: %d", cfg.Redis.DB)
	}
	if cfg.Session.IdleTTL != 30*time.Minute {
		t.Fatalf("idle ttl: %v", cfg.Session.IdleTTL)
	}
	if cfg.Session.AbsoluteTTL != 72*time.Hour {
		t.Fatalf("absolute ttl: %v", cfg.Session.AbsoluteTTL)
	}
	if cfg.Session.CookieName != "app_sid" {
		t.Fatalf("cookie name: %q", cfg.Session.CookieName)
	}
	if !cfg.Session.FallbackScanEnabled {
		t.Fatal("expected fallback scan enabled")
	}
	if cfg.Session.FallbackScanBudget != 8000 {
		t.Fatalf("scan budget: %d", cfg.Session.FallbackScanBudget)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	// Unset environment yields the stock config.
	cfg := FromEnv()

	if cfg.Session.IdleTTL != session.DefaultIdleTTL {
		t.Fatalf("idle ttl: %v", cfg.Session.IdleTTL)
	}
	if cfg.Session.AbsoluteTTL != session.DefaultAbsoluteTTL {
		t.Fatalf("absolute ttl: %v", cfg.Session.AbsoluteTTL)
	}
	if cfg.Session.FallbackScanEnabled {
		t.Fatal("fallback scan must default off")
	}
	if cfg.Session.FallbackScanBudget != session.DefaultScanBudget {
		t.Fatalf("scan budget: %d", cfg.Session.FallbackScanBudget)
	}
	if cfg.Session.CookieName != "sid" {
		t.Fatalf("cookie name: %q", cfg.Session.CookieName)
	}
}

func TestFromEnvUnparseableValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SESSION_IDLE_TTL", "ninety minutes")
	t.Setenv("SESSION_ABSOLUTE_TTL", "-5h")
	t.Setenv("SESSION_FALLBACK_SCAN", "maybe")

	cfg := FromEnv()

	if cfg.Redis.DB != 0 {
		t.Fatalf("db should fall back to 0, got %d", cfg.Redis.DB)
	}
	if cfg.Session.IdleTTL != session.DefaultIdleTTL {
		t.Fatalf("idle ttl should fall back, got %v", cfg.Session.IdleTTL)
	}
	if cfg.Session.AbsoluteTTL != session.DefaultAbsoluteTTL {
		t.Fatalf("negative absolute ttl should fall back, got %v", cfg.Session.AbsoluteTTL)
	}
	if cfg.Session.FallbackScanEnabled {
		t.Fatal("unrecognized bool should fall back to off")
	}
}

func TestFromEnvClampsScanBudgetToFloor(t *testing.T) {
	t.Setenv("SESSION_SCAN_BUDGET", "50")

	cfg := FromEnv()

	if cfg.Session.FallbackScanBudget != session.MinScanBudget {
		t.Fatalf("expected floor %d, got %d", session.MinScanBudget, cfg.Session.FallbackScanBudget)
	}
}

func TestFromEnvBoolSpellings(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "On"} {
		t.Setenv("SESSION_FALLBACK_SCAN", v)
		if cfg := FromEnv(); !cfg.Session.FallbackScanEnabled {
			t.Fatalf("%q should enable the fallback scan", v)
		}
	}
	for _, v := range []string{"0", "false", "NO", "Off"} {
		t.Setenv("SESSION_FALLBACK_SCAN", v)
		if cfg := FromEnv(); cfg.Session.FallbackScanEnabled {
			t.Fatalf("%q should disable the fallback scan", v)
		}
	}
}
