package goSession

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrEthical07/goSession/session"
)

// FromEnv builds a Config from the process environment, loading a .env file
// first when one exists. Call it once at startup; the Guard copies the
// result at Build time, so later environment changes have no effect on a
// running Guard.
//
// Recognized variables:
//
//	REDIS_ADDR                  host:port of the session store
//	REDIS_PASSWORD              store password, empty for none
//	REDIS_DB                    numeric database index
//	SESSION_IDLE_TTL            rolling inactivity window, e.g. "1h"
//	SESSION_ABSOLUTE_TTL        hard session age cap, e.g. "336h"
//	SESSION_COOKIE_NAME         cookie carrying the session id
//	SESSION_FALLBACK_SCAN       "true" enables the legacy revocation scan
//	SESSION_SCAN_BUDGET         max keys one fallback pass may inspect
//
// Unset or unparseable values fall back to defaults rather than failing, so
// a half-configured environment still yields a working Guard. The scan
// budget is raised to session.MinScanBudget when set below it.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)

	cfg.Session.IdleTTL = envDuration("SESSION_IDLE_TTL", cfg.Session.IdleTTL)
	cfg.Session.AbsoluteTTL = envDuration("SESSION_ABSOLUTE_TTL", cfg.Session.AbsoluteTTL)
	if v := os.Getenv("SESSION_COOKIE_NAME"); v != "" {
		cfg.Session.CookieName = v
	}

	cfg.Session.FallbackScanEnabled = envBool("SESSION_FALLBACK_SCAN", cfg.Session.FallbackScanEnabled)
	cfg.Session.FallbackScanBudget = envInt("SESSION_SCAN_BUDGET", cfg.Session.FallbackScanBudget)
	if cfg.Session.FallbackScanBudget < session.MinScanBudget {
		cfg.Session.FallbackScanBudget = session.MinScanBudget
	}

	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
