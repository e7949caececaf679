package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 50000, "number of sessions to seed")
		users       = flag.Int("users", 1000, "number of distinct owners the sessions spread over")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (lookup + touch + ratelimit)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "sess:", "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, users, concurrency, and ops must be > 0")
		os.Exit(2)
	}
	if *users > *sessions {
		*users = *sessions
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goSession.Config{}
	cfg.Session.KeyPrefix = *prefix

	guard, err := goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = guard.Close(ctx) }()

	ids := make([]string, *sessions)
	owners := make([]string, *users)
	for i := range owners {
		owners[i] = fmt.Sprintf("load-u-%d", i)
	}

	fmt.Printf("seeding %d sessions across %d users...\n", *sessions, *users)
	startSeed := time.Now()
	payload := []byte(`{"source":"loadtest"}`)
	for i := 0; i < *sessions; i++ {
		sess, err := guard.IssueSession(ctx, owners[i%*users], payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		ids[i] = sess.SessionID
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	lookupStats := runPhase(ctx, *ops, *concurrency, func(ctx context.Context, r *rand.Rand, _ int) error {
		_, err := guard.GetSession(ctx, ids[r.Intn(len(ids))])
		return err
	})

	touchStats := runPhase(ctx, *ops, *concurrency, func(ctx context.Context, r *rand.Rand, _ int) error {
		return guard.TouchSession(ctx, ids[r.Intn(len(ids))])
	})

	// Spread over enough identities that most attempts stay within budget;
	// denials are outcomes here, not failures.
	limiterStats := runPhase(ctx, *ops, *concurrency, func(ctx context.Context, r *rand.Rand, _ int) error {
		_, err := guard.AllowLogin(ctx, fmt.Sprintf("load-id-%d", r.Intn(1<<16)))
		return err
	})

	// Revocation last: it empties the keyspace the other phases read.
	revokeStats := runPhase(ctx, *users, *concurrency, func(ctx context.Context, _ *rand.Rand, i int) error {
		_, err := guard.RevokeUserSessions(ctx, owners[i])
		return err
	})

	fmt.Println("---- results ----")
	printStats("lookup", lookupStats)
	printStats("touch", touchStats)
	printStats("ratelimit", limiterStats)
	printStats("revoke", revokeStats)

	snap := guard.MetricsSnapshot()
	fmt.Println("---- counters ----")
	fmt.Printf("issued=%d hits=%d misses=%d revoke_calls=%d revoked_records=%d denials=%d store_errors=%d\n",
		snap.Counters[goSession.MetricSessionIssued],
		snap.Counters[goSession.MetricSessionLookupHit],
		snap.Counters[goSession.MetricSessionLookupMiss],
		snap.Counters[goSession.MetricSessionsRevoked],
		snap.Counters[goSession.MetricRevokedSessionRecords],
		snap.Counters[goSession.MetricRateLimitHit],
		snap.Counters[goSession.MetricStoreUnavailable],
	)
	if buckets, ok := snap.Histograms[goSession.MetricLookupLatency]; ok {
		fmt.Printf("lookup latency buckets (<=5ms..>500ms): %v\n", buckets)
	}
}

type phaseOp func(ctx context.Context, r *rand.Rand, i int) error

func runPhase(ctx context.Context, ops, concurrency int, op phaseOp) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(ctx, r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
