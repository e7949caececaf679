package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one counter for exporters. Name and Help are the wire
// contract; dashboards key on them, so treat entries as append-only.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs maps every core counter to its exposition name. Both
// exporters iterate this table so they can never drift apart.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionIssued, Name: "gosession_sessions_issued_total", Help: "Sessions issued."},
	{ID: goSession.MetricSessionLookupHit, Name: "gosession_session_lookup_hit_total", Help: "Session lookups that found a live record."},
	{ID: goSession.MetricSessionLookupMiss, Name: "gosession_session_lookup_miss_total", Help: "Session lookups that found nothing."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_sessions_expired_total", Help: "Sessions destroyed for exceeding the absolute lifetime."},
	{ID: goSession.MetricSessionDestroyed, Name: "gosession_sessions_destroyed_total", Help: "Sessions destroyed by logout."},
	{ID: goSession.MetricSessionsRevoked, Name: "gosession_revocations_total", Help: "Bulk revocation calls."},
	{ID: goSession.MetricRevokedSessionRecords, Name: "gosession_revoked_session_records_total", Help: "Session records removed by bulk revocation."},
	{ID: goSession.MetricRevocationFallback, Name: "gosession_revocation_fallback_total", Help: "Revocations that fell back to a keyspace scan."},
	{ID: goSession.MetricRevocationTruncated, Name: "gosession_revocation_truncated_total", Help: "Fallback scans cut short by the key budget."},
	{ID: goSession.MetricTrackFailure, Name: "gosession_track_failure_total", Help: "Session index registrations that failed."},
	{ID: goSession.MetricRateLimitHit, Name: "gosession_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: goSession.MetricPasswordResetRateLimited, Name: "gosession_password_reset_rate_limited_total", Help: "Rate-limited password reset requests."},
	{ID: goSession.MetricEmailVerificationRateLimited, Name: "gosession_email_verification_rate_limited_total", Help: "Rate-limited email verification requests."},
	{ID: goSession.MetricStoreUnavailable, Name: "gosession_store_unavailable_total", Help: "Operations that failed against the session store."},
}

// HistogramDefs lists the histogram-backed metrics. Currently only lookup
// latency records samples.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLookupLatency, Name: "gosession_lookup_latency_seconds", Help: "Session lookup latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching the
// core's millisecond thresholds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix carries the bounds in metric-name-safe form for
// backends that cannot express le labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or trims a raw snapshot slice to the fixed bucket
// count so exporters never index out of range.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
