// Package goSession manages Redis-backed session lifecycle and fixed-window
// abuse throttling: issuing, resolving, and revoking opaque sessions, and
// budgeting login, password reset, and email verification attempts.
//
// The package is designed for concurrent server workloads: Guard methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Guard], [Builder], [Config],
// the error sentinels, and value types (MetricsSnapshot, AuditEvent). Key
// layout, payload encoding, and limiter arithmetic live in the session and
// internal packages and never leak through the API: callers hold session ids
// as plain strings.
//
// # TTL model
//
// A session dies at whichever of two clocks fires first. The idle clock is
// the store expiry, re-armed by writes only; a session read a thousand times
// without a write still idles out. The absolute clock compares the record's
// creation timestamp with a hard age cap on every resolve and destroys the
// record in place when it is exceeded.
//
// # What this package must NOT do
//
//   - Expose Redis clients or encoding details in its public API.
//   - Perform I/O before Build (construction via Builder is allocation-only
//     until Build, which may dial).
//   - Interpret session Data; it is opaque caller state.
package goSession
