// Package session provides Redis-backed session records, the per-user
// revocation index, and the versioned binary payload codec.
//
// # TTL model
//
// Two independent clocks govern a record. The idle clock is the Redis key
// expiry: armed by Save, re-armed by Touch, never moved by reads. The
// absolute clock is the CreatedAt stamp inside the payload: every Get checks
// it against the configured bound and destroys records past it, no matter
// how fresh the idle clock is. Records that predate the stamp are stamped on
// first read.
//
// # Key layout
//
//	sess:{sessionID}          versioned binary payload, idle TTL
//	user_sessions:{userID}    SET of tracked session ids, long expiry
//	session_user:{sessionID}  owner pointer, long expiry
//
// Prefixes are configurable but wire contract: changing them orphans
// everything written under the old names.
//
// # Architecture boundaries
//
// This package owns Redis session state and nothing else. Rate limiting
// lives in internal/limiters; deciding what a missing or expired session
// means for a request belongs to the caller.
//
// # What this package must NOT do
//
//   - Import goSession (no upward imports).
//   - Interpret the opaque Data payload.
//   - Re-arm the idle clock on reads.
package session
