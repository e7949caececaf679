// Package middleware exposes net/http adapters over a goSession.Guard.
//
// [RequireSession] reads the session cookie, resolves it through
// Guard.GetSession, and either injects the session into the request context
// or rejects the request. Status mapping:
//
//   - no cookie / unknown id → 401
//   - session past its absolute lifetime → cookie cleared + 401
//   - session store unreachable → 503
//
// # What this package must NOT do
//
//   - Touch Redis or decode session payloads (the Guard handles I/O).
//   - Extend session lifetimes; reads never re-arm the idle clock.
//   - Make authorization decisions beyond pass/reject.
package middleware
