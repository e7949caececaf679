// Package limiters provides purpose-specific rate limiters built on top of
// the internal/rate fixed-window primitive.
//
// # Limiters
//
//   - [LoginLimiter] — login attempts per identity.
//   - [PasswordResetLimiter] — password reset requests per identity.
//   - [EmailVerificationLimiter] — verification mail requests per identity.
//
// Identities are normalized (trimmed, lower-cased) before key building, so a
// throttle follows the account, not the spelling. Keys share one layout:
//
//	{prefix}{purpose}:{normalized identity}
//
// with purpose segments login, password_reset, and email_verification. The
// prefix is part of the wire contract with Redis and must stay stable across
// deploys.
//
// # Architecture boundaries
//
// Policy thresholds come from Config structs supplied at construction time,
// never from package constants. Each limiter owns exactly one purpose
// segment of the key namespace.
//
// # What this package must NOT do
//
//   - Import goSession or any sibling internal package except internal/rate.
//   - Decide consequences of a denial. Callers reject the request.
package limiters
