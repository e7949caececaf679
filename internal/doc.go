// Package internal contains helper utilities that are intentionally private
// to goSession, including secure session id generation.
//
// # Sub-packages
//
//   - limiters — purpose-bound fixed-window limiters (login, password reset, email verification)
//   - rate — core Redis-backed rate limit primitives
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
