// Package rate implements the fixed-window counter primitive shared by the
// purpose-specific limiters.
//
// # Window semantics
//
// INCR first, then arm the window expiry only when the key carries none
// (PTTL < 0). A counter's expiry is never re-extended inside a window, and an
// attempt is consumed before the guarded action runs, whether or not that
// action later succeeds.
//
// # What this package must NOT do
//
//   - Build keys or fix policy (limits, windows, and key layout belong to
//     internal/limiters).
//   - Be imported outside the goSession module.
package rate
