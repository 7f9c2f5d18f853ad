// Package rate implements the failed-login limiter.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key layout:
//   - <prefix>:al:<sha256(email)[:16]>  failures per email
//   - <prefix>:ali:<ip>                 failures per client IP
//
// Only Redis counters are written; the user store is never touched.
//
// # What this package must NOT do
//
//   - Decide how a limit is reported to callers (the Engine maps ErrRateLimited).
//   - Be imported outside the goIdentity module.
package rate
