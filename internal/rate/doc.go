// Package rate throttles failed logins with Redis counters.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE NX in one MULTI. Key prefixes:
//   - al:  failed logins per email (sha256, truncated)
//   - ali: failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide what a failed login is. The caller reports failures.
//   - Be imported outside the authlayer module.
package rate
