// Package strategy resolves the principal behind an HTTP request.
//
// Every variant implements [Strategy]:
//
//   - [Null] - decides which paths need authentication; never resolves anyone.
//   - [Basic] - HTTP Basic credentials checked against the identity store.
//   - [Session] - an opaque id from a cookie, resolved through a session.Manager.
//   - [Bearer] - a signed token whose subject is the principal id.
//
// Resolution short-circuits to (nil, nil) at the first failing step: a missing header,
// malformed encoding, unknown user, wrong password or dead session all look the same to
// the caller. A non-nil error means a backend failed and is never a substitute for
// "unauthenticated".
//
// # What this package must NOT do
//
//   - Write HTTP responses; the middleware package owns status codes.
//   - Log credentials or session ids.
package strategy
