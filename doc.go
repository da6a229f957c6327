// Package authlayer is a pluggable authentication layer for net/http services.
//
// A [Builder] reads a [Config] (normally from the environment via [Load]) and produces a
// [Runtime]: the [strategy.Strategy] selected by AUTH_TYPE, the request gate built from
// it, and the [Service] facade that registers principals, checks passwords, and manages
// the single session and password reset token held on each principal.
//
//	cfg, err := authlayer.Load()
//	rt, err := authlayer.New().WithConfig(cfg).WithIdentityStore(store).Build()
//	defer rt.Close()
//	http.ListenAndServe(cfg.ListenAddr, rt.Guard()(mux))
//
// # Architecture boundaries
//
// authlayer is the public surface. Credential parsing lives in strategy, session storage
// in session, principal persistence in identity, hashing in password. This package wires
// them together and owns audit dispatch.
//
// # What this package must NOT do
//
//   - Put emails, passwords, session ids or reset tokens in audit events or logs.
//   - Report an unknown email to ValidLogin faster than a wrong password.
//   - Treat a store failure as "not found".
package authlayer
