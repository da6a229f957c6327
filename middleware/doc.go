// Package middleware turns a strategy.Strategy into net/http request gating.
//
// [Guard] lets exempt paths through untouched and otherwise answers:
//
//   - 401 when the request carries no credential artifact at all;
//   - 403 when it carries one that resolves to nobody;
//   - 503 when resolution fails because a backend is down.
//
// A resolved principal is attached to the request context; read it with
// [PrincipalFromContext].
//
// # Architecture boundaries
//
// This package translates strategy results into HTTP status codes. It does NOT parse
// credentials or touch stores itself; every decision is delegated to the strategy.
package middleware
