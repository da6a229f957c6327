// Package session maps opaque session ids to user ids and decides when a mapping stops
// being live.
//
// # Backends
//
//   - [MemoryStore] - per-process sync.Map; state is lost on restart.
//   - [RedisStore] - shared across instances, records carry a native TTL.
//   - [IdentityStore] - durable records kept through an identity.Store.
//
// [Expiring] decorates any [Store] with a lookup-time duration check. [StoreManager]
// issues ids and turns misses and expiry into "no session".
//
// # Architecture boundaries
//
// This package owns session records and their lifetime. It does NOT read cookies or
// headers, resolve principals, or hash credentials; those belong to strategy and password.
//
// # What this package must NOT do
//
//   - Import the root authlayer package or strategy (no upward imports).
//   - Treat a backend failure as an absent session.
package session
