// Package identity defines the principal and session records that authentication
// resolves to, and the [Store] contract through which they are persisted.
//
// # Domain types
//
//   - [Principal] - a user identity; create with [NewPrincipal].
//   - [SessionRecord] - a durable session_id -> user_id mapping.
//
// [MemoryStore] is a concurrency-safe in-process implementation used by tests and
// single-instance deployments. The postgres subpackage provides a durable one.
package identity
