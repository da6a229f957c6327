// Package metrics defines the [Recorder] hooks that strategies, middleware and session
// managers report to.
//
// Exporters live in metrics/export: prometheus registers client_golang counters, otel
// records on a caller-supplied Meter. [Nop] is the default.
//
// # What this package must NOT do
//
//   - Import any other authlayer package.
//   - Register collectors globally.
package metrics
