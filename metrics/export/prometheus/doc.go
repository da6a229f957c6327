// Package prometheus records authlayer metrics as client_golang counters.
//
// [New] registers the counters on a caller-owned registry and [Exporter.Handler] serves
// it in the Prometheus exposition format.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
package prometheus
