// Package otel records authlayer metrics as OpenTelemetry Int64 counters.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
package otel
