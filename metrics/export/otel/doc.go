// Package otel provides OpenTelemetry metric exporter bindings for
// StatelessCSRF counters and histograms.
//
// [NewOTelExporter] registers one Int64ObservableCounter per operation
// (statelesscsrf.token.issue, statelesscsrf.token.validate and
// statelesscsrf.key.reload) with an "outcome" attribute per series, plus an
// Int64ObservableGauge per histogram bucket. A single callback reads
// [statelesscsrf.Signer.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate signer state.
package otel
