// Package prometheus exposes StatelessCSRF metrics through
// github.com/prometheus/client_golang.
//
// [NewExporter] wraps a [statelesscsrf.Signer] in a prometheus.Collector.
// Counter names are prefixed statelesscsrf_*_total; the single histogram is
// statelesscsrf_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers pass a
//     Registerer or mount Handler.
//   - Mutate signer state.
package prometheus
