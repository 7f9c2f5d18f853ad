// Package prometheus exposes goIdentity engine metrics to Prometheus.
//
// [NewPrometheusExporter] wraps an engine in a client_golang Collector that
// reads a snapshot on every scrape. Counter names are goidentity_*_total; the
// single histogram is goidentity_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers mount Handler or
//     register the exporter themselves.
//   - Mutate engine state.
package prometheus
