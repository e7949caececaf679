// Package prometheus renders guard metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [goSession.Guard] and exposes an
// [http.Handler] that writes every counter and histogram on scrape. Counter
// names follow gosession_*_total; the single histogram is
// gosession_lookup_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in a global Prometheus registry; callers mount the Handler.
//   - Mutate guard state.
package prometheus
