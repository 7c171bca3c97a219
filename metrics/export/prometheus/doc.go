// Package prometheus provides Prometheus collectors for afterauth metrics.
//
// [NewPrometheusExporter] accepts an [afterauth.Engine] and exposes an [http.Handler]
// that renders all afterauth counters and histograms in Prometheus text exposition format.
// Counter names are prefixed afterauth_*_total; the single histogram is
// afterauth_flow_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
