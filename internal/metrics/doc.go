// Package metrics provides build and query observability for wikii.
//
// Components receive a Recorder through options and default to NoopRecorder,
// so nothing needs nil checks:
//
//	builder := site.NewBuilder(cfg, site.WithRecorder(metrics.NoopRecorder{}))
//
// When server.metrics is enabled the CLI swaps in a PrometheusRecorder bound to
// a private registry and exposes it on /metrics through HTTPHandler.
package metrics
