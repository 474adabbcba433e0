// Package metrics records build observations.
//
// Components receive a Recorder and default to NoopRecorder, so the build
// pipeline never checks whether metrics are enabled:
//
//	svc := build.NewService(cfg, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// A build is a one-shot process, so instead of serving a scrape endpoint the
// Prometheus registry is written in text exposition format with WriteTextfile,
// ready for the node exporter textfile collector.
package metrics
