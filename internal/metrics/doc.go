// Package metrics provides build metrics for the asset pipelines.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never need nil checks:
//
//	svc := build.NewService(stylePipeline, scriptPipeline).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The CLI exports the Prometheus registry as a node-exporter textfile (see
// WriteTextfile).
package metrics
