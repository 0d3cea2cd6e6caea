package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration    *prom.HistogramVec
	taskResults     *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	watchCycles     *prom.CounterVec
	manifestEntries prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "assetbuilder",
			Name:      "task_duration_seconds",
			Help:      "Duration of individual pipeline tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetbuilder",
			Name:      "task_results_total",
			Help:      "Task result counts by outcome",
		}, []string{"task", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "assetbuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetbuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		watchCycles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetbuilder",
			Name:      "watch_cycles_total",
			Help:      "Completed watch cycles by pipeline and result",
		}, []string{"pipeline", "result"}),
		manifestEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: "assetbuilder",
			Name:      "manifest_entries",
			Help:      "Number of entries in the last generated manifest",
		}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.buildDuration, pr.buildOutcome, pr.watchCycles, pr.manifestEntries)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncWatchCycle(pipeline string, result ResultLabel) {
	if p == nil {
		return
	}
	p.watchCycles.WithLabelValues(pipeline, string(result)).Inc()
}

func (p *PrometheusRecorder) SetManifestEntries(n int) {
	if p == nil {
		return
	}
	p.manifestEntries.Set(float64(n))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func WriteTextfile(reg *prom.Registry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
