package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
)

// Service is the canonical interface for executing asset builds.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// StyleBuilder compiles stylesheet inputs (implemented by *styles.Pipeline).
type StyleBuilder interface {
	Build(ctx context.Context, inputs []string, opts styles.Options) error
}

// ScriptBuilder bundles the configs in a file (implemented by *scripts.Pipeline).
type ScriptBuilder interface {
	Build(ctx context.Context, configPath string) error
}

// ManifestGenerator writes the cache-busting manifest.
type ManifestGenerator func(ctx context.Context, opts manifest.Options) (manifest.Manifest, error)

// Task names a unit of work in a build.
type Task string

const (
	TaskStyles   Task = "styles"
	TaskScripts  Task = "scripts"
	TaskManifest Task = "manifest"
)

// AllTasks is the default task set, in execution order.
var AllTasks = []Task{TaskStyles, TaskScripts, TaskManifest}

// Request contains all inputs required to execute a build.
type Request struct {
	Config *config.Config
	// Tasks restricts the run; empty means AllTasks.
	Tasks []Task
}

// Status represents the outcome of a build or a task.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusCanceled Status = "canceled"
)

// IsSuccess returns true if the build completed without failure.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusSkipped
}

// TaskResult is the outcome of one task.
type TaskResult struct {
	Task     Task
	Status   Status
	Duration time.Duration
	Err      error
}

// Result contains the outcome of a build execution.
type Result struct {
	RunID           string
	Status          Status
	Tasks           []TaskResult
	ManifestEntries int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// Task returns the result for t, if it ran.
func (r *Result) Task(t Task) (TaskResult, bool) {
	for _, tr := range r.Tasks {
		if tr.Task == t {
			return tr, true
		}
	}
	return TaskResult{}, false
}
