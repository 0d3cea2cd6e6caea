package build

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	styles   StyleBuilder
	scripts  ScriptBuilder
	manifest ManifestGenerator
	recorder metrics.Recorder
}

// NewService creates a service over the given pipelines.
func NewService(styleBuilder StyleBuilder, scriptBuilder ScriptBuilder) *DefaultService {
	return &DefaultService{
		styles:   styleBuilder,
		scripts:  scriptBuilder,
		manifest: manifest.Generate,
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithManifestGenerator replaces manifest generation (for testing).
func (s *DefaultService) WithManifestGenerator(g ManifestGenerator) *DefaultService {
	s.manifest = g
	return s
}

// Run executes the requested tasks: styles and scripts concurrently, then
// the manifest. A failed compile task skips the manifest.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	ctx = observability.EnsureRunID(ctx)
	result := &Result{RunID: observability.GetContext(ctx).RunID, StartTime: startTime}

	finish := func(status Status, err error) (*Result, error) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		s.recorder.ObserveBuildDuration(result.Duration)
		s.recorder.IncBuildOutcome(outcomeLabel(status))
		return result, err
	}

	if req.Config == nil {
		return finish(StatusFailed, ferrors.ConfigurationError("config required").Build())
	}
	cfg := req.Config
	tasks := req.Tasks
	if len(tasks) == 0 {
		tasks = AllTasks
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	record := func(tr TaskResult) {
		mu.Lock()
		result.Tasks = append(result.Tasks, tr)
		mu.Unlock()
	}

	if slices.Contains(tasks, TaskStyles) {
		g.Go(func() error {
			if len(cfg.Styles.Inputs) == 0 {
				record(TaskResult{Task: TaskStyles, Status: StatusSkipped})
				return nil
			}
			tr := s.runTask(ctx, TaskStyles, func(ctx context.Context) error {
				return s.styles.Build(ctx, cfg.Styles.Inputs, styles.OptionsFromConfig(cfg.Styles))
			})
			record(tr)
			return tr.Err
		})
	}
	if slices.Contains(tasks, TaskScripts) {
		g.Go(func() error {
			if cfg.Scripts.Config == "" {
				record(TaskResult{Task: TaskScripts, Status: StatusSkipped})
				return nil
			}
			tr := s.runTask(ctx, TaskScripts, func(ctx context.Context) error {
				return s.scripts.Build(ctx, cfg.Scripts.Config)
			})
			record(tr)
			return tr.Err
		})
	}
	if err := g.Wait(); err != nil {
		return finish(statusFor(ctx), err)
	}

	if slices.Contains(tasks, TaskManifest) {
		tr := s.runTask(ctx, TaskManifest, func(ctx context.Context) error {
			m, err := s.manifest(ctx, manifest.Options{Pattern: cfg.Manifest.Pattern, ManifestPath: cfg.Manifest.Path})
			if err != nil {
				return err
			}
			result.ManifestEntries = len(m)
			s.recorder.SetManifestEntries(len(m))
			return nil
		})
		record(tr)
		if tr.Err != nil {
			return finish(statusFor(ctx), tr.Err)
		}
	}

	observability.InfoContext(ctx, "Build completed",
		logfields.Entries(result.ManifestEntries),
		logfields.DurationMS(float64(time.Since(startTime).Milliseconds())))
	return finish(StatusSuccess, nil)
}

func (s *DefaultService) runTask(ctx context.Context, task Task, fn func(context.Context) error) TaskResult {
	ctx = observability.WithTask(ctx, string(task))
	start := time.Now()
	observability.DebugContext(ctx, "Task starting")

	err := fn(ctx)
	tr := TaskResult{Task: task, Duration: time.Since(start), Err: err, Status: StatusSuccess}
	s.recorder.ObserveTaskDuration(string(task), tr.Duration)

	switch {
	case err == nil:
		s.recorder.IncTaskResult(string(task), metrics.ResultSuccess)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		tr.Status = StatusCanceled
		s.recorder.IncTaskResult(string(task), metrics.ResultCanceled)
	default:
		tr.Status = StatusFailed
		s.recorder.IncTaskResult(string(task), metrics.ResultFailed)
		observability.ErrorContext(ctx, "Task failed", logfields.Error(err))
	}
	return tr
}

func statusFor(ctx context.Context) Status {
	if ctx.Err() != nil {
		return StatusCanceled
	}
	return StatusFailed
}

func outcomeLabel(s Status) metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess, StatusSkipped:
		return metrics.BuildOutcomeSuccess
	case StatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
