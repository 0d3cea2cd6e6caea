package scripts

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

// Pipeline runs bundle configs through an Engine.
type Pipeline struct {
	engine   Engine
	mode     config.BuildMode
	options  BuildOptions
	recorder metrics.Recorder
	onCycle  CycleFunc
}

// CycleFunc observes the end of a watch cycle. failures counts the build
// errors reported during the cycle.
type CycleFunc func(cycle, failures int)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBuildOptions sets caller options merged over the defaults.
func WithBuildOptions(opts BuildOptions) Option {
	return func(p *Pipeline) { p.options = opts }
}

// WithRecorder records watch cycle outcomes.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithCycleHook calls fn after every completed watch cycle, from the
// subscription goroutine.
func WithCycleHook(fn CycleFunc) Option {
	return func(p *Pipeline) { p.onCycle = fn }
}

// NewPipeline creates a script pipeline bound to mode.
func NewPipeline(engine Engine, mode config.BuildMode, opts ...Option) *Pipeline {
	p := &Pipeline{engine: engine, mode: mode, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// logWarning is the default warning logger; bundler warnings are benign.
func logWarning(w Warning) {
	slog.Info("Bundler warning: "+w.Text, logfields.Config(w.Config), "location", w.Location)
}

// BuildOptions returns the effective options: defaults derived from the
// build mode, overlaid with the caller's options.
func (p *Pipeline) BuildOptions() BuildOptions {
	minify := p.mode.Production()
	defaults := BuildOptions{
		WarningLogger: logWarning,
		Minify:        &minify,
		Define: map[string]string{
			"process.env.NODE_ENV": strconv.Quote(p.mode.String()),
		},
	}
	return defaults.merge(p.options)
}

// Build bundles every config in the file concurrently. Any failure fails the call.
func (p *Pipeline) Build(ctx context.Context, configPath string) error {
	cfgs, err := LoadConfigs(configPath)
	if err != nil {
		return err
	}
	opts := p.BuildOptions()

	g, gctx := errgroup.WithContext(ctx)
	for _, cfg := range cfgs {
		g.Go(func() error {
			start := time.Now()
			if err := p.engine.Build(gctx, cfg, opts); err != nil {
				return err
			}
			slog.Info("JS bundle built",
				logfields.Config(cfg.Label()),
				logfields.DurationMS(float64(time.Since(start).Milliseconds())))
			return nil
		})
	}
	return g.Wait()
}

// Watch starts a watch session over every config in the file and returns
// once the first full build cycle has ended. The session keeps rebuilding in
// the background until ctx is done. Build errors are logged and never
// returned.
func (p *Pipeline) Watch(ctx context.Context, configPath string) error {
	cfgs, err := LoadConfigs(configPath)
	if err != nil {
		return err
	}
	events, err := p.engine.Watch(ctx, cfgs, p.BuildOptions())
	if err != nil {
		return err
	}

	sub := newSubscription(p.recorder, p.onCycle)
	go sub.run(events)

	select {
	case <-sub.ready:
		return nil
	case <-sub.ended:
		// The stream may close right after the first cycle-end.
		select {
		case <-sub.ready:
			return nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return ferrors.RuntimeError("watch session ended before the first build completed").
			WithContext("config", configPath).
			Build()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// subscription consumes a session's event stream. It signals ready exactly
// once, on the first cycle end, and keeps logging later cycles until the
// stream closes.
type subscription struct {
	ready    chan struct{}
	ended    chan struct{}
	recorder metrics.Recorder
	onCycle  CycleFunc

	cycle    int
	failures int
}

func newSubscription(r metrics.Recorder, onCycle CycleFunc) *subscription {
	return &subscription{ready: make(chan struct{}), ended: make(chan struct{}), recorder: r, onCycle: onCycle}
}

func (s *subscription) run(events <-chan Event) {
	defer close(s.ended)
	signaled := false
	for ev := range events {
		switch ev.Kind {
		case EventCycleStart:
			s.cycle++
			s.failures = 0
			slog.Info("JS build starting...", logfields.Cycle(s.cycle))
		case EventBundleGenerated:
			if ev.Bundle != nil {
				slog.Debug("JS bundle generated", logfields.Config(ev.Config), logfields.Files(len(ev.Bundle.Files())))
				ev.Bundle.Close()
			}
		case EventBuildError:
			s.failures++
			err := ferrors.WatchCycleError("JS build error").
				WithCause(ev.Err).
				WithContext("config", ev.Config).
				WithContext("cycle", s.cycle).
				Build()
			slog.Warn("JS build error", logfields.Cycle(s.cycle), logfields.Config(ev.Config), logfields.Error(err))
		case EventCycleEnd:
			result := metrics.ResultSuccess
			if s.failures > 0 {
				result = metrics.ResultFailed
			}
			s.recorder.IncWatchCycle("scripts", result)
			slog.Info("JS build completed.", logfields.Cycle(s.cycle))
			if s.onCycle != nil {
				s.onCycle(s.cycle, s.failures)
			}
			if !signaled {
				signaled = true
				close(s.ready)
			}
		}
	}
}
