package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/scripts"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
)

// DevCmd implements the 'dev' command.
type DevCmd struct {
	Debounce   time.Duration `help:"Quiet period before a style rebuild" default:"300ms"`
	NoManifest bool          `name:"no-manifest" help:"Do not regenerate the manifest after rebuilds"`
}

// Run watches until the process is signaled. Rebuild failures only log.
func (d *DevCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(true)
	if err != nil {
		return err
	}
	mode, err := root.resolveMode(cfg)
	if err != nil {
		return err
	}
	if len(cfg.Styles.Inputs) == 0 && cfg.Scripts.Config == "" {
		return ferrors.ConfigurationError("nothing to watch").
			WithContext("hint", "set styles.inputs or scripts.config").
			Build()
	}

	regen := newManifestRefresher(cfg, g.Recorder, d.NoManifest)
	eg, ctx := errgroup.WithContext(g.Ctx)

	if len(cfg.Styles.Inputs) > 0 {
		pipeline, compiler := newStylePipeline(cfg, mode)
		defer closeCompiler(compiler)

		watcher := styles.NewWatcher(pipeline, cfg.Styles.Inputs, styles.OptionsFromConfig(cfg.Styles)).
			WithDebounce(d.Debounce)
		watcher.OnRebuild = func(ctx context.Context, err error) {
			result := metrics.ResultSuccess
			if err != nil {
				result = metrics.ResultFailed
			}
			g.Recorder.IncWatchCycle("styles", result)
			if err == nil {
				regen(ctx)
			}
		}
		eg.Go(func() error { return watcher.Run(ctx) })
	}

	if cfg.Scripts.Config != "" {
		pipeline := scripts.NewPipeline(scripts.NewEsbuildEngine(), mode,
			scripts.WithRecorder(g.Recorder),
			scripts.WithCycleHook(func(_, failures int) {
				if failures == 0 {
					regen(ctx)
				}
			}),
		)
		eg.Go(func() error {
			if err := pipeline.Watch(ctx, cfg.Scripts.Config); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		})
	}

	slog.Info("Watching for changes", "mode", mode.String())
	return ignoreShutdown(g, eg.Wait())
}

// newManifestRefresher returns a serialized manifest regeneration callback.
func newManifestRefresher(cfg *config.Config, rec metrics.Recorder, disabled bool) func(context.Context) {
	var mu sync.Mutex
	return func(ctx context.Context) {
		if disabled || ctx.Err() != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		m, err := manifest.Generate(ctx, manifest.Options{Pattern: cfg.Manifest.Pattern, ManifestPath: cfg.Manifest.Path})
		if err != nil {
			slog.Warn("Manifest refresh failed", logfields.Error(err))
			return
		}
		rec.SetManifestEntries(len(m))
	}
}
