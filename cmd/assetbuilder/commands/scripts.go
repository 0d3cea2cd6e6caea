package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// BuildJSCmd implements the 'build-js' command.
type BuildJSCmd struct {
	BundleConfig string `arg:"" optional:"" name:"bundle-config" help:"Bundle config file (default: scripts.config from the project file)"`
}

func (b *BuildJSCmd) Run(g *Global, root *CLI) error {
	cfg, path, err := scriptsTarget(root, b.BundleConfig)
	if err != nil {
		return err
	}
	mode, err := root.resolveMode(cfg)
	if err != nil {
		return err
	}
	if err := newScriptPipeline(g, mode).Build(g.Ctx, path); err != nil {
		return err
	}
	fmt.Printf("Bundled scripts from %s\n", path)
	return nil
}

// WatchJSCmd implements the 'watch-js' command.
type WatchJSCmd struct {
	BundleConfig string `arg:"" optional:"" name:"bundle-config" help:"Bundle config file (default: scripts.config from the project file)"`
}

// Run returns once the process is signaled; rebuild failures only log.
func (w *WatchJSCmd) Run(g *Global, root *CLI) error {
	cfg, path, err := scriptsTarget(root, w.BundleConfig)
	if err != nil {
		return err
	}
	mode, err := root.resolveMode(cfg)
	if err != nil {
		return err
	}
	if err := newScriptPipeline(g, mode).Watch(g.Ctx, path); err != nil {
		return ignoreShutdown(g, err)
	}
	slog.Info("Watching scripts", "config", path)
	<-g.Ctx.Done()
	slog.Info("Shutdown signal received, stopping watch")
	return nil
}

func scriptsTarget(root *CLI, explicit string) (*config.Config, string, error) {
	cfg, err := root.loadConfig(false)
	if err != nil {
		return nil, "", err
	}
	path := explicit
	if path == "" {
		path = cfg.Scripts.Config
	}
	if path == "" {
		return nil, "", ferrors.ConfigurationError("no bundle config").
			WithContext("hint", "pass a bundle config file or set scripts.config").
			Build()
	}
	return cfg, path, nil
}

// ignoreShutdown drops the context error produced by a signal-initiated stop.
func ignoreShutdown(g *Global, err error) error {
	if ctxErr := g.Ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return nil
	}
	return err
}
