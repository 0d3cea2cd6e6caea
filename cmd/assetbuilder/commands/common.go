package commands

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/scripts"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
)

// LogLevelEnvVar overrides the log level chosen by --verbose.
const LogLevelEnvVar = "ASSETBUILDER_LOG_LEVEL"

// Global carries process-wide state into every command.
type Global struct {
	Ctx      context.Context
	Registry *prometheus.Registry
	Recorder metrics.Recorder
}

// NewGlobal creates the shared state with a fresh metrics registry.
func NewGlobal(ctx context.Context) *Global {
	reg := prometheus.NewRegistry()
	return &Global{
		Ctx:      ctx,
		Registry: reg,
		Recorder: metrics.NewPrometheusRecorder(reg),
	}
}

// CLI definition & global flags.
type CLI struct {
	Config          string           `short:"c" help:"Project file path" default:"assetbuilder.yaml"`
	Verbose         bool             `short:"v" help:"Enable verbose logging"`
	Mode            string           `help:"Build mode (development|production). Precedence: --mode > config mode > NODE_ENV."`
	MetricsTextfile string           `name:"metrics-textfile" help:"Write Prometheus metrics to this node-exporter textfile on exit"`
	Version         kong.VersionFlag `name:"version" help:"Show version and exit"`

	BuildCSS BuildCSSCmd `cmd:"" name:"build-css" help:"Compile stylesheets"`
	BuildJS  BuildJSCmd  `cmd:"" name:"build-js" help:"Bundle scripts once"`
	WatchJS  WatchJSCmd  `cmd:"" name:"watch-js" help:"Bundle scripts and rebuild on change"`
	Manifest ManifestCmd `cmd:"" help:"Fingerprint build output into the asset manifest"`
	Test     TestCmd     `cmd:"" help:"Assemble the test bundle and run the test runner"`
	Build    BuildCmd    `cmd:"" help:"Run every task from the project file"`
	Dev      DevCmd      `cmd:"" help:"Watch styles and scripts, regenerating the manifest after each rebuild"`
	Init     InitCmd     `cmd:"" help:"Initialize a new project file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours LogLevelEnvVar before falling back to the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnvVar))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadConfig reads the project file. The single-task commands can run
// without one, in which case the defaults apply.
func (c *CLI) loadConfig(required bool) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err == nil {
		return cfg, nil
	}
	if required {
		return nil, err
	}
	if _, statErr := os.Stat(c.Config); errors.Is(statErr, fs.ErrNotExist) {
		slog.Debug("No project file, using defaults", "path", c.Config)
		cfg = &config.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return nil, err
}

func (c *CLI) resolveMode(cfg *config.Config) (config.BuildMode, error) {
	return config.ResolveMode(c.Mode, cfg)
}

// newStylePipeline returns the pipeline and the compiler backing it; the
// caller closes the compiler.
func newStylePipeline(cfg *config.Config, mode config.BuildMode) (*styles.Pipeline, *styles.SassCompiler) {
	compiler := styles.NewSassCompiler(cfg.Styles.SassBinary)
	p := styles.NewPipeline(compiler, mode,
		styles.WithOutputDir(cfg.Styles.OutputDir),
		styles.WithDependencyDir(cfg.Styles.DependencyDir),
		styles.WithTailwindBinary(cfg.Styles.TailwindBinary),
	)
	return p, compiler
}

func newScriptPipeline(g *Global, mode config.BuildMode) *scripts.Pipeline {
	return scripts.NewPipeline(scripts.NewEsbuildEngine(), mode, scripts.WithRecorder(g.Recorder))
}

func closeCompiler(c *styles.SassCompiler) {
	if err := c.Close(); err != nil {
		slog.Warn("Failed to stop sass compiler", "error", err)
	}
}
