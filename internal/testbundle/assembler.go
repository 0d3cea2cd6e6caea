// Package testbundle generates a test entry module, bundles it with the
// script pipeline and hands the result to a test runner.
package testbundle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// EntryFileName is the generated module the test bundle config points at.
const EntryFileName = "test-inputs.js"

// Options describe a test run.
type Options struct {
	BootstrapFile    string
	ScriptConfigPath string
	TestsPattern     string
	OutputDir        string
	// KarmaConfig selects the legacy runner; it wins when both are set.
	KarmaConfig  string
	VitestConfig string
}

// Bundler is the subset of the script pipeline used for test bundles.
type Bundler interface {
	Build(ctx context.Context, configPath string) error
	Watch(ctx context.Context, configPath string) error
}

// Assembler runs the discover, generate, bundle and run steps in order.
type Assembler struct {
	bundler Bundler
	karma   Runner
	vitest  Runner
}

// NewAssembler creates an assembler with the default process runners.
func NewAssembler(bundler Bundler) *Assembler {
	return &Assembler{bundler: bundler, karma: NewKarmaRunner(), vitest: NewVitestRunner()}
}

// WithRunners replaces the test backends.
func (a *Assembler) WithRunners(karma, vitest Runner) *Assembler {
	a.karma, a.vitest = karma, vitest
	return a
}

func (o Options) withDefaults() Options {
	if o.OutputDir == "" {
		o.OutputDir = config.DefaultScriptsDir
	}
	return o
}

// selectRunner resolves which backend and config to use.
func (a *Assembler) selectRunner(opts Options) (Runner, string, error) {
	switch {
	case opts.KarmaConfig != "" && opts.VitestConfig != "":
		slog.Warn("Both karma and vitest configs are set; using karma",
			"karma_config", opts.KarmaConfig, "vitest_config", opts.VitestConfig)
		return a.karma, opts.KarmaConfig, nil
	case opts.KarmaConfig != "":
		return a.karma, opts.KarmaConfig, nil
	case opts.VitestConfig != "":
		return a.vitest, opts.VitestConfig, nil
	default:
		return nil, "", ferrors.ConfigurationError("a karma or vitest config is required").Build()
	}
}

func (o Options) validate() error {
	var missing []string
	if o.BootstrapFile == "" {
		missing = append(missing, "bootstrap")
	}
	if o.ScriptConfigPath == "" {
		missing = append(missing, "scripts_config")
	}
	if o.TestsPattern == "" {
		missing = append(missing, "pattern")
	}
	if len(missing) > 0 {
		return ferrors.ConfigurationError("missing required test options").
			WithContext("missing", missing).
			Build()
	}
	return nil
}

// Run assembles the test bundle and blocks until the runner finishes.
func (a *Assembler) Run(ctx context.Context, opts Options, flags Flags) error {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return err
	}
	runner, runnerConfig, err := a.selectRunner(opts)
	if err != nil {
		return err
	}

	files, err := DiscoverTests(opts.TestsPattern, flags.Grep)
	if err != nil {
		return err
	}
	files = append([]string{opts.BootstrapFile}, files...)

	entry := filepath.Join(opts.OutputDir, EntryFileName)
	if err := os.MkdirAll(opts.OutputDir, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create test output directory").
			WithContext("path", opts.OutputDir).
			Build()
	}
	if err := os.WriteFile(entry, []byte(EntrySource(files)), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write test entry").
			WithContext("path", entry).
			Build()
	}

	// From here on the live watch and the backend stop on SIGINT or SIGTERM,
	// with the runner's grace period before a kill.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Building test bundle...", logfields.Files(len(files)), logfields.Output(entry))
	if flags.SingleRun() {
		err = a.bundler.Build(ctx, opts.ScriptConfigPath)
	} else {
		err = a.bundler.Watch(ctx, opts.ScriptConfigPath)
	}
	if err != nil {
		return interrupted(ctx, err)
	}

	slog.Info("Starting "+runner.Name()+"...", logfields.Runner(runner.Name()))
	return interrupted(ctx, runner.Run(ctx, RunRequest{ConfigPath: runnerConfig, SingleRun: flags.SingleRun()}))
}

// InterruptedStatus is the exit status reported for a test run stopped by a
// signal, following the shell's 128+SIGINT convention.
const InterruptedStatus = 130

// Interrupted classifies err as a test run stopped before the backend
// finished. The cause stays reachable through errors.Is.
func Interrupted(err error) error {
	return ferrors.WrapError(err, ferrors.CategoryTest, "test run interrupted").
		WithContext(ferrors.ContextKeyExitStatus, InterruptedStatus).
		Build()
}

func interrupted(ctx context.Context, err error) error {
	if err == nil || ctx.Err() == nil || !errors.Is(err, ctx.Err()) {
		return err
	}
	return Interrupted(err)
}

// DiscoverTests globs pattern, keeps paths matching grep (when set) and
// sorts the result lexicographically.
func DiscoverTests(pattern, grep string) ([]string, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, ferrors.ConfigurationError("invalid tests pattern").
			WithContext("pattern", pattern).
			Build()
	}
	var re *regexp.Regexp
	if grep != "" {
		var err error
		if re, err = regexp.Compile(grep); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid --grep pattern").
				WithContext("grep", grep).
				Build()
		}
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to discover tests").
			WithContext("pattern", pattern).
			Build()
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		m = filepath.ToSlash(m)
		if re == nil || re.MatchString(m) {
			files = append(files, m)
		}
	}
	slices.Sort(files)
	return files, nil
}

// EntrySource renders one import statement per file, relative to the
// output directory, joined by newlines.
func EntrySource(files []string) string {
	lines := make([]string, len(files))
	for i, f := range files {
		lines[i] = `import "../../` + filepath.ToSlash(f) + `";`
	}
	return strings.Join(lines, "\n")
}
