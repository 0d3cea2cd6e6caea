package scripts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/fsutil"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

var formats = map[string]api.Format{
	"":     api.FormatESModule,
	"esm":  api.FormatESModule,
	"es":   api.FormatESModule,
	"iife": api.FormatIIFE,
	"cjs":  api.FormatCommonJS,
}

var platforms = map[string]api.Platform{
	"":        api.PlatformBrowser,
	"browser": api.PlatformBrowser,
	"node":    api.PlatformNode,
	"neutral": api.PlatformNeutral,
}

var targets = map[string]api.Target{
	"":       api.ES2020,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var loaders = map[string]api.Loader{
	"js":      api.LoaderJS,
	"jsx":     api.LoaderJSX,
	"ts":      api.LoaderTS,
	"tsx":     api.LoaderTSX,
	"json":    api.LoaderJSON,
	"text":    api.LoaderText,
	"css":     api.LoaderCSS,
	"file":    api.LoaderFile,
	"dataurl": api.LoaderDataURL,
	"base64":  api.LoaderBase64,
	"binary":  api.LoaderBinary,
	"copy":    api.LoaderCopy,
	"empty":   api.LoaderEmpty,
}

// EsbuildEngine bundles through esbuild's Go API. Outputs are kept in memory
// by esbuild and written here, one atomic write per file.
type EsbuildEngine struct{}

// NewEsbuildEngine returns the production Engine.
func NewEsbuildEngine() *EsbuildEngine { return &EsbuildEngine{} }

func (e *EsbuildEngine) options(cfg BuildConfig, opts BuildOptions) (api.BuildOptions, error) {
	format, ok := formats[strings.ToLower(cfg.Format)]
	if !ok {
		return api.BuildOptions{}, invalidField(cfg, "format", cfg.Format)
	}
	platform, ok := platforms[strings.ToLower(cfg.Platform)]
	if !ok {
		return api.BuildOptions{}, invalidField(cfg, "platform", cfg.Platform)
	}
	target, ok := targets[strings.ToLower(cfg.Target)]
	if !ok {
		return api.BuildOptions{}, invalidField(cfg, "target", cfg.Target)
	}
	loader := make(map[string]api.Loader, len(cfg.Loader))
	for ext, name := range cfg.Loader {
		l, ok := loaders[strings.ToLower(name)]
		if !ok {
			return api.BuildOptions{}, invalidField(cfg, "loader", name)
		}
		loader[ext] = l
	}

	minify := opts.Minify != nil && *opts.Minify
	if cfg.Minify != nil {
		minify = *cfg.Minify
	}
	define := make(map[string]string, len(opts.Define)+len(cfg.Define))
	for k, v := range opts.Define {
		define[k] = v
	}
	for k, v := range cfg.Define {
		define[k] = v
	}

	bo := api.BuildOptions{
		EntryPoints:       cfg.EntryPoints,
		Outfile:           cfg.Outfile,
		Outdir:            cfg.Outdir,
		Bundle:            true,
		Write:             false,
		Format:            format,
		Platform:          platform,
		Target:            target,
		GlobalName:        cfg.GlobalName,
		External:          cfg.External,
		Define:            define,
		Loader:            loader,
		MinifyWhitespace:  minify,
		MinifyIdentifiers: minify,
		MinifySyntax:      minify,
		LogLevel:          api.LogLevelSilent,
	}
	if cfg.Sourcemap {
		bo.Sourcemap = api.SourceMapLinked
	}
	return bo, nil
}

func invalidField(cfg BuildConfig, field, value string) error {
	return ferrors.ConfigurationError("unsupported bundle option").
		WithContext("config", cfg.Label()).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}

// Build implements Engine.
func (e *EsbuildEngine) Build(ctx context.Context, cfg BuildConfig, opts BuildOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bo, err := e.options(cfg, opts)
	if err != nil {
		return err
	}
	result := api.Build(bo)
	reportWarnings(cfg, opts, result.Warnings)
	if len(result.Errors) > 0 {
		return compileError(cfg, result.Errors)
	}
	_, err = writeOutputs(cfg, result.OutputFiles)
	return err
}

func reportWarnings(cfg BuildConfig, opts BuildOptions, msgs []api.Message) {
	if opts.WarningLogger == nil {
		return
	}
	for _, m := range msgs {
		w := Warning{Config: cfg.Label(), Text: m.Text}
		if m.Location != nil {
			w.Location = fmt.Sprintf("%s:%d:%d", m.Location.File, m.Location.Line, m.Location.Column)
		}
		opts.WarningLogger(w)
	}
}

func compileError(cfg BuildConfig, msgs []api.Message) error {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	return ferrors.WrapError(errors.New(strings.TrimSpace(strings.Join(formatted, "\n"))), ferrors.CategoryCompile, "bundle failed").
		WithContext("config", cfg.Label()).
		WithContext("errors", len(msgs)).
		Build()
}

func writeOutputs(cfg BuildConfig, files []api.OutputFile) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := fsutil.WriteFileAtomic(f.Path, f.Contents, 0o644); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write bundle output").
				WithContext("config", cfg.Label()).
				WithContext("path", f.Path).
				Build()
		}
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// esbuildBundle is the receiver's handle on one rebuild's written outputs.
// It owns a copy of the output paths only; esbuild's result stays with esbuild.
type esbuildBundle struct {
	mu    sync.Mutex
	files []string
}

func (b *esbuildBundle) Files() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.files)
}

func (b *esbuildBundle) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files = nil
}

// session aggregates per-config rebuilds into cycles. A cycle starts when the
// first config starts building and ends when no config is building.
type session struct {
	mu       sync.Mutex
	inFlight int
	closed   bool
	events   chan Event
	done     <-chan struct{}
}

func (s *session) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(ev)
}

func (s *session) emitLocked(ev Event) {
	if s.closed {
		if ev.Bundle != nil {
			ev.Bundle.Close()
		}
		return
	}
	select {
	case s.events <- ev:
	case <-s.done:
		if ev.Bundle != nil {
			ev.Bundle.Close()
		}
	}
}

func (s *session) start(primed *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *primed {
		// Counted when the session was primed for the initial build.
		*primed = false
		return
	}
	if s.inFlight == 0 {
		s.emitLocked(Event{Kind: EventCycleStart})
	}
	s.inFlight++
}

func (s *session) end(cfg BuildConfig, opts BuildOptions, result *api.BuildResult) {
	reportWarnings(cfg, opts, result.Warnings)
	var ev Event
	if len(result.Errors) > 0 {
		ev = Event{Kind: EventBuildError, Config: cfg.Label(), Err: compileError(cfg, result.Errors)}
	} else if paths, err := writeOutputs(cfg, result.OutputFiles); err != nil {
		ev = Event{Kind: EventBuildError, Config: cfg.Label(), Err: err}
	} else {
		ev = Event{Kind: EventBundleGenerated, Config: cfg.Label(), Bundle: &esbuildBundle{files: paths}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(ev)
	s.inFlight--
	if s.inFlight == 0 {
		s.emitLocked(Event{Kind: EventCycleEnd})
	}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	close(s.events)
}

// Watch implements Engine. One esbuild context is created per config; their
// rebuilds are merged into a single cycle stream.
func (e *EsbuildEngine) Watch(ctx context.Context, cfgs []BuildConfig, opts BuildOptions) (<-chan Event, error) {
	s := &session{events: make(chan Event, 16), done: ctx.Done()}

	contexts := make([]api.BuildContext, 0, len(cfgs))
	dispose := func() {
		for _, c := range contexts {
			c.Dispose()
		}
	}

	primedFlags := make([]bool, len(cfgs))
	for i, cfg := range cfgs {
		bo, err := e.options(cfg, opts)
		if err != nil {
			dispose()
			return nil, err
		}
		primed := &primedFlags[i]
		*primed = true
		bo.Plugins = append(bo.Plugins, api.Plugin{
			Name: "assetbuilder-watch-events",
			Setup: func(build api.PluginBuild) {
				build.OnStart(func() (api.OnStartResult, error) {
					s.start(primed)
					return api.OnStartResult{}, nil
				})
				build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
					s.end(cfg, opts, result)
					return api.OnEndResult{}, nil
				})
			},
		})

		bctx, cerr := api.Context(bo)
		if cerr != nil {
			dispose()
			return nil, compileError(cfg, cerr.Errors)
		}
		contexts = append(contexts, bctx)
	}

	// Prime the initial cycle so it only ends once every config has built.
	s.inFlight = len(cfgs)
	s.emit(Event{Kind: EventCycleStart})

	for i, bctx := range contexts {
		if err := bctx.Watch(api.WatchOptions{}); err != nil {
			dispose()
			s.close()
			return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "failed to start watching").
				WithContext("config", cfgs[i].Label()).
				Build()
		}
	}
	slog.Debug("Watch session started", logfields.Files(len(cfgs)))

	go func() {
		<-ctx.Done()
		dispose()
		s.close()
	}()
	return s.events, nil
}
