package styles

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/fsutil"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// Pipeline builds stylesheet entry points into an output directory.
type Pipeline struct {
	compiler       Compiler
	mode           config.BuildMode
	outDir         string
	dependencyDir  string
	tailwindBinary string
	run            CommandFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOutputDir sets where <name>.css files are written.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) { p.outDir = dir }
}

// WithDependencyDir sets the shared include path added after each input's own directory.
func WithDependencyDir(dir string) Option {
	return func(p *Pipeline) { p.dependencyDir = dir }
}

// WithTailwindBinary overrides the utility framework executable.
func WithTailwindBinary(binary string) Option {
	return func(p *Pipeline) { p.tailwindBinary = binary }
}

// WithCommandRunner replaces process execution for external plugins.
func WithCommandRunner(run CommandFunc) Option {
	return func(p *Pipeline) { p.run = run }
}

// NewPipeline creates a style pipeline. mode is fixed for the pipeline's lifetime.
func NewPipeline(compiler Compiler, mode config.BuildMode, opts ...Option) *Pipeline {
	p := &Pipeline{
		compiler:      compiler,
		mode:          mode,
		outDir:        config.DefaultStylesDir,
		dependencyDir: config.DefaultDependencyDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OutputPath returns the stylesheet path produced for input.
func (p *Pipeline) OutputPath(input string) string {
	base := filepath.Base(input)
	return filepath.Join(p.outDir, strings.TrimSuffix(base, filepath.Ext(base))+".css")
}

// Chain builds the plugin chain for opts: framework first, prefixer last.
func (p *Pipeline) Chain(opts Options) (Chain, error) {
	framework, err := opts.Framework()
	if err != nil {
		return nil, err
	}
	var chain Chain
	if framework != FrameworkNone {
		chain = append(chain, NewTailwind(p.tailwindBinary, framework, opts.TailwindConfig, p.mode.Production(), p.run))
	}
	if !opts.DisableVendorPrefixing {
		prefixer, err := NewPrefixer(opts.Targets, p.mode.Production())
		if err != nil {
			return nil, err
		}
		chain = append(chain, prefixer)
	}
	return chain, nil
}

// Build compiles every input concurrently. Option conflicts are reported
// before any file is read or written. The first failing input fails the
// call; inputs that already finished keep their complete output pair.
func (p *Pipeline) Build(ctx context.Context, inputs []string, opts Options) error {
	chain, err := p.Chain(opts)
	if err != nil {
		return err
	}
	if err := p.checkOutputs(inputs); err != nil {
		return err
	}

	slog.Info("Building styles",
		logfields.Files(len(inputs)),
		logfields.Mode(p.mode.String()),
		slog.Any("plugins", chain.Names()))

	g, gctx := errgroup.WithContext(ctx)
	for _, input := range inputs {
		g.Go(func() error {
			return p.buildOne(gctx, input, chain)
		})
	}
	return g.Wait()
}

func (p *Pipeline) checkOutputs(inputs []string) error {
	seen := make(map[string]string, len(inputs))
	for _, input := range inputs {
		out := p.OutputPath(input)
		if prev, ok := seen[out]; ok {
			return ferrors.ConfigurationError("style inputs share an output file").
				WithContext("output", out).
				WithContext("inputs", []string{prev, input}).
				Build()
		}
		seen[out] = input
	}
	return nil
}

func (p *Pipeline) buildOne(ctx context.Context, input string, chain Chain) error {
	ctx = observability.WithInput(ctx, input)
	start := time.Now()
	asset := Asset{From: input, To: p.OutputPath(input)}

	if IsStyleLanguage(input) {
		res, err := p.compiler.Compile(ctx, CompileRequest{
			Path:         input,
			IncludePaths: []string{filepath.Dir(input), p.dependencyDir},
			Compressed:   p.mode.Production(),
			SourceMap:    true,
		})
		if err != nil {
			if ferrors.IsClassified(err) {
				return err
			}
			return ferrors.WrapError(err, ferrors.CategoryCompile, "style compilation failed").
				WithContext("input", input).
				Build()
		}
		asset.CSS, asset.Map = res.CSS, res.SourceMap
	} else {
		// #nosec G304 - inputs are configured entry points
		data, err := os.ReadFile(input)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read style input").
				WithContext("input", input).
				Build()
		}
		asset.CSS = string(data)
	}

	asset, err := chain.Run(ctx, asset)
	if err != nil {
		return err
	}

	if err := writeAsset(asset); err != nil {
		return err
	}
	observability.InfoContext(ctx, "Style built",
		logfields.Output(asset.To),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

// writeAsset writes the stylesheet and, when a map exists, the map with a
// relative sourceMappingURL annotation. Both files are replaced together.
func writeAsset(asset Asset) error {
	files := []fsutil.File{{Path: asset.To}}
	css := asset.CSS
	if asset.Map != "" {
		mapPath := asset.To + ".map"
		rel, err := filepath.Rel(filepath.Dir(asset.To), mapPath)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to relativize source map path").Build()
		}
		css = strings.TrimRight(css, "\n") + "\n/*# sourceMappingURL=" + filepath.ToSlash(rel) + " */"
		files = append(files, fsutil.File{Path: mapPath, Data: []byte(asset.Map)})
	}
	files[0].Data = []byte(css)

	if err := fsutil.WriteFilesAtomic(0o644, files...); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write stylesheet").
			WithContext("output", asset.To).
			Build()
	}
	return nil
}
