package styles

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// DefaultSassBinary is the Dart Sass executable started in embedded mode.
const DefaultSassBinary = "sass"

// SassCompiler compiles SCSS and indented Sass through an embedded Dart Sass
// process. The process is started on first use and shared by all callers.
type SassCompiler struct {
	binary string

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewSassCompiler returns a compiler that runs binary (DefaultSassBinary when empty).
func NewSassCompiler(binary string) *SassCompiler {
	if binary == "" {
		binary = DefaultSassBinary
	}
	return &SassCompiler{binary: binary}
}

func (c *SassCompiler) start() (*godartsass.Transpiler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transpiler != nil {
		return c.transpiler, nil
	}
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: c.binary,
		LogEventHandler: func(ev godartsass.LogEvent) {
			slog.Warn("Sass: "+ev.Message, "type", ev.Type)
		},
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to start sass compiler").
			WithContext("binary", c.binary).
			Build()
	}
	c.transpiler = t
	return t, nil
}

// Compile implements Compiler.
func (c *SassCompiler) Compile(ctx context.Context, req CompileRequest) (CompileResult, error) {
	if err := ctx.Err(); err != nil {
		return CompileResult{}, err
	}
	t, err := c.start()
	if err != nil {
		return CompileResult{}, err
	}

	// #nosec G304 - inputs are configured entry points
	src, err := os.ReadFile(req.Path)
	if err != nil {
		return CompileResult{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read style input").
			WithContext("input", req.Path).
			Build()
	}

	args := godartsass.Args{
		Source:                  string(src),
		URL:                     fileURL(req.Path),
		IncludePaths:            req.IncludePaths,
		OutputStyle:             godartsass.OutputStyleExpanded,
		SourceSyntax:            godartsass.SourceSyntaxSCSS,
		EnableSourceMap:         req.SourceMap,
		SourceMapIncludeSources: req.SourceMap,
	}
	if req.Compressed {
		args.OutputStyle = godartsass.OutputStyleCompressed
	}
	if strings.EqualFold(filepath.Ext(req.Path), ".sass") {
		args.SourceSyntax = godartsass.SourceSyntaxSASS
	}

	res, err := t.Execute(args)
	if err != nil {
		return CompileResult{}, err
	}
	slog.Debug("Sass compiled", logfields.Input(req.Path))
	return CompileResult{CSS: res.CSS, SourceMap: res.SourceMap}, nil
}

// Close stops the Dart Sass process.
func (c *SassCompiler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transpiler == nil {
		return nil
	}
	err := c.transpiler.Close()
	c.transpiler = nil
	return err
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
