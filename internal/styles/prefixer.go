package styles

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// DefaultTargets approximates the browserslist "defaults" query.
var DefaultTargets = []string{"chrome109", "edge120", "firefox115", "safari15.6", "ios15.6"}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

func parseTargets(targets []string) ([]api.Engine, error) {
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	engines := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		i := strings.IndexFunc(t, unicode.IsDigit)
		if i <= 0 {
			return nil, ferrors.ConfigurationError("browser target must look like <browser><version>").
				WithContext("target", t).
				Build()
		}
		name, ok := engineNames[t[:i]]
		if !ok {
			return nil, ferrors.ConfigurationError("unknown browser in target").
				WithContext("target", t).
				Build()
		}
		engines = append(engines, api.Engine{Name: name, Version: t[i:]})
	}
	return engines, nil
}

// Prefixer adds vendor prefixes for the configured browser targets using
// esbuild's CSS transform. It is always the last plugin in a chain.
type Prefixer struct {
	engines []api.Engine
	minify  bool
}

// NewPrefixer creates a prefixer for targets; minify also compresses output.
func NewPrefixer(targets []string, minify bool) (*Prefixer, error) {
	engines, err := parseTargets(targets)
	if err != nil {
		return nil, err
	}
	return &Prefixer{engines: engines, minify: minify}, nil
}

func (p *Prefixer) Name() string { return "vendor-prefix" }

func (p *Prefixer) Process(_ context.Context, in Asset) (Asset, error) {
	opts := api.TransformOptions{
		Loader:           api.LoaderCSS,
		Engines:          p.engines,
		Sourcefile:       in.From,
		MinifyWhitespace: p.minify,
		MinifySyntax:     p.minify,
		LegalComments:    api.LegalCommentsInline,
		LogLevel:         api.LogLevelSilent,
		Sourcemap:        api.SourceMapNone,
		SourcesContent:   api.SourcesContentInclude,
	}
	if in.Map != "" {
		opts.Sourcemap = api.SourceMapExternal
	}

	result := api.Transform(withInlineMap(in.CSS, in.Map), opts)
	if len(result.Errors) > 0 {
		return Asset{}, messagesError(result.Errors)
	}
	return Asset{CSS: string(result.Code), Map: string(result.Map)}, nil
}

func messagesError(msgs []api.Message) error {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	return errors.New(strings.TrimSpace(strings.Join(formatted, "\n")))
}
