package styles

import (
	"context"
	"encoding/base64"
	"strings"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// Asset is a stylesheet moving through the plugin chain.
type Asset struct {
	CSS string
	// Map is the source map JSON for CSS, or empty when none exists.
	Map string
	// From is the original input path and To the final output path.
	From string
	To   string
}

// Plugin is one CSS-to-CSS transform step. A plugin receives the incoming map
// and returns the map for its own output, or an empty map when it cannot
// produce one.
type Plugin interface {
	Name() string
	Process(ctx context.Context, in Asset) (Asset, error)
}

// Chain is an ordered list of plugins.
type Chain []Plugin

// Names lists the plugins in execution order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return names
}

// Run applies every plugin in order. A step that yields no map keeps the
// previous map only if it left the CSS untouched; otherwise the map no longer
// matches the output and is dropped.
func (c Chain) Run(ctx context.Context, asset Asset) (Asset, error) {
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return Asset{}, err
		}
		out, err := p.Process(ctx, asset)
		if err != nil {
			return Asset{}, ferrors.WrapError(err, ferrors.CategoryCompile, "css plugin failed").
				WithContext("plugin", p.Name()).
				WithContext("input", asset.From).
				Build()
		}
		if out.Map == "" && asset.Map != "" {
			if out.CSS == asset.CSS {
				out.Map = asset.Map
			} else {
				observability.DebugContext(ctx, "Source map dropped after rewriting step", logfields.Plugin(p.Name()))
			}
		}
		out.From, out.To = asset.From, asset.To
		asset = out
	}
	return asset, nil
}

// withInlineMap appends map as an inline data URL so engines that read
// sourceMappingURL comments can chain it into their own output map.
func withInlineMap(css, sourceMap string) string {
	if sourceMap == "" {
		return css
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(css, "\n"))
	b.WriteString("\n/*# sourceMappingURL=data:application/json;base64,")
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(sourceMap)))
	b.WriteString(" */\n")
	return b.String()
}
