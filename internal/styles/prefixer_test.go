package styles

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

func TestParseTargets(t *testing.T) {
	engines, err := parseTargets([]string{"chrome80", " Safari14.1 ", "ios15"})
	require.NoError(t, err)
	require.Len(t, engines, 3)
	require.Equal(t, "80", engines[0].Version)
	require.Equal(t, "14.1", engines[1].Version)

	defaults, err := parseTargets(nil)
	require.NoError(t, err)
	require.Len(t, defaults, len(DefaultTargets))

	for _, bad := range []string{"chrome", "80", "netscape4"} {
		_, err := parseTargets([]string{bad})
		require.True(t, ferrors.IsConfigurationError(err), bad)
	}
}

func TestPrefixer_AddsVendorPrefixes(t *testing.T) {
	p, err := NewPrefixer([]string{"safari14"}, false)
	require.NoError(t, err)

	out, err := p.Process(context.Background(), Asset{CSS: ".a { backdrop-filter: blur(4px); }", From: "a.css"})
	require.NoError(t, err)
	require.Contains(t, out.CSS, "-webkit-backdrop-filter")
	require.Empty(t, out.Map)
}

func TestPrefixer_MinifyAndMap(t *testing.T) {
	p, err := NewPrefixer([]string{"chrome100"}, true)
	require.NoError(t, err)

	out, err := p.Process(context.Background(), Asset{
		CSS:  ".a {\n  color: red;\n}\n",
		Map:  testMap,
		From: "app.scss",
	})
	require.NoError(t, err)
	require.Contains(t, out.CSS, ".a{color:red}")
	require.NotContains(t, out.CSS, "sourceMappingURL")
	require.Contains(t, out.Map, `"version"`)
}

func TestWithInlineMap(t *testing.T) {
	require.Equal(t, "a{}", withInlineMap("a{}", ""))
	got := withInlineMap("a{}\n", testMap)
	require.True(t, strings.HasPrefix(got, "a{}\n/*# sourceMappingURL=data:application/json;base64,"))
}
