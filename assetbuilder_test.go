package assetbuilder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/testutil"
)

func TestParseTestFlags(t *testing.T) {
	flags, err := ParseTestFlags([]string{"node", "--grep", "modal", "--live", "--unknown", "pos"})
	require.NoError(t, err)
	assert.Equal(t, TestFlags{Grep: "modal", Live: true}, flags)
}

func TestBuildStylesThenManifest(t *testing.T) {
	t.Setenv("NODE_ENV", "")
	tree := testutil.NewTree(t)
	tree.Chdir()
	tree.Write("src/app.css", "main{display:grid}\n")

	require.NoError(t, BuildStyles(context.Background(), []string{"src/app.css"}, StyleOptions{DisableVendorPrefixing: true}))
	assert.Equal(t, "main{display:grid}\n", tree.Read("build/styles/app.css"))

	m, err := GenerateManifest(context.Background(), ManifestOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"styles/app.css"}, m.Keys())
	assert.Regexp(t, `^styles/app\.css\?[0-9a-f]{6}$`, m.URL("styles/app.css"))
}

func TestBuildScripts(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	tree := testutil.NewTree(t)
	tree.Chdir()
	tree.Write("src/app.js", "if (process.env.NODE_ENV !== 'production') { console.log('dev') }\nconsole.log('ok')\n")
	tree.Write("scripts.yaml", "- entry_points: [src/app.js]\n  outfile: build/scripts/app.js\n")

	require.NoError(t, BuildScripts(context.Background(), "scripts.yaml"))
	tree.AssertContains("build/scripts/app.js", "ok").
		AssertNotContains("build/scripts/app.js", "dev")
}

func TestRunTests_RequiresRunnerConfig(t *testing.T) {
	err := RunTests(context.Background(), TestOptions{
		BootstrapFile:    "test/bootstrap.js",
		ScriptConfigPath: "scripts.tests.yaml",
		TestsPattern:     "src/**/*-test.js",
	}, TestFlags{})
	require.Error(t, err)
}
