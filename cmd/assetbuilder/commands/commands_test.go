package commands

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/testbundle"
	"git.home.luguber.info/inful/assetbuilder/internal/testutil"
)

// run parses args like the real binary and executes the selected command.
func run(t *testing.T, args ...string) error {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) error {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("assetbuilder"),
		kong.Exit(func(int) {}),
		kong.Vars{"version": "test"},
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(NewGlobal(ctx), cli)
}

func newProject(t *testing.T) *testutil.Tree {
	t.Helper()
	t.Setenv("NODE_ENV", "")
	tree := testutil.NewTree(t)
	tree.Chdir()
	return tree
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		want    slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"", true, slog.LevelDebug},
		{"warn", true, slog.LevelWarn},
		{"ERROR", false, slog.LevelError},
		{"debug", false, slog.LevelDebug},
		{"bogus", false, slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(LogLevelEnvVar, tt.env)
			assert.Equal(t, tt.want, parseLogLevel(tt.verbose))
		})
	}
}

func TestInitCmd(t *testing.T) {
	tree := newProject(t)

	require.NoError(t, run(t, "init"))
	tree.AssertContains("assetbuilder.yaml", "build_root: build")

	require.Error(t, run(t, "init"), "existing file without --force")
	require.NoError(t, run(t, "init", "--force"))

	// The generated file must load cleanly.
	require.NoError(t, run(t, "manifest"))
	tree.AssertExists("build/manifest.json")
}

func TestManifestCmd_Defaults(t *testing.T) {
	tree := newProject(t)
	tree.Write("build/styles/app.css", "body{}")
	tree.Write("build/scripts/app.js", "console.log(1)")

	require.NoError(t, run(t, "manifest"))

	tree.AssertContains("build/manifest.json", `"styles/app.css": "styles/app.css?`).
		AssertContains("build/manifest.json", `"scripts/app.js": "scripts/app.js?`)
}

func TestManifestCmd_Flags(t *testing.T) {
	tree := newProject(t)
	tree.Write("public/app.js", "x")

	require.NoError(t, run(t, "manifest", "-p", "public/*.js", "-o", "public/assets.json"))
	tree.AssertContains("public/assets.json", `"app.js": "app.js?`).
		AssertNotExists("build/manifest.json")
}

func TestBuildCSSCmd_PlainCSS(t *testing.T) {
	tree := newProject(t)
	tree.Write("src/app.css", "a{color:red}\n")

	require.NoError(t, run(t, "build-css", "--no-vendor-prefixing", "-o", "out", "src/app.css"))

	assert.Equal(t, "a{color:red}\n", tree.Read("out/app.css"))
	tree.AssertNotExists("out/app.css.map")
}

func TestBuildCSSCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no inputs", []string{"build-css"}},
		{"conflicting frameworks", []string{"build-css", "--tailwind", "--tailwind-auto-detect", "src/app.css"}},
		{"invalid mode", []string{"--mode", "staging", "build-css", "src/app.css"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newProject(t)
			tree.Write("src/app.css", "a{}")

			err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, ferrors.IsConfigurationError(err), "got %v", err)
			tree.AssertNotExists("build/styles")
		})
	}
}

func TestBuildJSCmd(t *testing.T) {
	tree := newProject(t)
	tree.Write("src/app.js", "export const answer = 42;\nconsole.log(answer);\n")
	tree.Write("scripts.yaml", "entry_points: [src/app.js]\noutfile: build/scripts/app.js\nformat: iife\n")

	require.NoError(t, run(t, "build-js", "scripts.yaml"))
	tree.AssertContains("build/scripts/app.js", "42")
}

func TestBuildJSCmd_NoBundleConfig(t *testing.T) {
	newProject(t)

	err := run(t, "build-js")
	require.Error(t, err)
	assert.True(t, ferrors.IsConfigurationError(err))
}

func TestBuildCmd_RequiresProjectFile(t *testing.T) {
	newProject(t)

	err := run(t, "build")
	require.Error(t, err)
	assert.True(t, ferrors.IsConfigurationError(err))
}

func TestBuildCmd_UnknownTask(t *testing.T) {
	newProject(t)

	err := run(t, "build", "--only", "fonts")
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
}

func TestBuildCmd_ManifestOnly(t *testing.T) {
	tree := newProject(t)
	tree.Write("assetbuilder.yaml", "build_root: dist\n")
	tree.Write("dist/app.js", "x")

	require.NoError(t, run(t, "build", "--only", "manifest"))
	tree.AssertContains("dist/manifest.json", `"app.js": "app.js?`)
}

func TestDevCmd_NothingToWatch(t *testing.T) {
	tree := newProject(t)
	tree.Write("assetbuilder.yaml", "build_root: build\n")

	err := run(t, "dev")
	require.Error(t, err)
	assert.True(t, ferrors.IsConfigurationError(err))
}

func TestTestCmd_Flags(t *testing.T) {
	tests := []struct {
		name string
		cmd  TestCmd
		want testbundle.Flags
	}{
		{"typed only", TestCmd{Grep: "button", Live: true}, testbundle.Flags{Grep: "button", Live: true}},
		{"passthrough wins for grep", TestCmd{Grep: "a", Args: []string{"--grep", "b", "extra"}}, testbundle.Flags{Grep: "b"}},
		{"passthrough live", TestCmd{Args: []string{"--browsers=Chrome", "--live"}}, testbundle.Flags{Live: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.flags()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestCmd_MissingOptions(t *testing.T) {
	newProject(t)

	err := run(t, "test")
	require.Error(t, err)
	assert.True(t, ferrors.IsConfigurationError(err))
}

func TestTestCmd_InterruptedRunFails(t *testing.T) {
	tree := newProject(t)
	tree.Write("assetbuilder.yaml", `tests:
  bootstrap: test/bootstrap.js
  scripts_config: scripts.tests.yaml
  pattern: "src/**/*.test.js"
  karma_config: karma.config.cjs
`)
	tree.Write("scripts.tests.yaml", "entry_points: [build/scripts/test-inputs.js]\noutfile: build/scripts/tests.js\nformat: iife\n")
	tree.Write("test/bootstrap.js", "")
	tree.Write("src/a.test.js", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runContext(t, ctx, "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, ferrors.IsTestRunFailure(err))
	assert.Equal(t, 3, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}
