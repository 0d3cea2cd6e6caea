package scripts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/testutil"
)

func TestEsbuildEngine_Build(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.Write("src/util.js", "export const greet = (name) => `hello ${name}`;\n")
	entry := tree.Write("src/app.js", "import { greet } from './util.js';\nconsole.log(greet(process.env.NODE_ENV));\n")

	minify := false
	cfg := BuildConfig{EntryPoints: []string{entry}, Outfile: tree.Path("build/scripts/app.js"), Sourcemap: true}
	opts := BuildOptions{Minify: &minify, Define: map[string]string{"process.env.NODE_ENV": `"development"`}}

	require.NoError(t, NewEsbuildEngine().Build(context.Background(), cfg, opts))

	tree.AssertContains("build/scripts/app.js", "hello").
		AssertContains("build/scripts/app.js", `"development"`).
		AssertContains("build/scripts/app.js", "sourceMappingURL=app.js.map").
		AssertExists("build/scripts/app.js.map")
}

func TestEsbuildEngine_BuildErrorIsCompileError(t *testing.T) {
	tree := testutil.NewTree(t)
	entry := tree.Write("src/app.js", "import './missing.js';\n")

	err := NewEsbuildEngine().Build(context.Background(),
		BuildConfig{EntryPoints: []string{entry}, Outfile: tree.Path("build/app.js")}, BuildOptions{})
	require.Error(t, err)
	require.True(t, ferrors.IsCompileError(err))
	require.Contains(t, err.Error(), "missing.js")
	tree.AssertNotExists("build/app.js")
}

func TestEsbuildEngine_WarningsReachLogger(t *testing.T) {
	tree := testutil.NewTree(t)
	entry := tree.Write("src/app.js", "if (a == -0) {}\nexport {};\n")

	var warnings []Warning
	opts := BuildOptions{WarningLogger: func(w Warning) { warnings = append(warnings, w) }}
	require.NoError(t, NewEsbuildEngine().Build(context.Background(),
		BuildConfig{Name: "app", EntryPoints: []string{entry}, Outfile: tree.Path("build/app.js")}, opts))
	require.NotEmpty(t, warnings)
	require.Equal(t, "app", warnings[0].Config)
}

func TestEsbuildEngine_InvalidOptions(t *testing.T) {
	tests := []BuildConfig{
		{EntryPoints: []string{"a.js"}, Outfile: "a.js", Format: "amd"},
		{EntryPoints: []string{"a.js"}, Outfile: "a.js", Platform: "deno"},
		{EntryPoints: []string{"a.js"}, Outfile: "a.js", Target: "es5"},
		{EntryPoints: []string{"a.js"}, Outfile: "a.js", Loader: map[string]string{".svg": "svgr"}},
	}
	for _, cfg := range tests {
		err := NewEsbuildEngine().Build(context.Background(), cfg, BuildOptions{})
		require.True(t, ferrors.IsConfigurationError(err), "config %+v", cfg)
	}
}

func TestEsbuildEngine_WatchCycles(t *testing.T) {
	tree := testutil.NewTree(t)
	app := tree.Write("src/app.js", "console.log('one');\n")
	vendor := tree.Write("src/vendor.js", "console.log('vendor');\n")
	cfgs := []BuildConfig{
		{Name: "app", EntryPoints: []string{app}, Outfile: tree.Path("build/app.js")},
		{Name: "vendor", EntryPoints: []string{vendor}, Outfile: tree.Path("build/vendor.js")},
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := NewEsbuildEngine().Watch(ctx, cfgs, BuildOptions{})
	require.NoError(t, err)

	next := func() Event {
		t.Helper()
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed early")
			return ev
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for watch event")
			return Event{}
		}
	}

	// Initial cycle spans both configs.
	require.Equal(t, EventCycleStart, next().Kind)
	generated := 0
	for {
		ev := next()
		if ev.Kind == EventCycleEnd {
			break
		}
		require.Equal(t, EventBundleGenerated, ev.Kind)
		ev.Bundle.Close()
		generated++
	}
	require.Equal(t, 2, generated)
	tree.AssertContains("build/app.js", "one").AssertExists("build/vendor.js")

	// Edit one config's source; a new cycle reports the bundle.
	require.NoError(t, os.WriteFile(app, []byte("console.log('two');\n"), 0o600))
	require.Equal(t, EventCycleStart, next().Kind)
	ev := next()
	require.Equal(t, EventBundleGenerated, ev.Kind)
	require.Equal(t, "app", ev.Config)
	ev.Bundle.Close()
	require.Equal(t, EventCycleEnd, next().Kind)
	require.True(t, strings.Contains(tree.Read("build/app.js"), "two"))

	cancel()
	for range events {
	}
	_, err = os.Stat(filepath.Join(tree.Root, "build", "vendor.js"))
	require.NoError(t, err)
}

// Bundles are released from another goroutine while esbuild keeps rebuilding,
// the way the pipeline subscription does. Run with -race.
func TestEsbuildEngine_BundleReleaseDuringRebuilds(t *testing.T) {
	tree := testutil.NewTree(t)
	app := tree.Write("src/app.js", "console.log(0);\n")
	cfgs := []BuildConfig{{Name: "app", EntryPoints: []string{app}, Outfile: tree.Path("build/app.js")}}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := NewEsbuildEngine().Watch(ctx, cfgs, BuildOptions{})
	require.NoError(t, err)

	cycleEnds := make(chan struct{}, 16)
	var (
		released   [][]string
		afterClose [][]string
	)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			switch ev.Kind {
			case EventBundleGenerated:
				files := ev.Bundle.Files()
				ev.Bundle.Close()
				released = append(released, files)
				afterClose = append(afterClose, ev.Bundle.Files())
			case EventCycleEnd:
				cycleEnds <- struct{}{}
			}
		}
	}()

	waitCycle := func() {
		t.Helper()
		select {
		case <-cycleEnds:
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for cycle end")
		}
	}

	waitCycle()
	for i := 1; i <= 3; i++ {
		require.NoError(t, os.WriteFile(app, []byte("console.log("+strings.Repeat("1", i)+");\n"), 0o600))
		waitCycle()
	}

	cancel()
	<-drained

	require.Len(t, released, 4)
	for i, files := range released {
		require.Equal(t, []string{tree.Path("build/app.js")}, files)
		require.Empty(t, afterClose[i])
	}
}
