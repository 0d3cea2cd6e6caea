package scripts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigs_SingleMappingNormalized(t *testing.T) {
	path := writeFile(t, "scripts.yaml", `
entry_points: [src/app.js]
outfile: build/scripts/app.bundle.js
format: iife
sourcemap: true
`)
	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	require.Equal(t, "build/scripts/app.bundle.js", cfgs[0].Outfile)
	require.True(t, cfgs[0].Sourcemap)
}

func TestLoadConfigs_List(t *testing.T) {
	path := writeFile(t, "scripts.yaml", `
- name: app
  entry_points: [src/app.js]
  outfile: build/scripts/app.js
- name: admin
  entry_points: [src/admin/index.ts, src/admin/worker.ts]
  outdir: build/scripts/admin
`)
	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	require.Equal(t, "admin", cfgs[1].Label())
}

func TestLoadConfigs_JSON(t *testing.T) {
	path := writeFile(t, "scripts.json", `[{"entry_points": ["a.js"], "outfile": "out/a.js", "minify": false}]`)
	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	require.NotNil(t, cfgs[0].Minify)
	require.False(t, *cfgs[0].Minify)
}

func TestLoadConfigs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"scalar", "42"},
		{"empty list", "[]"},
		{"no entry points", "outfile: a.js\n"},
		{"no output", "entry_points: [a.js]\n"},
		{"outfile and outdir", "entry_points: [a.js]\noutfile: a.js\noutdir: out\n"},
		{"outfile with many entries", "entry_points: [a.js, b.js]\noutfile: a.js\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigs(writeFile(t, "scripts.yaml", tt.content))
			require.Error(t, err)
			require.True(t, ferrors.IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestLoadConfigs_MissingFile(t *testing.T) {
	_, err := LoadConfigs(filepath.Join(t.TempDir(), "nope.yaml"))
	require.True(t, ferrors.IsConfigurationError(err))
}

func TestBuildConfig_Label(t *testing.T) {
	require.Equal(t, "n", BuildConfig{Name: "n", Outfile: "o"}.Label())
	require.Equal(t, "o", BuildConfig{Outfile: "o"}.Label())
	require.Equal(t, "d", BuildConfig{Outdir: "d"}.Label())
	require.Equal(t, "e", BuildConfig{EntryPoints: []string{"e"}}.Label())
	require.Equal(t, "<unnamed>", BuildConfig{}.Label())
}
