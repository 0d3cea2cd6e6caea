package styles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTailwind_Args(t *testing.T) {
	tests := []struct {
		name      string
		framework Framework
		config    string
		minify    bool
		want      []string
	}{
		{"v4", FrameworkV4, "", false, []string{"--input", "in.css", "--output", "out.css", "--map"}},
		{"v3 config", FrameworkV3Config, "tw.config.js", false, []string{"--input", "in.css", "--output", "out.css", "--config", "tw.config.js"}},
		{"auto detect minified", FrameworkAutoDetect, "", true, []string{"--input", "in.css", "--output", "out.css", "--minify"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTailwind("", tt.framework, tt.config, tt.minify, nil)
			require.Equal(t, tt.want, tw.Args("in.css", "out.css"))
		})
	}
}

func TestTailwind_ProcessReadsOutputAndMap(t *testing.T) {
	dir := t.TempDir()
	run := func(_ context.Context, _ string, args ...string) ([]byte, error) {
		in, err := os.ReadFile(args[1])
		if err != nil {
			return nil, err
		}
		out := args[3]
		css := string(in) + ".mt-1{margin-top:.25rem}\n/*# sourceMappingURL=" + filepath.Base(out) + ".map */\n"
		if err := os.WriteFile(out, []byte(css), 0o600); err != nil {
			return nil, err
		}
		return nil, os.WriteFile(out+".map", []byte(`{"version":3}`), 0o600)
	}
	tw := NewTailwind("tailwindcss", FrameworkV4, "", false, run)

	got, err := tw.Process(context.Background(), Asset{CSS: "@import \"tailwindcss\";\n", From: filepath.Join(dir, "app.css")})
	require.NoError(t, err)
	require.Contains(t, got.CSS, ".mt-1")
	require.NotContains(t, got.CSS, "sourceMappingURL")
	require.Equal(t, `{"version":3}`, got.Map)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestTailwind_ProcessFailureIncludesOutput(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Cannot find module 'tailwindcss'"), errors.New("exit status 1")
	}
	tw := NewTailwind("tailwindcss", FrameworkAutoDetect, "", false, run)

	_, err := tw.Process(context.Background(), Asset{CSS: "", From: filepath.Join(t.TempDir(), "app.css")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Cannot find module")
}

func TestStripMappingComment(t *testing.T) {
	require.Equal(t, "a{}\n", stripMappingComment("a{}\n/*# sourceMappingURL=x.map */\n"))
	require.Equal(t, "a{}", stripMappingComment("a{}"))
}
