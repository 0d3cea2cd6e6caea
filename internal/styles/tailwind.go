package styles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultTailwindBinary is the utility framework CLI looked up on PATH.
const DefaultTailwindBinary = "tailwindcss"

// CommandFunc runs an external command and returns its combined output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 - binary and arguments come from project configuration
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Tailwind runs the utility framework CLI over the stylesheet. The CLI only
// reads files, so the asset is staged as a hidden file next to its source,
// where the framework resolves imports and content globs the same way it
// would for the original input.
type Tailwind struct {
	binary    string
	framework Framework
	config    string
	minify    bool
	run       CommandFunc
}

func NewTailwind(binary string, framework Framework, config string, minify bool, run CommandFunc) *Tailwind {
	if binary == "" {
		binary = DefaultTailwindBinary
	}
	if run == nil {
		run = execCommand
	}
	return &Tailwind{binary: binary, framework: framework, config: config, minify: minify, run: run}
}

func (t *Tailwind) Name() string { return "tailwind" }

// Args returns the CLI arguments for the given scratch input and output.
func (t *Tailwind) Args(input, output string) []string {
	args := []string{"--input", input, "--output", output}
	switch t.framework {
	case FrameworkV3Config:
		args = append(args, "--config", t.config)
	case FrameworkV4:
		args = append(args, "--map")
	}
	if t.minify {
		args = append(args, "--minify")
	}
	return args
}

func (t *Tailwind) Process(ctx context.Context, in Asset) (Asset, error) {
	scratch, err := os.CreateTemp(filepath.Dir(in.From), ".tailwind-*.css")
	if err != nil {
		return Asset{}, fmt.Errorf("stage tailwind input: %w", err)
	}
	input := scratch.Name()
	output := strings.TrimSuffix(input, ".css") + ".out.css"
	defer func() {
		for _, p := range []string{input, output, output + ".map"} {
			_ = os.Remove(p)
		}
	}()
	if _, err := scratch.WriteString(in.CSS); err != nil {
		_ = scratch.Close()
		return Asset{}, fmt.Errorf("stage tailwind input: %w", err)
	}
	if err := scratch.Close(); err != nil {
		return Asset{}, fmt.Errorf("stage tailwind input: %w", err)
	}

	out, err := t.run(ctx, t.binary, t.Args(input, output)...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return Asset{}, fmt.Errorf("%s: %w", t.binary, err)
		}
		return Asset{}, fmt.Errorf("%s: %w: %s", t.binary, err, msg)
	}

	// #nosec G304 - scratch file created above
	css, err := os.ReadFile(output)
	if err != nil {
		return Asset{}, fmt.Errorf("read tailwind output: %w", err)
	}
	result := Asset{CSS: stripMappingComment(string(css))}
	// #nosec G304 - scratch file created above
	if m, err := os.ReadFile(output + ".map"); err == nil {
		result.Map = string(m)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Asset{}, fmt.Errorf("read tailwind map: %w", err)
	}
	return result, nil
}

// stripMappingComment drops a trailing sourceMappingURL annotation pointing
// at the scratch file.
func stripMappingComment(css string) string {
	trimmed := strings.TrimRight(css, "\n ")
	i := strings.LastIndex(trimmed, "/*# sourceMappingURL=")
	if i < 0 || !strings.HasSuffix(trimmed, "*/") {
		return css
	}
	return strings.TrimRight(trimmed[:i], "\n ") + "\n"
}
