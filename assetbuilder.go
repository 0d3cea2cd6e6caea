// Package assetbuilder is the library entry point for host build programs.
// It wires the production compilers and bundlers and derives the build mode
// from NODE_ENV, so callers only pass paths and options.
package assetbuilder

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/scripts"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
	"git.home.luguber.info/inful/assetbuilder/internal/testbundle"
)

type (
	StyleOptions    = styles.Options
	ManifestOptions = manifest.Options
	Manifest        = manifest.Manifest
	TestOptions     = testbundle.Options
	TestFlags       = testbundle.Flags
)

// BuildStyles compiles inputs into build/styles.
func BuildStyles(ctx context.Context, inputs []string, opts StyleOptions) error {
	compiler := styles.NewSassCompiler("")
	defer func() {
		if err := compiler.Close(); err != nil {
			slog.Warn("Failed to stop sass compiler", "error", err)
		}
	}()
	return styles.NewPipeline(compiler, config.ModeFromEnv()).Build(ctx, inputs, opts)
}

// BuildScripts bundles every config in configPath once.
func BuildScripts(ctx context.Context, configPath string) error {
	return scriptPipeline().Build(ctx, configPath)
}

// WatchScripts returns after the first build cycle; rebuilding continues
// until ctx is done.
func WatchScripts(ctx context.Context, configPath string) error {
	return scriptPipeline().Watch(ctx, configPath)
}

// GenerateManifest fingerprints build output and writes the manifest.
func GenerateManifest(ctx context.Context, opts ManifestOptions) (Manifest, error) {
	return manifest.Generate(ctx, opts)
}

// RunTests assembles the test bundle and runs the configured test runner.
func RunTests(ctx context.Context, opts TestOptions, flags TestFlags) error {
	return testbundle.NewAssembler(scriptPipeline()).Run(ctx, opts, flags)
}

// ParseTestFlags reads --grep and --live from args, ignoring everything else.
func ParseTestFlags(args []string) (TestFlags, error) {
	return testbundle.ParseFlags(args)
}

func scriptPipeline() *scripts.Pipeline {
	return scripts.NewPipeline(scripts.NewEsbuildEngine(), config.ModeFromEnv())
}
