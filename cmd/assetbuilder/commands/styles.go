package commands

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
)

// BuildCSSCmd implements the 'build-css' command.
type BuildCSSCmd struct {
	Inputs             []string `arg:"" optional:"" help:"Stylesheet entry points (default: styles.inputs from the project file)"`
	Output             string   `short:"o" help:"Output directory (default: styles.output_dir)"`
	Tailwind           bool     `help:"Run the utility framework in v4 mode"`
	TailwindConfig     string   `name:"tailwind-config" help:"Run the utility framework with this v3 config file"`
	TailwindAutoDetect bool     `name:"tailwind-auto-detect" help:"Let the utility framework locate its own config"`
	NoVendorPrefixing  bool     `name:"no-vendor-prefixing" help:"Skip the vendor prefixing step"`
	Targets            []string `help:"Browser targets for vendor prefixing (e.g. chrome100,safari15)"`
}

func (b *BuildCSSCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(false)
	if err != nil {
		return err
	}
	mode, err := root.resolveMode(cfg)
	if err != nil {
		return err
	}

	sc := &cfg.Styles
	if len(b.Inputs) > 0 {
		sc.Inputs = b.Inputs
	}
	if b.Output != "" {
		sc.OutputDir = b.Output
	}
	if len(b.Targets) > 0 {
		sc.Targets = b.Targets
	}
	sc.Tailwind = sc.Tailwind || b.Tailwind
	sc.TailwindAutoDetect = sc.TailwindAutoDetect || b.TailwindAutoDetect
	if b.TailwindConfig != "" {
		sc.TailwindConfig = b.TailwindConfig
	}
	opts := styles.OptionsFromConfig(*sc)
	if b.NoVendorPrefixing {
		opts.DisableVendorPrefixing = true
	}

	if len(sc.Inputs) == 0 {
		return ferrors.ConfigurationError("no stylesheet inputs").
			WithContext("hint", "pass inputs or set styles.inputs").
			Build()
	}

	pipeline, compiler := newStylePipeline(cfg, mode)
	defer closeCompiler(compiler)

	if err := pipeline.Build(g.Ctx, sc.Inputs, opts); err != nil {
		return err
	}
	fmt.Printf("Built %d stylesheet(s) into %s\n", len(sc.Inputs), sc.OutputDir)
	return nil
}
