package commands

import (
	"git.home.luguber.info/inful/assetbuilder/internal/testbundle"
)

// TestCmd implements the 'test' command.
type TestCmd struct {
	Grep   string   `short:"g" help:"Only include test files whose path matches this regular expression"`
	Live   bool     `short:"w" name:"live" help:"Keep bundling and testing on change"`
	Karma  string   `help:"Karma config (overrides tests.karma_config)"`
	Vitest string   `help:"Vitest config (overrides tests.vitest_config)"`
	Args   []string `arg:"" optional:"" passthrough:"" help:"Extra runner arguments; --grep and --live are honoured, the rest is ignored"`
}

func (t *TestCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(false)
	if err != nil {
		return err
	}
	mode, err := root.resolveMode(cfg)
	if err != nil {
		return err
	}

	flags, err := t.flags()
	if err != nil {
		return err
	}

	opts := testbundle.Options{
		BootstrapFile:    cfg.Tests.Bootstrap,
		ScriptConfigPath: cfg.Tests.ScriptsConfig,
		TestsPattern:     cfg.Tests.Pattern,
		OutputDir:        cfg.Tests.OutputDir,
		KarmaConfig:      cfg.Tests.KarmaConfig,
		VitestConfig:     cfg.Tests.VitestConfig,
	}
	if t.Karma != "" {
		opts.KarmaConfig = t.Karma
	}
	if t.Vitest != "" {
		opts.VitestConfig = t.Vitest
	}

	assembler := testbundle.NewAssembler(newScriptPipeline(g, mode))
	// An interrupted run is reported as a test failure, never as success.
	return assembler.Run(g.Ctx, opts, flags)
}

// flags merges the typed flags with anything recognizable in the passthrough args.
func (t *TestCmd) flags() (testbundle.Flags, error) {
	flags := testbundle.Flags{Grep: t.Grep, Live: t.Live}
	if len(t.Args) == 0 {
		return flags, nil
	}
	extra, err := testbundle.ParseFlags(t.Args)
	if err != nil {
		return flags, err
	}
	if extra.Grep != "" {
		flags.Grep = extra.Grep
	}
	flags.Live = flags.Live || extra.Live
	return flags, nil
}
