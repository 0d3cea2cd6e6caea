package commands

import (
	"fmt"

	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
)

// ManifestCmd implements the 'manifest' command.
type ManifestCmd struct {
	Pattern string `short:"p" help:"Glob of files to fingerprint (default: manifest.pattern)"`
	Output  string `short:"o" help:"Manifest file to write (default: manifest.path)"`
}

func (m *ManifestCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(false)
	if err != nil {
		return err
	}
	opts := manifest.Options{Pattern: cfg.Manifest.Pattern, ManifestPath: cfg.Manifest.Path}
	if m.Pattern != "" {
		opts.Pattern = m.Pattern
	}
	if m.Output != "" {
		opts.ManifestPath = m.Output
	}

	entries, err := manifest.Generate(g.Ctx, opts)
	if err != nil {
		return err
	}
	g.Recorder.SetManifestEntries(len(entries))
	fmt.Printf("Wrote %d manifest entries to %s\n", len(entries), opts.ManifestPath)
	return nil
}
