package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/assetbuilder/cmd/assetbuilder/commands"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli := &commands.CLI{}
	global := commands.NewGlobal(ctx)
	parser := kong.Parse(cli,
		kong.Name("assetbuilder"),
		kong.Description("Compile stylesheets, bundle scripts, fingerprint assets and run browser tests."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(global, cli)
	stop()

	if cli.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(global.Registry, cli.MetricsTextfile); werr != nil {
			slog.Warn("Failed to write metrics textfile", "path", cli.MetricsTextfile, "error", werr)
		}
	}

	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
