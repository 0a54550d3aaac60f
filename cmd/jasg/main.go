package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/jasg/cmd/jasg/commands"
	"git.home.luguber.info/inful/jasg/internal/config"
	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
	"git.home.luguber.info/inful/jasg/internal/version"
)

func main() {
	// .env files must be loaded before kong resolves env-backed flags.
	if _, err := config.LoadEnv("."); err != nil {
		slog.Warn("Failed to load .env files", "error", err)
	}

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("jasg"),
		kong.Description("Walk a source tree and assemble its pages and layouts into a site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := parser.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
