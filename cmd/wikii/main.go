package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/xamyl/wikii/cmd/wikii/commands"
	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("wikii"),
		kong.Description("Build a static wiki with full-text search from a directory of markdown documents."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	global := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	if err := parser.Run(global, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
