package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/version"
)

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("mdsite"),
		kong.Description("Render a directory of markdown files into a static HTML site."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, &cli, os.Stdout)
	stop()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose).HandleError(err)
	}
}
