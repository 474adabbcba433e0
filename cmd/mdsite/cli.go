package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/build"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/observability"
)

// successMessage is printed to stdout after a complete build.
const successMessage = "Build successful"

// CLI holds the global flags. None is required.
type CLI struct {
	Config      string           `short:"c" help:"Optional YAML configuration file overriding the built-in layout"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after the build"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// run loads the configuration from the working directory and environment,
// builds the site and reports success on stdout.
func run(ctx context.Context, cli *CLI, stdout io.Writer) error {
	if err := config.LoadEnvFiles("."); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
			Fatal().
			Build()
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.Getenv)

	opts := []build.Option{build.WithStdout(stdout)}
	var registry *prom.Registry
	if cli.MetricsFile != "" {
		registry = prom.NewRegistry()
		opts = append(opts, build.WithRecorder(metrics.NewPrometheusRecorder(registry)))
	}

	_, buildErr := build.NewService(cfg, opts...).Run(ctx)

	if registry != nil {
		if err := metrics.WriteTextfile(cli.MetricsFile, registry); err != nil {
			observability.WarnContext(ctx, "Failed to write metrics file", logfields.Path(cli.MetricsFile), logfields.Error(err))
		}
	}
	if buildErr != nil {
		return buildErr
	}

	_, _ = fmt.Fprintln(stdout, successMessage)
	return nil
}
