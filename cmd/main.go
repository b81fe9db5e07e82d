package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

var version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)
	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger, Version: version})

	app := &cli.Command{
		Name:    "ytmp",
		Usage:   "YouTube Music API proxy with classified errors and health reporting",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars(shared.EnvPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:    "proxy",
				Usage:   "Base URL of a running proxy for remote commands",
				Value:   services.DefaultProxyURL,
				Sources: cli.EnvVars(shared.EnvPrefix + "PROXY_URL"),
			},
		},
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		runner.logger.Fatalf("application error: %v", err)
	}
}
