package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/anime-shed/forgery-inspector-go/internal/logger"
)

const (
	name    = "forgery-eval"
	version = "1.0.0"

	defaultMaxSize = 50 * 1024 * 1024
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		printError("%v", err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: version,
		Usage:   "Score labeled forged and authentic images and write a markdown evaluation report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "forged_dir",
				Usage:    "Directory of images known to be forged",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "authentic_dir",
				Usage:    "Directory of images known to be authentic",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "criteria",
				Usage: "Threshold profiles to evaluate: all, or a comma-separated list such as strict,balanced",
				Value: "balanced",
			},
			&cli.StringFlag{
				Name:  "detectors",
				Usage: "Detectors to run: all, or a comma-separated list such as metadata,ela",
				Value: "all",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Report path; a -YYMMDD-HHMM timestamp is inserted before the extension",
				Value: "report.md",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file with detector settings (optional, built-in defaults otherwise)",
				Sources: cli.EnvVars("FORGERY_CONFIG"),
			},
			&cli.Int64Flag{
				Name:  "max-size",
				Usage: "Largest image file to load, in bytes",
				Value: defaultMaxSize,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger.UseTextFormatter(os.Stderr)
			logger.SetLevel(cmd.String("log-level"))
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := optionsFromCommand(cmd)
			if err != nil {
				return err
			}
			path, err := runEvaluation(ctx, opts)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			printSuccess("Report written to %s", path)
			return nil
		},
	}
}
