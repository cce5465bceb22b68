package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/container"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	"github.com/anime-shed/forgery-inspector-go/internal/evaluation"
	"github.com/anime-shed/forgery-inspector-go/internal/factory"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
	"github.com/anime-shed/forgery-inspector-go/internal/observer"
	"github.com/anime-shed/forgery-inspector-go/internal/pipeline"
)

type evalOptions struct {
	forgedDir    string
	authenticDir string
	criteria     string
	detectors    string
	report       string
	configPath   string
	maxSize      int64
}

func optionsFromCommand(cmd *cli.Command) (evalOptions, error) {
	opts := evalOptions{
		forgedDir:    cmd.String("forged_dir"),
		authenticDir: cmd.String("authentic_dir"),
		criteria:     cmd.String("criteria"),
		detectors:    cmd.String("detectors"),
		report:       cmd.String("report"),
		configPath:   cmd.String("config"),
		maxSize:      cmd.Int64("max-size"),
	}
	if opts.maxSize <= 0 {
		return opts, fmt.Errorf("--max-size must be > 0 (got %d)", opts.maxSize)
	}
	return opts, nil
}

// runEvaluation scores every labeled image and returns the written report path.
func runEvaluation(ctx context.Context, opts evalOptions) (string, error) {
	cfg := &config.Config{
		ForensicsConfigPath: opts.configPath,
		MaxRequestBodySize:  opts.maxSize,
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(metrics)

	core, err := container.NewCore(cfg, events)
	if err != nil {
		return "", err
	}

	profiles, err := classifier.ParseProfiles(opts.criteria, core.Pipeline.Classifier().Profiles())
	if err != nil {
		return "", err
	}
	criteria, err := pipeline.ParseCriteria(opts.detectors)
	if err != nil {
		return "", err
	}
	analysis := pipeline.DefaultOptions().WithProfiles(profiles...).WithCriteria(criteria...)

	fetcher, err := core.Factory.StorageFactory.CreateStorage(factory.LocalStorage)
	if err != nil {
		return "", err
	}
	samples, err := evaluation.LoadLabeled(ctx, fetcher, opts.forgedDir, opts.authenticDir)
	if err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("no supported images under %s or %s", opts.forgedDir, opts.authenticDir)
	}
	printInfo("Evaluating %d image(s) under %d profile(s)", len(samples), len(profiles))

	evaluator := evaluation.NewEvaluator(core.Pipeline, detector.NewMetadataDetector(core.Settings.Metadata))
	report, err := evaluator.Run(ctx, samples, analysis)
	if err != nil {
		return "", err
	}

	path := evaluation.ReportName(opts.report, report.Generated)
	if err := writeReport(path, report); err != nil {
		return "", err
	}

	printSummary(report)
	printDefaults(metrics.GetMetrics())
	logger.WithFields(logrus.Fields{
		"report":  path,
		"images":  len(report.Images),
		"skipped": len(report.Skipped),
	}).Debug("Evaluation report written")
	return path, nil
}

func writeReport(path string, report *evaluation.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := evaluation.WriteMarkdown(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
