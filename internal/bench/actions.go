// Package bench orchestrates Monte Carlo performance runs.
package bench

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hiwave/renderbench/models"
	"github.com/hiwave/renderbench/pkg/report"
	"github.com/hiwave/renderbench/pkg/stats"
)

// Exit codes: 0 clean run, 1 at least one flagged regression, 2 fatal or
// configuration error.
const (
	ExitOK         = 0
	ExitRegression = 1
	ExitFatal      = 2
)

// RunAction is the single CLI entrypoint: it builds the run config from
// flags, executes the run, prints the summary, and sets the exit code.
func RunAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg := models.RunConfig{
		Iterations:       c.Int("iterations"),
		Renderer:         c.String("renderer"),
		Seed:             c.Uint64("seed"),
		PagesDir:         c.String("pages-dir"),
		BaselinePath:     c.String("baseline"),
		OutputPath:       c.String("output"),
		Workers:          c.Int("workers"),
		IterationTimeout: c.Duration("timeout"),
		Verbose:          c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(ExitFatal)
	}

	thresholds := models.DefaultThresholds()
	if path := c.String("thresholds"); path != "" {
		var err error
		thresholds, err = models.LoadThresholds(path)
		if err != nil {
			logger.Error("invalid thresholds file", "error", err)
			os.Exit(ExitFatal)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(cfg, thresholds, logger)
	rep, err := runner.Run(ctx)
	if err != nil {
		logFatalRunError(logger, err)
		os.Exit(ExitFatal)
	}

	report.PrintSummary(os.Stdout, rep)
	if rep.FlaggedCount() > 0 {
		os.Exit(ExitRegression)
	}
	return nil
}

func logFatalRunError(logger *slog.Logger, err error) {
	if errors.Is(err, stats.ErrNoData) {
		logger.Error("no successful iterations, nothing to aggregate", "error", err)
		return
	}
	logger.Error("run failed", "error", err)
}
