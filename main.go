package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hiwave/renderbench/internal/bench"
)

func main() {
	app := &cli.App{
		Name:  "renderbench",
		Usage: "Monte Carlo performance testing harness for rendering engines",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"i"},
				Value:   1000,
				Usage:   "number of Monte Carlo iterations",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "perf-results.json",
				Usage:   "output JSON report path",
			},
			&cli.StringFlag{
				Name:    "renderer",
				Aliases: []string{"r"},
				Value:   "all",
				Usage:   "renderer to test (rustkit, webkit, blink, gecko, all)",
			},
			&cli.StringFlag{
				Name:    "pages-dir",
				Aliases: []string{"p"},
				Value:   "pages",
				Usage:   "test pages directory",
			},
			&cli.StringFlag{
				Name:    "baseline",
				Aliases: []string{"b"},
				Usage:   "baseline report for regression comparison (optional)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "stream per-iteration progress",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "RNG seed for workload sampling (0 = derive from time)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: 4,
				Usage: "number of concurrent iteration workers",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "per-iteration timeout",
			},
			&cli.StringFlag{
				Name:  "thresholds",
				Usage: "YAML file overriding regression thresholds (optional)",
			},
		},
		Action: bench.RunAction,
	}

	// Bad flags are configuration errors, exit code 2.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
