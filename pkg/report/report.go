// Package report persists run reports and loads baselines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hiwave/renderbench/models"
	"github.com/hiwave/renderbench/pkg/storage"
)

var (
	// ErrBaselineMissing means no baseline file exists at the given path.
	// Callers downgrade this to "detection skipped".
	ErrBaselineMissing = errors.New("baseline file missing")
	// ErrBaselineMalformed means the baseline file could not be parsed.
	ErrBaselineMalformed = errors.New("baseline file malformed")
)

// Emit serializes the report as indented JSON to outputPath. All report
// fields are always present so downstream tooling can parse reliably.
func Emit(rep *models.RunReport, outputPath string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling report: %w", err)
	}
	s := &storage.Storage{}
	if err := s.SaveFile(outputPath, data); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}

// Load parses a previously emitted report.
func Load(path string) (*models.RunReport, error) {
	s := &storage.Storage{}
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep models.RunReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("error parsing report: %w", err)
	}
	return &rep, nil
}

// LoadBaseline reads a prior run's report and returns its summary block,
// keyed by renderer, plus the commit it was recorded at. A missing or
// unparseable file is reported via the sentinel errors so the run can
// downgrade it to a warning instead of failing.
func LoadBaseline(path string) (map[string]models.Summary, string, error) {
	s := &storage.Storage{}
	if !s.HasFile(path) {
		return nil, "", fmt.Errorf("%w: %s", ErrBaselineMissing, path)
	}
	rep, err := Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBaselineMalformed, err)
	}
	if len(rep.Summary) == 0 {
		return nil, "", fmt.Errorf("%w: no summary block in %s", ErrBaselineMalformed, path)
	}
	return rep.Summary, rep.GitCommit, nil
}

// PrintSummary writes the human-readable run summary. This is the only
// output in non-verbose mode.
func PrintSummary(w io.Writer, rep *models.RunReport) {
	line := func(format string, args ...any) { fmt.Fprintf(w, format+"\n", args...) }

	rule := "================================================================================"
	line("%s", rule)
	line("Performance Test Results")
	line("%s", rule)
	line("Platform:   %s", rep.Platform)
	line("Commit:     %s", rep.GitCommit)
	line("Iterations: %d", rep.Iterations)
	line("Seed:       %d", rep.Seed)
	line("Duration:   %.2fs", rep.DurationSecs)
	line("")

	for _, name := range sortedRenderers(rep.Summary) {
		summary := rep.Summary[name]
		line("Renderer: %s", name)
		line("--------------------------------------------------------------------------------")
		printMetric(w, "Parse Time", "ms", summary[models.MetricParseMs])
		printMetric(w, "Layout Time", "ms", summary[models.MetricLayoutMs])
		printMetric(w, "Paint Time", "ms", summary[models.MetricPaintMs])
		printMetric(w, "Total Time", "ms", summary[models.MetricTotalMs])
		printMetric(w, "Memory", "MB", summary[models.MetricMemoryMB])
		line("")
	}

	if rep.BaselineNote != "" {
		line("Baseline: %s", rep.BaselineNote)
		line("")
	}
	if n := rep.FlaggedCount(); n > 0 {
		line("REGRESSIONS DETECTED (%d):", n)
		line("--------------------------------------------------------------------------------")
		for _, f := range rep.Regressions {
			if !f.Flagged {
				continue
			}
			line("  %s %s: %+.2f%% (baseline %.2f, current %.2f, threshold %.0f%%)",
				f.Renderer, f.Metric, f.PctChange, f.BaselineValue, f.CurrentValue, f.Threshold)
		}
	} else if len(rep.Regressions) > 0 {
		line("No regressions against baseline.")
	}

	if imp := improvements(rep.Regressions); len(imp) > 0 {
		line("")
		line("IMPROVEMENTS (%d):", len(imp))
		line("--------------------------------------------------------------------------------")
		for _, f := range imp {
			line("  %s %s: %+.2f%% (baseline %.2f, current %.2f)",
				f.Renderer, f.Metric, f.PctChange, f.BaselineValue, f.CurrentValue)
		}
	}
}

// improvements selects findings whose mean dropped by more than the metric's
// threshold. Decreases never flag, but a drop that large is worth surfacing.
func improvements(findings []models.RegressionFinding) []models.RegressionFinding {
	var out []models.RegressionFinding
	for _, f := range findings {
		if f.PctChange < -f.Threshold {
			out = append(out, f)
		}
	}
	return out
}

func printMetric(w io.Writer, label, unit string, st models.MetricStats) {
	fmt.Fprintf(w, "  %-12s mean=%.2f%s  median=%.2f%s  p95=%.2f%s  p99=%.2f%s  cv=%.3f\n",
		label+":", st.Mean, unit, st.Median, unit, st.P95, unit, st.P99, unit, st.CV)
}

func sortedRenderers(summary map[string]models.Summary) []string {
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
