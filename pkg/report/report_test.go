package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hiwave/renderbench/models"
)

func sampleReport() *models.RunReport {
	return &models.RunReport{
		Platform:   "linux",
		GitCommit:  "abc1234",
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Iterations: 2,
		Seed:       99,
		Config: models.RunConfig{
			Iterations: 2, Renderer: "rustkit", PagesDir: "pages",
			OutputPath: "out.json", Workers: 1, IterationTimeout: time.Second,
		},
		Results: []models.IterationResult{
			{PageID: "p1", Viewport: models.Viewport{Width: 320, Height: 568}, Renderer: "rustkit",
				ParseMs: 1, LayoutMs: 2, PaintMs: 3, TotalMs: 7, MemoryMB: 12, OK: true},
			{PageID: "p2", Viewport: models.Viewport{Width: 1280, Height: 720}, Renderer: "rustkit",
				OK: false, Error: "paint phase: boom"},
		},
		Summary: map[string]models.Summary{
			"rustkit": {
				models.MetricTotalMs:  {Mean: 7, Median: 7, Min: 7, Max: 7, P95: 7, P99: 7},
				models.MetricMemoryMB: {Mean: 12, Median: 12, Min: 12, Max: 12, P95: 12, P99: 12},
			},
		},
		Regressions: []models.RegressionFinding{
			{Renderer: "rustkit", Metric: models.MetricTotalMs, BaselineValue: 5,
				CurrentValue: 7, PctChange: 40, Threshold: 5, Flagged: true},
		},
	}
}

func TestEmitAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "perf-results.json")

	if err := Emit(sampleReport(), path); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Platform != "linux" || loaded.GitCommit != "abc1234" {
		t.Errorf("metadata = %s/%s, want linux/abc1234", loaded.Platform, loaded.GitCommit)
	}
	if len(loaded.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(loaded.Results))
	}
	if loaded.Summary["rustkit"][models.MetricTotalMs].Mean != 7 {
		t.Errorf("summary total mean = %v, want 7", loaded.Summary["rustkit"][models.MetricTotalMs].Mean)
	}
	if len(loaded.Regressions) != 1 || !loaded.Regressions[0].Flagged {
		t.Errorf("regressions = %+v, want one flagged finding", loaded.Regressions)
	}
}

func TestEmit_AllTopLevelKeysPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf-results.json")
	if err := Emit(sampleReport(), path); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("report is not a JSON object: %v", err)
	}

	for _, key := range []string{"platform", "git_commit", "iterations", "config", "results", "summary", "regressions"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("report missing top-level key %q", key)
		}
	}
}

func TestLoadBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := Emit(sampleReport(), path); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	summary, commit, err := LoadBaseline(path)
	if err != nil {
		t.Fatalf("LoadBaseline() error = %v", err)
	}
	if commit != "abc1234" {
		t.Errorf("commit = %q, want abc1234", commit)
	}
	if summary["rustkit"][models.MetricTotalMs].Mean != 7 {
		t.Errorf("baseline total mean = %v, want 7", summary["rustkit"][models.MetricTotalMs].Mean)
	}
}

func TestLoadBaseline_Missing(t *testing.T) {
	_, _, err := LoadBaseline(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrBaselineMissing) {
		t.Fatalf("LoadBaseline() error = %v, want ErrBaselineMissing", err)
	}
}

func TestLoadBaseline_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := LoadBaseline(path)
	if !errors.Is(err, ErrBaselineMalformed) {
		t.Fatalf("LoadBaseline() error = %v, want ErrBaselineMalformed", err)
	}
}

func TestLoadBaseline_NoSummaryBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := LoadBaseline(path)
	if !errors.Is(err, ErrBaselineMalformed) {
		t.Fatalf("LoadBaseline() error = %v, want ErrBaselineMalformed", err)
	}
}

func TestPrintSummary(t *testing.T) {
	var sb strings.Builder
	PrintSummary(&sb, sampleReport())
	out := sb.String()

	for _, want := range []string{"Renderer: rustkit", "Total Time:", "REGRESSIONS DETECTED (1):", "total_ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummary_ListsImprovements(t *testing.T) {
	rep := sampleReport()
	rep.Regressions = []models.RegressionFinding{
		{Renderer: "rustkit", Metric: models.MetricTotalMs, BaselineValue: 10,
			CurrentValue: 8, PctChange: -20, Threshold: 5},
		{Renderer: "rustkit", Metric: models.MetricParseMs, BaselineValue: 4,
			CurrentValue: 3.9, PctChange: -2.5, Threshold: 10},
	}

	var sb strings.Builder
	PrintSummary(&sb, rep)
	out := sb.String()

	if !strings.Contains(out, "No regressions against baseline.") {
		t.Errorf("summary output missing no-regressions line:\n%s", out)
	}
	if !strings.Contains(out, "IMPROVEMENTS (1):") || !strings.Contains(out, "total_ms: -20.00%") {
		t.Errorf("summary output missing the improvement beyond threshold:\n%s", out)
	}
	if strings.Contains(out, "parse_ms") {
		t.Errorf("summary output lists noise drift below threshold:\n%s", out)
	}
}
