package models

import "time"

// Metric names used as keys in summaries, baselines, and findings.
const (
	MetricParseMs  = "parse_ms"
	MetricLayoutMs = "layout_ms"
	MetricPaintMs  = "paint_ms"
	MetricTotalMs  = "total_ms"
	MetricMemoryMB = "memory_mb"
)

// MetricNames lists every tracked metric, in report order.
var MetricNames = []string{
	MetricParseMs, MetricLayoutMs, MetricPaintMs, MetricTotalMs, MetricMemoryMB,
}

// IterationResult records one rendering iteration against one renderer.
// TotalMs is the wall-clock span from parse start to paint end, not the sum
// of the phases, so inter-phase overhead is counted too. Results are created
// once per iteration and never mutated.
type IterationResult struct {
	PageID   string   `json:"page_id"`
	Viewport Viewport `json:"viewport"`
	Renderer string   `json:"renderer"`
	ParseMs  float64  `json:"parse_ms"`
	LayoutMs float64  `json:"layout_ms"`
	PaintMs  float64  `json:"paint_ms"`
	TotalMs  float64  `json:"total_ms"`
	MemoryMB float64  `json:"memory_mb"`
	OK       bool     `json:"ok"`
	Error    string   `json:"error,omitempty"`
}

// Metric returns the value of the named metric on this result.
func (r IterationResult) Metric(name string) float64 {
	switch name {
	case MetricParseMs:
		return r.ParseMs
	case MetricLayoutMs:
		return r.LayoutMs
	case MetricPaintMs:
		return r.PaintMs
	case MetricTotalMs:
		return r.TotalMs
	case MetricMemoryMB:
		return r.MemoryMB
	}
	return 0
}

// MetricStats is the statistical summary of one metric over the successful
// results of a run.
type MetricStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"std_dev"`
	CV     float64 `json:"cv"`
}

// Summary maps metric name to its stats for a single renderer.
type Summary map[string]MetricStats

// RegressionFinding records one baseline comparison for one metric.
// Flagged is true only when PctChange exceeds Threshold strictly.
type RegressionFinding struct {
	Renderer      string  `json:"renderer"`
	Metric        string  `json:"metric"`
	BaselineValue float64 `json:"baseline_value"`
	CurrentValue  float64 `json:"current_value"`
	PctChange     float64 `json:"pct_change"`
	Threshold     float64 `json:"threshold"`
	Flagged       bool    `json:"flagged"`
}

// RunReport is the sole persisted artifact of a run. A baseline file is
// simply a prior run's report; detection reads its Summary block.
type RunReport struct {
	Platform       string              `json:"platform"`
	GitCommit      string              `json:"git_commit"`
	Timestamp      time.Time           `json:"timestamp"`
	Iterations     int                 `json:"iterations"`
	Seed           uint64              `json:"seed"`
	DurationSecs   float64             `json:"duration_secs"`
	Config         RunConfig           `json:"config"`
	Results        []IterationResult   `json:"results"`
	Summary        map[string]Summary  `json:"summary"`
	Regressions    []RegressionFinding `json:"regressions"`
	BaselineCommit string              `json:"baseline_commit,omitempty"`
	BaselineNote   string              `json:"baseline_note,omitempty"`
}

// FlaggedCount returns how many findings are flagged regressions.
func (r *RunReport) FlaggedCount() int {
	n := 0
	for _, f := range r.Regressions {
		if f.Flagged {
			n++
		}
	}
	return n
}
