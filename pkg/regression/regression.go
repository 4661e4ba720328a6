// Package regression compares run summaries against a baseline.
package regression

import (
	"sort"

	"github.com/hiwave/renderbench/models"
)

// thresholdFor maps a metric to its threshold class.
func thresholdFor(metric string, th models.Thresholds) float64 {
	switch metric {
	case models.MetricTotalMs:
		return th.TotalPct
	case models.MetricMemoryMB:
		return th.MemoryPct
	default:
		return th.PhasePct
	}
}

// Detect compares the current summary of one renderer against its baseline
// summary. It emits one finding per metric present in both sets, in stable
// metric order. A finding is flagged only when the mean increased by
// strictly more than the metric's threshold; decreases never flag.
func Detect(renderer string, baseline, current models.Summary, th models.Thresholds) []models.RegressionFinding {
	var findings []models.RegressionFinding
	for _, metric := range orderedMetrics(baseline, current) {
		base, ok := baseline[metric]
		if !ok {
			continue
		}
		cur, ok := current[metric]
		if !ok {
			continue
		}
		if base.Mean == 0 {
			// A zero baseline mean has no meaningful relative change.
			continue
		}

		pct := (cur.Mean - base.Mean) / base.Mean * 100
		threshold := thresholdFor(metric, th)
		findings = append(findings, models.RegressionFinding{
			Renderer:      renderer,
			Metric:        metric,
			BaselineValue: base.Mean,
			CurrentValue:  cur.Mean,
			PctChange:     pct,
			Threshold:     threshold,
			Flagged:       pct > threshold,
		})
	}
	return findings
}

// orderedMetrics yields tracked metrics first in canonical order, then any
// extra baseline metrics sorted by name, so findings serialize stably.
func orderedMetrics(baseline, current models.Summary) []string {
	seen := make(map[string]bool, len(models.MetricNames))
	out := make([]string, 0, len(baseline))
	for _, m := range models.MetricNames {
		seen[m] = true
		out = append(out, m)
	}
	var extra []string
	for m := range baseline {
		if !seen[m] {
			extra = append(extra, m)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
