// Package stats reduces iteration results into per-metric summaries.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hiwave/renderbench/models"
)

// ErrNoData means there were zero successful results to aggregate. It is
// surfaced explicitly instead of letting the math degenerate.
var ErrNoData = errors.New("no successful results to aggregate")

// Summarize computes the summary of one metric's values.
//
// Percentiles use linear interpolation between the two bracketing order
// statistics at rank p/100*(n-1), which stays stable for small n. Standard
// deviation uses the population formula. CV is stddev/mean, defined as 0
// when the mean is 0.
func Summarize(values []float64) (models.MetricStats, error) {
	if len(values) == 0 {
		return models.MetricStats{}, ErrNoData
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= n
	stdDev := math.Sqrt(variance)

	cv := 0.0
	if mean != 0 {
		cv = stdDev / mean
	}

	return models.MetricStats{
		Mean:   mean,
		Median: percentile(sorted, 50),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P95:    percentile(sorted, 95),
		P99:    percentile(sorted, 99),
		StdDev: stdDev,
		CV:     cv,
	}, nil
}

// SummarizeResults reduces the OK results of one renderer into a summary
// per tracked metric. ErrNoData when no result is OK.
func SummarizeResults(results []models.IterationResult) (models.Summary, error) {
	var ok []models.IterationResult
	for _, r := range results {
		if r.OK {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return nil, ErrNoData
	}

	summary := make(models.Summary, len(models.MetricNames))
	for _, metric := range models.MetricNames {
		values := make([]float64, len(ok))
		for i, r := range ok {
			values[i] = r.Metric(metric)
		}
		st, err := Summarize(values)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", metric, err)
		}
		summary[metric] = st
	}
	return summary, nil
}

// percentile computes the p-th percentile of sorted by linear interpolation
// between the bracketing order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// WelchTTest returns the t statistic and Welch-Satterthwaite degrees of
// freedom for two samples, for significance checks on top of the threshold
// comparison. Both samples need at least two points.
func WelchTTest(a, b []float64) (t, df float64, err error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, 0, errors.New("welch t-test needs at least two points per sample")
	}

	n1, n2 := float64(len(a)), float64(len(b))
	mean1, var1 := sampleMoments(a)
	mean2, var2 := sampleMoments(b)

	se := var1/n1 + var2/n2
	if se == 0 {
		return 0, 0, errors.New("welch t-test undefined for zero variance")
	}
	t = (mean1 - mean2) / math.Sqrt(se)
	df = se * se / (math.Pow(var1/n1, 2)/(n1-1) + math.Pow(var2/n2, 2)/(n2-1))
	return t, df, nil
}

// sampleMoments returns the mean and the sample (n-1) variance.
func sampleMoments(values []float64) (mean, variance float64) {
	n := float64(len(values))
	for _, v := range values {
		mean += v
	}
	mean /= n
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= n - 1
	return mean, variance
}
