package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/hiwave/renderbench/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize_KnownValues(t *testing.T) {
	values := []float64{10, 12, 11, 13, 14}

	st, err := Summarize(values)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if !almostEqual(st.Mean, 12) {
		t.Errorf("Mean = %v, want 12", st.Mean)
	}
	if !almostEqual(st.Median, 12) {
		t.Errorf("Median = %v, want 12", st.Median)
	}
	if st.Min != 10 || st.Max != 14 {
		t.Errorf("Min/Max = %v/%v, want 10/14", st.Min, st.Max)
	}
	// Population stddev of {10,11,12,13,14} is sqrt(2).
	if !almostEqual(st.StdDev, math.Sqrt2) {
		t.Errorf("StdDev = %v, want %v", st.StdDev, math.Sqrt2)
	}
	if !almostEqual(st.CV, math.Sqrt2/12) {
		t.Errorf("CV = %v, want %v", st.CV, math.Sqrt2/12)
	}
}

func TestSummarize_PercentileInterpolation(t *testing.T) {
	// Sorted: 1..5. p95 rank = 0.95*4 = 3.8 -> 4 + 0.8*(5-4) = 4.8.
	values := []float64{5, 1, 4, 2, 3}

	st, err := Summarize(values)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !almostEqual(st.P95, 4.8) {
		t.Errorf("P95 = %v, want 4.8", st.P95)
	}
	if !almostEqual(st.P99, 4.96) {
		t.Errorf("P99 = %v, want 4.96", st.P99)
	}
}

func TestSummarize_PercentileOrdering(t *testing.T) {
	values := []float64{3.2, 7.8, 1.1, 9.4, 5.5, 2.2, 8.1, 0.4, 6.6, 4.9}

	st, err := Summarize(values)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !(st.Min <= st.Median && st.Median <= st.P95 && st.P95 <= st.P99 && st.P99 <= st.Max) {
		t.Errorf("ordering violated: min=%v median=%v p95=%v p99=%v max=%v",
			st.Min, st.Median, st.P95, st.P99, st.Max)
	}
}

func TestSummarize_SinglePoint(t *testing.T) {
	st, err := Summarize([]float64{42})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	for name, got := range map[string]float64{
		"Mean": st.Mean, "Median": st.Median, "Min": st.Min,
		"Max": st.Max, "P95": st.P95, "P99": st.P99,
	} {
		if got != 42 {
			t.Errorf("%s = %v, want 42", name, got)
		}
	}
	if st.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0", st.StdDev)
	}
	if st.CV != 0 {
		t.Errorf("CV = %v, want 0", st.CV)
	}
}

func TestSummarize_ZeroMeanCV(t *testing.T) {
	st, err := Summarize([]float64{0, 0, 0})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if st.CV != 0 {
		t.Errorf("CV = %v, want 0 for zero mean", st.CV)
	}
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Summarize(nil) error = %v, want ErrNoData", err)
	}
}

func TestSummarizeResults_FiltersFailed(t *testing.T) {
	results := []models.IterationResult{
		{Renderer: "rustkit", TotalMs: 10, ParseMs: 2, LayoutMs: 3, PaintMs: 4, MemoryMB: 100, OK: true},
		{Renderer: "rustkit", TotalMs: 9999, Error: "paint phase: boom", OK: false},
		{Renderer: "rustkit", TotalMs: 20, ParseMs: 4, LayoutMs: 6, PaintMs: 8, MemoryMB: 200, OK: true},
	}

	summary, err := SummarizeResults(results)
	if err != nil {
		t.Fatalf("SummarizeResults() error = %v", err)
	}

	total := summary[models.MetricTotalMs]
	if !almostEqual(total.Mean, 15) {
		t.Errorf("total mean = %v, want 15 (failed result must be excluded)", total.Mean)
	}
	if !almostEqual(summary[models.MetricMemoryMB].Mean, 150) {
		t.Errorf("memory mean = %v, want 150", summary[models.MetricMemoryMB].Mean)
	}
}

func TestSummarizeResults_AllFailed(t *testing.T) {
	results := []models.IterationResult{
		{Renderer: "rustkit", OK: false, Error: "timeout"},
		{Renderer: "rustkit", OK: false, Error: "timeout"},
	}

	_, err := SummarizeResults(results)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("SummarizeResults() error = %v, want ErrNoData", err)
	}
}

func TestWelchTTest(t *testing.T) {
	a := []float64{10, 11, 12, 13, 14}
	b := []float64{20, 21, 22, 23, 24}

	tStat, df, err := WelchTTest(a, b)
	if err != nil {
		t.Fatalf("WelchTTest() error = %v", err)
	}
	if tStat >= 0 {
		t.Errorf("t = %v, want negative (a's mean is below b's)", tStat)
	}
	// Equal variances and sizes degenerate to df = n1+n2-2.
	if !almostEqual(df, 8) {
		t.Errorf("df = %v, want 8", df)
	}
}

func TestWelchTTest_TooFewPoints(t *testing.T) {
	if _, _, err := WelchTTest([]float64{1}, []float64{2, 3}); err == nil {
		t.Fatal("WelchTTest() with one point should error")
	}
}
