package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hiwave/renderbench/internal/common"
	"github.com/hiwave/renderbench/models"
	"github.com/hiwave/renderbench/pkg/catalog"
	"github.com/hiwave/renderbench/pkg/metrics"
	"github.com/hiwave/renderbench/pkg/regression"
	"github.com/hiwave/renderbench/pkg/renderer"
	"github.com/hiwave/renderbench/pkg/report"
	"github.com/hiwave/renderbench/pkg/sampler"
	"github.com/hiwave/renderbench/pkg/stats"
)

// Runner executes one Monte Carlo run end to end.
type Runner struct {
	cfg        models.RunConfig
	thresholds models.Thresholds
	logger     *slog.Logger
	state      State
}

func NewRunner(cfg models.RunConfig, th models.Thresholds, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, thresholds: th, logger: logger, state: StateIdle}
}

func (r *Runner) setState(s State) {
	r.logger.Debug("state transition", "from", r.state.String(), "to", s.String())
	r.state = s
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State { return r.state }

// Run drives Loading -> Running -> Aggregating -> Detecting -> Reporting.
// The returned error is fatal (config, no-data, or report I/O); flagged
// regressions are not an error and are read off the report. External
// cancellation does not discard partial progress: iterations completed
// before the cancel are still aggregated and reported.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	start := time.Now()

	r.setState(StateLoading)
	pages, err := catalog.Load(r.logger, r.cfg.PagesDir)
	if err != nil {
		r.setState(StateAborted)
		return nil, err
	}
	r.logger.Info("loaded test pages", "count", len(pages), "dir", r.cfg.PagesDir)

	renderers, err := r.resolveRenderers(ctx)
	if err != nil {
		r.setState(StateAborted)
		return nil, err
	}

	samp := sampler.New(pages, r.cfg.Seed)
	// Pre-draw the full workload sequence so worker scheduling cannot
	// perturb the sampling order for a given seed.
	workloads := samp.Draw(r.cfg.Iterations)
	r.logger.Info("starting iterations",
		"iterations", r.cfg.Iterations,
		"renderers", renderers,
		"seed", samp.Seed(),
		"workers", r.cfg.Workers)

	r.setState(StateRunning)
	results := r.runIterations(ctx, renderers, workloads)
	if ctx.Err() != nil {
		r.logger.Warn("run interrupted, aggregating completed iterations", "completed", len(results))
	}

	r.setState(StateAggregating)
	summary, err := r.aggregate(results)
	if err != nil {
		r.setState(StateAborted)
		return nil, err
	}

	rep := &models.RunReport{
		Platform:     common.Platform(),
		GitCommit:    common.GitCommit(),
		Timestamp:    time.Now().UTC(),
		Iterations:   r.cfg.Iterations,
		Seed:         samp.Seed(),
		DurationSecs: time.Since(start).Seconds(),
		Config:       r.cfg,
		Results:      results,
		Summary:      summary,
	}

	r.setState(StateDetecting)
	r.detect(rep)

	r.setState(StateReporting)
	if err := report.Emit(rep, r.cfg.OutputPath); err != nil {
		r.setState(StateAborted)
		return nil, err
	}
	r.logger.Info("report written", "path", r.cfg.OutputPath, "flagged", rep.FlaggedCount())

	r.setState(StateDone)
	return rep, nil
}

// resolveRenderers turns the renderer selector into the list of variants to
// measure. "all" probes every registered variant and keeps the available
// ones; a named variant that is unavailable is a configuration error.
func (r *Runner) resolveRenderers(ctx context.Context) ([]renderer.Type, error) {
	if r.cfg.Renderer != "all" {
		t, err := renderer.ParseType(r.cfg.Renderer)
		if err != nil {
			return nil, err
		}
		if err := renderer.Probe(ctx, t); err != nil {
			return nil, fmt.Errorf("renderer %s: %w", t, err)
		}
		return []renderer.Type{t}, nil
	}

	var available []renderer.Type
	for _, t := range renderer.All {
		if err := renderer.Probe(ctx, t); err != nil {
			r.logger.Warn("skipping unavailable renderer", "renderer", string(t), "error", err)
			continue
		}
		available = append(available, t)
	}
	if len(available) == 0 {
		return nil, errors.New("no renderer available")
	}
	return available, nil
}

// runIterations fans the pre-drawn workload sequence out over the worker
// pool. Each worker owns its own engine instances and collector; every
// (iteration, renderer) pair has a reserved result slot, so workers never
// contend and completion order does not matter.
func (r *Runner) runIterations(ctx context.Context, renderers []renderer.Type, workloads []sampler.Workload) []models.IterationResult {
	slots := make([]*models.IterationResult, len(workloads)*len(renderers))
	jobs := make(chan int)
	var wg sync.WaitGroup
	var progress atomic.Int64

	workers := min(r.cfg.Workers, len(workloads))
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go r.worker(ctx, w, renderers, workloads, jobs, slots, &progress, &wg)
	}

	for i := range workloads {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	results := make([]models.IterationResult, 0, len(slots))
	for _, res := range slots {
		if res != nil {
			results = append(results, *res)
		}
	}
	return results
}

func (r *Runner) worker(ctx context.Context, id int, renderers []renderer.Type, workloads []sampler.Workload, jobs <-chan int, slots []*models.IterationResult, progress *atomic.Int64, wg *sync.WaitGroup) {
	defer wg.Done()

	engines := make(map[renderer.Type]renderer.Engine, len(renderers))
	defer func() {
		for _, eng := range engines {
			_ = eng.Close()
		}
	}()

	collector := metrics.NewCollector()
	for idx := range jobs {
		if ctx.Err() != nil {
			return
		}
		wl := workloads[idx]
		r.logger.Debug("iteration", "worker", id, "index", idx, "page", wl.Page.ID, "viewport", wl.Viewport.String())

		for rIdx, rt := range renderers {
			eng, ok := engines[rt]
			if !ok {
				var err error
				eng, err = renderer.New(ctx, rt)
				if err != nil {
					// Probed available at startup; treat a later failure
					// as a failed iteration, not a fatal condition.
					res := models.IterationResult{
						PageID:   wl.Page.ID,
						Viewport: wl.Viewport,
						Renderer: string(rt),
						Error:    err.Error(),
					}
					slots[idx*len(renderers)+rIdx] = &res
					continue
				}
				engines[rt] = eng
			}
			res, engineOK := collector.Measure(ctx, string(rt), eng, wl.Page, wl.Viewport, r.cfg.IterationTimeout)
			slots[idx*len(renderers)+rIdx] = &res
			if !engineOK {
				// The abandoned goroutine still holds the engine; Measure
				// closes it once that goroutine returns. Drop the reference
				// so the next iteration builds a fresh engine.
				delete(engines, rt)
			}
		}

		if n := progress.Add(1); n%100 == 0 {
			r.logger.Info("progress", "completed", n, "total", len(workloads))
		}
	}
}

// aggregate reduces results per renderer. Zero successful results for an
// aggregated renderer is fatal: no meaningful summary exists.
func (r *Runner) aggregate(results []models.IterationResult) (map[string]models.Summary, error) {
	byRenderer := make(map[string][]models.IterationResult)
	for _, res := range results {
		byRenderer[res.Renderer] = append(byRenderer[res.Renderer], res)
	}
	if len(byRenderer) == 0 {
		return nil, stats.ErrNoData
	}

	summary := make(map[string]models.Summary, len(byRenderer))
	for name, rs := range byRenderer {
		s, err := stats.SummarizeResults(rs)
		if err != nil {
			return nil, fmt.Errorf("renderer %s: %w", name, err)
		}
		summary[name] = s
		r.logger.Debug("aggregated", "renderer", name, "results", len(rs))
	}
	return summary, nil
}

// detect runs baseline comparison, downgrading every baseline problem to a
// note on the report rather than an error.
func (r *Runner) detect(rep *models.RunReport) {
	if r.cfg.BaselinePath == "" {
		rep.BaselineNote = "no baseline configured; regression detection skipped"
		r.logger.Info("no baseline configured, skipping regression detection")
		return
	}

	baseline, commit, err := report.LoadBaseline(r.cfg.BaselinePath)
	if err != nil {
		rep.BaselineNote = fmt.Sprintf("regression detection skipped: %v", err)
		r.logger.Warn("baseline unusable, skipping regression detection", "path", r.cfg.BaselinePath, "error", err)
		return
	}
	rep.BaselineCommit = commit

	for _, name := range sortedKeys(rep.Summary) {
		base, ok := baseline[name]
		if !ok {
			r.logger.Warn("renderer missing from baseline", "renderer", name)
			continue
		}
		findings := regression.Detect(name, base, rep.Summary[name], r.thresholds)
		rep.Regressions = append(rep.Regressions, findings...)
	}
	r.logger.Info("regression detection complete", "findings", len(rep.Regressions), "flagged", rep.FlaggedCount())
}

// sortedKeys keeps finding order deterministic across runs.
func sortedKeys(m map[string]models.Summary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
