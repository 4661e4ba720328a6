// Package metrics times rendering phases and produces iteration results.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hiwave/renderbench/models"
	"github.com/hiwave/renderbench/pkg/renderer"
)

const bytesPerMB = 1 << 20

// TimeoutError is recorded on iterations that exceed their time budget.
const TimeoutError = "timeout"

// Collector measures one iteration at a time against one engine instance.
// It is not safe for concurrent use; each worker owns its own Collector.
type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

// measurement is the per-call result holder. An abandoned iteration's
// goroutine may outlive Measure, so each call gets its own state and the
// snapshot is read under the lock.
type measurement struct {
	mu  sync.Mutex
	res models.IterationResult
}

func (m *measurement) record(f func(*models.IterationResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.res)
}

func (m *measurement) snapshot() models.IterationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.res
}

// Measure runs parse, layout and paint in order under a monotonic clock and
// snapshots engine memory after paint. A phase failure marks the result
// failed but keeps the durations already recorded. When timeout expires the
// iteration is abandoned and marked failed with a timeout error; it is not
// retried.
//
// The boolean result reports whether the caller still owns the engine. An
// abandoned iteration's goroutine may still be inside an engine phase, so
// Measure takes ownership and closes the engine once that goroutine returns;
// the caller must drop its reference and build a fresh engine.
func (c *Collector) Measure(ctx context.Context, name string, eng renderer.Engine, page models.TestPage, vp models.Viewport, timeout time.Duration) (models.IterationResult, bool) {
	m := &measurement{res: models.IterationResult{
		PageID:   page.ID,
		Viewport: vp,
		Renderer: name,
	}}

	iterCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.measure(iterCtx, m, eng, page, vp)
	}()

	select {
	case <-done:
		return m.snapshot(), true
	case <-iterCtx.Done():
		// Abandon the in-flight iteration but keep the phase durations it
		// managed to record. The goroutine may still be mid-phase inside
		// the engine, so teardown has to wait for it.
		go func() {
			<-done
			_ = eng.Close()
		}()
		res := m.snapshot()
		res.OK = false
		if ctx.Err() != nil {
			res.Error = ctx.Err().Error()
		} else {
			res.Error = TimeoutError
		}
		return res, false
	}
}

func (c *Collector) measure(ctx context.Context, m *measurement, eng renderer.Engine, page models.TestPage, vp models.Viewport) {
	start := time.Now()

	parseStart := time.Now()
	parseErr := eng.ParseHTML(ctx, page.HTML)
	m.record(func(r *models.IterationResult) { r.ParseMs = ms(time.Since(parseStart)) })
	if parseErr != nil {
		m.fail(fmt.Errorf("parse phase: %w", parseErr))
		return
	}

	layoutStart := time.Now()
	layoutErr := eng.Layout(ctx, vp.Width, vp.Height)
	m.record(func(r *models.IterationResult) { r.LayoutMs = ms(time.Since(layoutStart)) })
	if layoutErr != nil {
		m.fail(fmt.Errorf("layout phase: %w", layoutErr))
		return
	}

	paintStart := time.Now()
	paintErr := eng.Paint(ctx)
	m.record(func(r *models.IterationResult) {
		r.PaintMs = ms(time.Since(paintStart))
		// Wall-clock span from parse start to paint end, so inter-phase
		// overhead is counted too.
		r.TotalMs = ms(time.Since(start))
	})
	if paintErr != nil {
		m.fail(fmt.Errorf("paint phase: %w", paintErr))
		return
	}

	mem, memErr := eng.MemoryUsage(ctx)
	if memErr != nil {
		// A silent zero would deflate the memory summary, so a failed
		// snapshot fails the iteration like any phase error.
		m.fail(fmt.Errorf("memory snapshot: %w", memErr))
		return
	}
	m.record(func(r *models.IterationResult) {
		r.MemoryMB = float64(mem) / bytesPerMB
		r.OK = true
	})
}

func (m *measurement) fail(err error) {
	m.record(func(r *models.IterationResult) {
		r.OK = false
		r.Error = err.Error()
	})
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
