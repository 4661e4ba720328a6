package renderer

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/performance"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// blinkEngine drives a headless Chrome instance over the DevTools protocol.
// Navigation to a data: URL exercises the real Blink parser; layout and
// paint are forced through viewport emulation and a rAF round-trip.
type blinkEngine struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

const blinkProbeTimeout = 15 * time.Second

func newBlink(ctx context.Context) (Engine, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	probeCtx, cancel := context.WithTimeout(browserCtx, blinkProbeTimeout)
	defer cancel()
	if err := chromedp.Run(probeCtx,
		chromedp.Navigate("about:blank"),
		performance.Enable(),
	); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: blink: %v", ErrUnavailable, err)
	}

	return &blinkEngine{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// run executes actions on the browser context while honoring the caller's
// deadline and cancellation.
func (e *blinkEngine) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(e.browserCtx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(runCtx, dl)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (e *blinkEngine) ParseHTML(ctx context.Context, content string) error {
	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(content))
	if err := e.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}

func (e *blinkEngine) Layout(ctx context.Context, width, height int) error {
	var docHeight int
	err := e.run(ctx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		// Reading offsetHeight forces a synchronous reflow.
		chromedp.Evaluate(`document.body ? document.body.offsetHeight : 0`, &docHeight),
	)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

func (e *blinkEngine) Paint(ctx context.Context) error {
	err := e.run(ctx, chromedp.Evaluate(
		// Two frames: the first schedules the paint, the second confirms
		// it has been committed.
		`new Promise(r => requestAnimationFrame(() => requestAnimationFrame(r)))`,
		nil,
		func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	))
	if err != nil {
		return fmt.Errorf("paint: %w", err)
	}
	return nil
}

func (e *blinkEngine) MemoryUsage(ctx context.Context) (uint64, error) {
	var usage uint64
	err := e.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		metrics, err := performance.GetMetrics().Do(ctx)
		if err != nil {
			return err
		}
		for _, m := range metrics {
			if m.Name == "JSHeapUsedSize" {
				usage = uint64(m.Value)
			}
		}
		return nil
	}))
	if err != nil {
		return 0, fmt.Errorf("memory: %w", err)
	}
	return usage, nil
}

func (e *blinkEngine) Close() error {
	e.browserCancel()
	e.allocCancel()
	return nil
}
