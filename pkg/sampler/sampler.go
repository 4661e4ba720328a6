// Package sampler draws randomized (page, viewport) workloads.
//
// The generator is a math/rand/v2 PCG source seeded with (seed, seed).
// Each draw is rng.IntN(len(pages)) followed by rng.IntN(len(viewports)),
// so page and viewport are uniform and independent, and a fixed seed
// replays the exact same workload sequence on every run.
package sampler

import (
	"math/rand/v2"
	"time"

	"github.com/hiwave/renderbench/models"
)

// Workload is one (page, viewport) pair to render.
type Workload struct {
	Page     models.TestPage
	Viewport models.Viewport
}

// Sampler draws workloads from a fixed page pool and the fixed viewport
// pool. It is not safe for concurrent use; pre-draw with Draw before
// dispatching work to a pool.
type Sampler struct {
	pages []models.TestPage
	seed  uint64
	rng   *rand.Rand
}

// New creates a sampler over pages. A zero seed is replaced with a
// time-derived one; Seed reports the value actually used so it can be
// recorded for reproducibility.
func New(pages []models.TestPage, seed uint64) *Sampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Sampler{
		pages: pages,
		seed:  seed,
		rng:   rand.New(rand.NewPCG(seed, seed)),
	}
}

// Seed returns the seed in effect for this sampler.
func (s *Sampler) Seed() uint64 { return s.seed }

// Next draws the next workload.
func (s *Sampler) Next() Workload {
	page := s.pages[s.rng.IntN(len(s.pages))]
	vp := models.Viewports[s.rng.IntN(len(models.Viewports))]
	return Workload{Page: page, Viewport: vp}
}

// Draw pre-draws the full n-workload sequence. Generating the sequence
// up-front keeps it deterministic regardless of how many workers later
// consume it.
func (s *Sampler) Draw(n int) []Workload {
	out := make([]Workload, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}
