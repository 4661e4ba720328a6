package models

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RunConfig holds runtime configuration for a harness run.
// All values come from CLI flags; it is built once and read-only afterwards.
type RunConfig struct {
	Iterations       int           `json:"iterations" validate:"gt=0"`
	Renderer         string        `json:"renderer" validate:"oneof=rustkit webkit blink gecko all"`
	Seed             uint64        `json:"seed"`
	PagesDir         string        `json:"pages_dir" validate:"required"`
	BaselinePath     string        `json:"baseline_path,omitempty"`
	OutputPath       string        `json:"output_path" validate:"required"`
	Workers          int           `json:"workers" validate:"gt=0"`
	IterationTimeout time.Duration `json:"iteration_timeout_ns" validate:"gt=0"`
	Verbose          bool          `json:"verbose"`
}

// Validate checks the config once at startup. A Seed of zero means
// "derive from time"; the derived value is recorded in the report.
func (c *RunConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	return nil
}

// Thresholds holds the per-metric-class regression thresholds, in percent.
type Thresholds struct {
	TotalPct  float64 `yaml:"total_pct"`
	PhasePct  float64 `yaml:"phase_pct"`
	MemoryPct float64 `yaml:"memory_pct"`
}

// DefaultThresholds returns the stock regression thresholds: 5% on total
// render time, 10% on individual phases, 15% on memory.
func DefaultThresholds() Thresholds {
	return Thresholds{TotalPct: 5.0, PhasePct: 10.0, MemoryPct: 15.0}
}

// LoadThresholds reads a YAML thresholds file. Fields left at zero keep
// their defaults.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	data, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("error reading thresholds file: %w", err)
	}
	var override Thresholds
	if err := yaml.Unmarshal(data, &override); err != nil {
		return th, fmt.Errorf("error parsing thresholds file: %w", err)
	}
	if override.TotalPct > 0 {
		th.TotalPct = override.TotalPct
	}
	if override.PhasePct > 0 {
		th.PhasePct = override.PhasePct
	}
	if override.MemoryPct > 0 {
		th.MemoryPct = override.MemoryPct
	}
	return th, nil
}
