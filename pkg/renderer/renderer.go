// Package renderer exposes the rendering-engine capability set the harness
// measures, and the closed set of engine variants implementing it.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable means an engine variant cannot run on this platform.
var ErrUnavailable = errors.New("renderer unavailable")

// Engine is the capability set the harness times. An Engine instance is not
// safe for concurrent iterations; each worker owns its own instances.
type Engine interface {
	// ParseHTML parses the document markup.
	ParseHTML(ctx context.Context, content string) error
	// Layout computes layout against the given viewport.
	Layout(ctx context.Context, width, height int) error
	// Paint renders the laid-out document.
	Paint(ctx context.Context) error
	// MemoryUsage reports current engine memory in bytes.
	MemoryUsage(ctx context.Context) (uint64, error)
	// Close releases engine resources.
	Close() error
}

// Type identifies one engine variant.
type Type string

const (
	RustKit Type = "rustkit"
	WebKit  Type = "webkit"
	Blink   Type = "blink"
	Gecko   Type = "gecko"
)

// All lists every registered variant.
var All = []Type{RustKit, WebKit, Blink, Gecko}

// ParseType resolves a renderer name from the CLI.
func ParseType(name string) (Type, error) {
	switch Type(strings.ToLower(name)) {
	case RustKit:
		return RustKit, nil
	case WebKit:
		return WebKit, nil
	case Blink:
		return Blink, nil
	case Gecko:
		return Gecko, nil
	}
	return "", fmt.Errorf("unknown renderer %q", name)
}

// New constructs a fresh engine instance of the given variant. It returns
// an error wrapping ErrUnavailable when the variant cannot run here.
func New(ctx context.Context, t Type) (Engine, error) {
	switch t {
	case RustKit:
		return newRustKit(), nil
	case WebKit:
		return newWebKit()
	case Blink:
		return newBlink(ctx)
	case Gecko:
		return newGecko()
	}
	return nil, fmt.Errorf("unknown renderer type %q", t)
}

// Probe reports whether the variant can be constructed on this platform.
func Probe(ctx context.Context, t Type) error {
	e, err := New(ctx, t)
	if err != nil {
		return err
	}
	return e.Close()
}
