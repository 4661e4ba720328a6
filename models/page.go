// Package models defines data structures shared across the harness.
package models

import "fmt"

// TestPage is a single workload page loaded from the catalog.
// Pages are immutable after catalog load.
type TestPage struct {
	ID         string         `json:"id"`
	HTML       string         `json:"-"`
	Complexity PageComplexity `json:"complexity"`
}

// PageComplexity describes how heavy a page is to render.
type PageComplexity struct {
	DOMDepth     int `json:"dom_depth"`
	ElementCount int `json:"element_count"`
	CSSRules     int `json:"css_rules"`
}

// Viewport is a device viewport in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Viewports is the fixed pool of device sizes workloads are drawn from.
var Viewports = [8]Viewport{
	{Width: 320, Height: 568},   // iPhone SE
	{Width: 375, Height: 667},   // iPhone 8
	{Width: 414, Height: 896},   // iPhone 11 Pro Max
	{Width: 768, Height: 1024},  // iPad portrait
	{Width: 1024, Height: 768},  // iPad landscape
	{Width: 1280, Height: 720},  // HD
	{Width: 1920, Height: 1080}, // Full HD
	{Width: 2560, Height: 1440}, // QHD
}
