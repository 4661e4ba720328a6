package renderer

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// rustKit is the in-process engine. Parse builds a real DOM via goquery,
// layout runs a block-stacking pass over the element tree, and paint
// flattens the box tree into a display list rendered into a coarse
// software framebuffer.
type rustKit struct {
	doc   *goquery.Document
	boxes []layoutBox
	fb    []byte
}

// layoutBox is one laid-out element box in document coordinates.
type layoutBox struct {
	x, y, w, h int
}

const (
	lineHeight = 18
	charWidth  = 8
	// Framebuffer is painted at 1/8 scale; enough to make paint cost
	// track page size without rastering full frames.
	fbScale = 8
)

func newRustKit() Engine {
	return &rustKit{}
}

func (e *rustKit) ParseHTML(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	e.doc = doc
	e.boxes = nil
	return nil
}

func (e *rustKit) Layout(ctx context.Context, width, height int) error {
	if e.doc == nil {
		return fmt.Errorf("layout: no parsed document")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.boxes = e.boxes[:0]
	y := 0
	var walk func(n *html.Node, x, avail int)
	walk = func(n *html.Node, x, avail int) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.ElementNode:
				if c.Data == "head" || c.Data == "script" || c.Data == "style" {
					continue
				}
				box := layoutBox{x: x, y: y, w: avail}
				if isInline(c.Data) {
					box.h = lineHeight
				} else {
					y += lineHeight / 2
					box.h = lineHeight
				}
				e.boxes = append(e.boxes, box)
				walk(c, x+charWidth, avail-charWidth)
			case html.TextNode:
				text := strings.TrimSpace(c.Data)
				if text == "" {
					continue
				}
				perLine := max(avail/charWidth, 1)
				lines := (len(text) + perLine - 1) / perLine
				e.boxes = append(e.boxes, layoutBox{x: x, y: y, w: avail, h: lines * lineHeight})
				y += lines * lineHeight
			}
		}
	}
	for _, root := range e.doc.Selection.Nodes {
		walk(root, 0, width)
	}

	// Document height is content-driven; the viewport only clips paint.
	e.fb = make([]byte, (width/fbScale)*(max(y, height)/fbScale+1))
	return nil
}

func (e *rustKit) Paint(ctx context.Context) error {
	if e.boxes == nil {
		return fmt.Errorf("paint: no layout")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rowWidth := 0
	for _, b := range e.boxes {
		if b.w/fbScale > rowWidth {
			rowWidth = b.w / fbScale
		}
	}
	if rowWidth == 0 {
		rowWidth = 1
	}
	// Coarse rasterization: fill each box's scaled rows in the buffer.
	for i, b := range e.boxes {
		shade := byte(i%255 + 1)
		for row := b.y / fbScale; row <= (b.y+b.h)/fbScale; row++ {
			start := row * rowWidth
			end := start + b.w/fbScale
			for p := start; p < end && p < len(e.fb); p++ {
				e.fb[p] = shade
			}
		}
	}
	return nil
}

func (e *rustKit) MemoryUsage(ctx context.Context) (uint64, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc, nil
}

func (e *rustKit) Close() error {
	e.doc = nil
	e.boxes = nil
	e.fb = nil
	return nil
}

func isInline(tag string) bool {
	switch tag {
	case "a", "b", "i", "em", "strong", "span", "code", "small", "sub", "sup":
		return true
	}
	return false
}
