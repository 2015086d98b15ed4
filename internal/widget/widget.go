// Package widget provides a small set of concrete windows and widgets:
// rectangles that nest, hit-test and forward events. Layout is left to the
// application; every box carries absolute bounds relative to its window.
package widget

import (
	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
)

// Rect is a window-relative rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p event.Pos) bool {
	return p.X >= float64(r.X) && p.X < float64(r.X+r.Width) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Y+r.Height)
}

// HandlerFunc handles an event delivered to a box or window.
type HandlerFunc func(ctx *tree.Context, ev event.Event) (event.Event, error)

// Box is a rectangle with optional children. Children are drawn in order,
// so later children sit on top and win hit-tests.
type Box struct {
	Bounds   Rect
	Color    uint32
	Label    string
	Children []*Box
	// OnEvent handles events addressed to the box. When nil the event
	// bubbles to the parent unchanged.
	OnEvent HandlerFunc
}

// HandleEvent implements tree.Widget.
func (b *Box) HandleEvent(ctx *tree.Context, ev event.Event) (event.Event, error) {
	if b.OnEvent == nil {
		return ev, nil
	}
	return b.OnEvent(ctx, ev)
}

// Add appends child and returns it.
func (b *Box) Add(child *Box) *Box {
	b.Children = append(b.Children, child)
	return child
}

// point returns the path below b to the deepest child containing pos.
func (b *Box) point(pos event.Pos) []tree.IndexPair {
	for i := len(b.Children) - 1; i >= 0; i-- {
		child := b.Children[i]
		if child == nil || !child.Bounds.Contains(pos) {
			continue
		}
		return append([]tree.IndexPair{{Index: i}}, child.point(pos)...)
	}
	return nil
}

func (b *Box) child(pair tree.IndexPair) (*Box, bool) {
	if pair.Slot != 0 || pair.Index < 0 || pair.Index >= len(b.Children) {
		return nil, false
	}
	c := b.Children[pair.Index]
	return c, c != nil
}

func (b *Box) draw(c tree.Canvas) {
	if b.Color != 0 {
		c.FillRect(b.Bounds.X, b.Bounds.Y, b.Bounds.Width, b.Bounds.Height, b.Color)
	}
	if b.Label != "" {
		c.DrawText(b.Bounds.X+6, b.Bounds.Y+b.Bounds.Height/2+4, b.Label, labelColor)
	}
	for _, child := range b.Children {
		if child != nil {
			child.draw(c)
		}
	}
}

const labelColor = 0xf5f7fa

// Button returns a labelled box that calls onClick when the left button is
// released over it.
func Button(bounds Rect, label string, color uint32, onClick func(ctx *tree.Context) error) *Box {
	return &Box{
		Bounds: bounds,
		Color:  color,
		Label:  label,
		OnEvent: func(ctx *tree.Context, ev event.Event) (event.Event, error) {
			btn, ok := ev.(event.PointerButton)
			if !ok || btn.Button != event.ButtonLeft {
				return ev, nil
			}
			if btn.Pressed || onClick == nil {
				return nil, nil
			}
			return nil, onClick(ctx)
		},
	}
}
