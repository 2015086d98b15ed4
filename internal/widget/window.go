package widget

import (
	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
)

// Window is a tree.Window whose content is a single root Box.
type Window struct {
	tree.Frame
	Root       *Box
	Background uint32
	// OnEvent sees every event that reaches window level before the
	// default handling. Returning a nil event skips the default.
	OnEvent HandlerFunc
}

var _ tree.Window = (*Window)(nil)

// NewWindow returns a visible, focusable window of the given size.
func NewWindow(title string, width, height int) *Window {
	return &Window{
		Frame: tree.Frame{
			Name:      title,
			Visible:   true,
			Focusable: true,
			Extent:    event.Size{Width: width, Height: height},
		},
		Root:       &Box{Bounds: Rect{Width: width, Height: height}},
		Background: 0x1f2933,
	}
}

// Point implements tree.Window.
func (w *Window) Point(pos event.Pos) ([]tree.IndexPair, bool) {
	if w.Root == nil {
		return nil, false
	}
	pairs := w.Root.point(pos)
	return pairs, len(pairs) > 0
}

// Widget implements tree.Window.
func (w *Window) Widget(pairs []tree.IndexPair) (tree.Widget, bool) {
	if w.Root == nil || len(pairs) == 0 {
		return nil, false
	}
	cur := w.Root
	for _, pair := range pairs {
		next, ok := cur.child(pair)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Draw implements tree.Window.
func (w *Window) Draw(c tree.Canvas) {
	size := c.Size()
	c.FillRect(0, 0, size.Width, size.Height, w.Background)
	if w.Root != nil {
		w.Root.draw(c)
	}
}

// UpdateSize keeps the root box covering the whole surface.
func (w *Window) UpdateSize(size event.Size) {
	w.Frame.UpdateSize(size)
	if w.Root != nil {
		w.Root.Bounds.Width = size.Width
		w.Root.Bounds.Height = size.Height
	}
}

// HandleEvent implements tree.Widget at window level. A close request hides
// the window; a resize updates the recorded size.
func (w *Window) HandleEvent(ctx *tree.Context, ev event.Event) (event.Event, error) {
	if w.OnEvent != nil {
		next, err := w.OnEvent(ctx, ev)
		if err != nil || next == nil {
			return nil, err
		}
		ev = next
	}
	switch e := ev.(type) {
	case event.CloseRequest:
		w.Visible = false
	case event.Resize:
		w.UpdateSize(e.Size)
	}
	return nil, nil
}
