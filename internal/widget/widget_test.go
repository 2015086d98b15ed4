package widget

import (
	"testing"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
)

type fakeCanvas struct {
	size  event.Size
	fills int
	texts []string
}

func (c *fakeCanvas) Size() event.Size { return c.size }
func (c *fakeCanvas) FillRect(x, y, width, height int, color uint32) {
	c.fills++
}
func (c *fakeCanvas) DrawText(x, y int, text string, color uint32) {
	c.texts = append(c.texts, text)
}

func TestPointPicksTopmostDeepestBox(t *testing.T) {
	w := NewWindow("main", 200, 100)
	panel := w.Root.Add(&Box{Bounds: Rect{X: 0, Y: 0, Width: 100, Height: 100}})
	panel.Add(&Box{Bounds: Rect{X: 10, Y: 10, Width: 30, Height: 30}})
	w.Root.Add(&Box{Bounds: Rect{X: 50, Y: 50, Width: 50, Height: 50}})

	tests := []struct {
		name string
		pos  event.Pos
		want []tree.IndexPair
	}{
		{"nested", event.Pos{X: 15, Y: 15}, []tree.IndexPair{{Index: 0}, {Index: 0}}},
		{"overlap goes to later sibling", event.Pos{X: 60, Y: 60}, []tree.IndexPair{{Index: 1}}},
		{"panel only", event.Pos{X: 5, Y: 80}, []tree.IndexPair{{Index: 0}}},
		{"right edge exclusive", event.Pos{X: 100, Y: 20}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := w.Point(tt.pos)
			if ok != (tt.want != nil) || !tree.WidgetPath(1, got...).Equal(tree.WidgetPath(1, tt.want...)) {
				t.Fatalf("Point(%v) = %v, %v; want %v", tt.pos, got, ok, tt.want)
			}
		})
	}
}

func TestWidgetResolvesPaths(t *testing.T) {
	w := NewWindow("main", 200, 100)
	panel := w.Root.Add(&Box{})
	leaf := panel.Add(&Box{Label: "leaf"})

	got, ok := w.Widget([]tree.IndexPair{{Index: 0}, {Index: 0}})
	if !ok || got != tree.Widget(leaf) {
		t.Fatalf("Widget = %v, %v", got, ok)
	}
	for _, pairs := range [][]tree.IndexPair{
		nil,
		{{Index: 1}},
		{{Index: 0, Slot: 1}},
		{{Index: -1}},
	} {
		if _, ok := w.Widget(pairs); ok {
			t.Fatalf("Widget(%v) resolved", pairs)
		}
	}
}

func TestButtonFiresOnRelease(t *testing.T) {
	clicks := 0
	b := Button(Rect{Width: 10, Height: 10}, "ok", 1, func(*tree.Context) error {
		clicks++
		return nil
	})

	next, err := b.HandleEvent(nil, event.PointerButton{Button: event.ButtonLeft, Pressed: true})
	if next != nil || err != nil || clicks != 0 {
		t.Fatalf("press = %v, %v; clicks %d", next, err, clicks)
	}
	_, _ = b.HandleEvent(nil, event.PointerButton{Button: event.ButtonLeft})
	if clicks != 1 {
		t.Fatalf("clicks = %d, want 1", clicks)
	}

	right := event.PointerButton{Button: event.ButtonRight}
	if next, _ := b.HandleEvent(nil, right); next != event.Event(right) {
		t.Fatalf("right button was not bubbled: %v", next)
	}
}

func TestWindowDefaultHandling(t *testing.T) {
	w := NewWindow("main", 200, 100)
	_, _ = w.HandleEvent(nil, event.Resize{Size: event.Size{Width: 300, Height: 150}})
	if w.Size() != (event.Size{Width: 300, Height: 150}) || w.Root.Bounds.Width != 300 {
		t.Fatalf("size = %v, root = %v", w.Size(), w.Root.Bounds)
	}

	w.OnEvent = func(ctx *tree.Context, ev event.Event) (event.Event, error) {
		if _, ok := ev.(event.CloseRequest); ok {
			return nil, nil
		}
		return ev, nil
	}
	_, _ = w.HandleEvent(nil, event.CloseRequest{})
	if !w.Visible {
		t.Fatal("hook returning nil did not skip the default close")
	}

	w.OnEvent = nil
	_, _ = w.HandleEvent(nil, event.CloseRequest{})
	if w.Visible {
		t.Fatal("close request did not hide the window")
	}
}

func TestDrawPaintsBackgroundAndLabels(t *testing.T) {
	w := NewWindow("main", 200, 100)
	w.Root.Add(&Box{Bounds: Rect{Width: 10, Height: 10}, Color: 0x112233, Label: "hello"})
	w.Root.Add(&Box{Label: "plain"})

	c := &fakeCanvas{size: event.Size{Width: 200, Height: 100}}
	w.Draw(c)
	if c.fills != 2 {
		t.Fatalf("fills = %d, want 2", c.fills)
	}
	if len(c.texts) != 2 || c.texts[0] != "hello" || c.texts[1] != "plain" {
		t.Fatalf("texts = %v", c.texts)
	}
}
