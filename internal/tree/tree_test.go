package tree

import (
	"errors"
	"slices"
	"testing"

	"github.com/1broseidon/wintree/internal/event"
)

type testWindow struct {
	Frame
}

func newTestWindow(name string) *testWindow {
	return &testWindow{Frame: Frame{Name: name, Visible: true, Focusable: true}}
}

func (w *testWindow) Draw(Canvas)                         {}
func (w *testWindow) Point(event.Pos) ([]IndexPair, bool) { return nil, false }
func (w *testWindow) Widget([]IndexPair) (Widget, bool)   { return nil, false }
func (w *testWindow) HandleEvent(_ *Context, ev event.Event) (event.Event, error) {
	return ev, nil
}

func TestInsertAllocatesIncreasingIndices(t *testing.T) {
	tr := New()
	_ = tr.Update(func(tx *Txn) error {
		a := tx.Insert(newTestWindow("a"))
		b := tx.Insert(newTestWindow("b"))
		if a != 1 || b != 2 {
			t.Fatalf("indices = %d, %d; want 1, 2", a, b)
		}
		if err := tx.Remove(b); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if c := tx.Insert(newTestWindow("c")); c != 3 {
			t.Fatalf("index after removal = %d, want 3", c)
		}
		return nil
	})
}

func TestParentLinksStayConsistent(t *testing.T) {
	tr := New()
	_ = tr.Update(func(tx *Txn) error {
		root := tx.Insert(newTestWindow("root"))
		other := tx.Insert(newTestWindow("other"))
		child, err := tx.InsertChild(root, newTestWindow("child"))
		if err != nil {
			t.Fatalf("InsertChild: %v", err)
		}

		if err := tx.SetParent(child, other); err != nil {
			t.Fatalf("SetParent: %v", err)
		}
		r, _ := tx.Window(root)
		o, _ := tx.Window(other)
		c, _ := tx.Window(child)
		if len(r.ChildIndices()) != 0 {
			t.Fatalf("old parent keeps children %v", r.ChildIndices())
		}
		if !slices.Equal(o.ChildIndices(), []WindowIndex{child}) {
			t.Fatalf("new parent children = %v", o.ChildIndices())
		}
		if p, ok := c.ParentIndex(); !ok || p != other {
			t.Fatalf("child parent = %d, %v", p, ok)
		}

		if err := tx.ClearParent(child); err != nil {
			t.Fatalf("ClearParent: %v", err)
		}
		if !slices.Equal(tx.Roots(), []WindowIndex{root, other, child}) {
			t.Fatalf("roots = %v", tx.Roots())
		}

		if _, err := tx.InsertChild(99, newTestWindow("orphan")); !errors.Is(err, ErrNoWindow) {
			t.Fatalf("InsertChild(99) error = %v", err)
		}
		if err := tx.SetParent(child, 99); !errors.Is(err, ErrNoWindow) {
			t.Fatalf("SetParent(child, 99) error = %v", err)
		}
		return nil
	})
}

func TestRemoveDetachesAndQueuesDestroy(t *testing.T) {
	tr := New()
	_ = tr.Update(func(tx *Txn) error {
		root := tx.Insert(newTestWindow("root"))
		mid, _ := tx.InsertChild(root, newTestWindow("mid"))
		leaf, _ := tx.InsertChild(mid, newTestWindow("leaf"))

		tx.SetFocused(mid, true)
		if err := tx.Remove(mid); err != nil {
			t.Fatalf("Remove: %v", err)
		}

		r, _ := tx.Window(root)
		if len(r.ChildIndices()) != 0 {
			t.Fatalf("root still lists %v", r.ChildIndices())
		}
		l, _ := tx.Window(leaf)
		if _, ok := l.ParentIndex(); ok {
			t.Fatal("orphaned child kept its parent link")
		}
		if f, ok := tx.Focused(); !ok || f != root {
			t.Fatalf("focus = %d, %v; want %d", f, ok, root)
		}
		if !r.IsFocused() {
			t.Fatal("parent did not receive the focus flag")
		}

		if err := tx.Remove(mid); !errors.Is(err, ErrNoWindow) {
			t.Fatalf("second Remove error = %v", err)
		}
		tx.MarkDestroy(leaf)
		tx.MarkDestroy(leaf)
		if got := tx.TakeDestroy(); !slices.Equal(got, []WindowIndex{mid, leaf}) {
			t.Fatalf("destroy set = %v", got)
		}
		if got := tx.TakeDestroy(); len(got) != 0 {
			t.Fatalf("destroy set not cleared: %v", got)
		}
		return nil
	})
}

func TestSetFocusedKeepsSingleHolder(t *testing.T) {
	tr := New()
	_ = tr.Update(func(tx *Txn) error {
		a := tx.Insert(newTestWindow("a"))
		b := tx.Insert(newTestWindow("b"))
		wa, _ := tx.Window(a)
		wb, _ := tx.Window(b)

		tx.SetFocused(a, true)
		tx.SetFocused(b, true)
		if wa.IsFocused() || !wb.IsFocused() {
			t.Fatalf("focus flags a=%v b=%v", wa.IsFocused(), wb.IsFocused())
		}
		tx.SetFocused(99, true)
		if _, ok := tx.Focused(); ok || wb.IsFocused() {
			t.Fatal("focusing a missing window should clear the focus")
		}
		tx.SetFocused(a, true)
		tx.SetFocused(0, false)
		if _, ok := tx.Focused(); ok || wa.IsFocused() {
			t.Fatal("focus not cleared")
		}
		return nil
	})
}

func TestAncestorsDetectsCycles(t *testing.T) {
	tr := New()
	_ = tr.Update(func(tx *Txn) error {
		a := tx.Insert(newTestWindow("a"))
		b, _ := tx.InsertChild(a, newTestWindow("b"))
		c, _ := tx.InsertChild(b, newTestWindow("c"))

		chain, err := tx.Ancestors(c)
		if err != nil || !slices.Equal(chain, []WindowIndex{c, b, a}) {
			t.Fatalf("Ancestors(c) = %v, %v", chain, err)
		}

		if err := tx.SetParent(a, c); err != nil {
			t.Fatalf("SetParent: %v", err)
		}
		chain, err = tx.Ancestors(c)
		if !errors.Is(err, ErrWindowCycle) {
			t.Fatalf("Ancestors on a cycle error = %v", err)
		}
		if len(chain) != 3 {
			t.Fatalf("partial chain = %v", chain)
		}
		return nil
	})
}

func TestCallOnPath(t *testing.T) {
	w := WindowPath(4)
	if w.IsWidget() || w.Depth() != 0 {
		t.Fatalf("window path reports widget depth %d", w.Depth())
	}
	if _, ok := w.Parent(); ok {
		t.Fatal("window path has a parent")
	}

	pairs := []IndexPair{{Index: 1}, {Index: 2, Slot: 3}}
	p := WidgetPath(4, pairs...)
	pairs[0].Index = 9
	if p.Pairs[0].Index != 1 {
		t.Fatal("WidgetPath aliases its argument")
	}

	up, ok := p.Parent()
	if !ok || !up.Equal(WidgetPath(4, IndexPair{Index: 1})) {
		t.Fatalf("Parent = %v, %v", up, ok)
	}
	top, ok := up.Parent()
	if !ok || !top.Equal(w) || top.IsWidget() {
		t.Fatalf("depth-one parent = %v, %v; want the window", top, ok)
	}
	if got := p.String(); got != "window 4 widget 1.0/2.3" {
		t.Fatalf("String = %q", got)
	}
}
