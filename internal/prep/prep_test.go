package prep

import (
	"errors"
	"testing"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
	"github.com/1broseidon/wintree/internal/widget"
)

func setup(t *testing.T) (*tree.Tree, tree.WindowIndex, *widget.Window) {
	t.Helper()
	tr := tree.New()
	w := widget.NewWindow("main", 200, 100)
	w.Root.Add(&widget.Box{Bounds: widget.Rect{X: 10, Y: 10, Width: 50, Height: 20}})
	var idx tree.WindowIndex
	_ = tr.Update(func(tx *tree.Txn) error {
		idx = tx.Insert(w)
		return nil
	})
	return tr, idx, w
}

var (
	inside  = event.Pos{X: 20, Y: 15}
	outside = event.Pos{X: 150, Y: 80}
	button  = []tree.IndexPair{{Index: 0}}
)

func TestBeginAndMoveHitTest(t *testing.T) {
	tr, idx, _ := setup(t)
	table := New()

	_ = tr.View(func(tx *tree.Txn) error {
		path, pos, err := table.Begin(tx, Pointer, idx, inside)
		if err != nil || !path.Equal(tree.WidgetPath(idx, button...)) || pos != inside {
			t.Fatalf("Begin = %v, %v, %v", path, pos, err)
		}
		path, pos, err = table.Move(tx, Pointer, outside)
		if err != nil || !path.Equal(tree.WindowPath(idx)) || pos != outside {
			t.Fatalf("Move = %v, %v, %v", path, pos, err)
		}
		return nil
	})

	if w, ok := table.Window(Pointer); !ok || w != idx {
		t.Fatalf("Window = %d, %v", w, ok)
	}
	path, pos, ok := table.End(Pointer)
	if !ok || !path.Equal(tree.WindowPath(idx)) || pos != outside {
		t.Fatalf("End = %v, %v, %v", path, pos, ok)
	}
	if table.Len() != 0 {
		t.Fatalf("Len after End = %d", table.Len())
	}
	if _, _, ok := table.End(Pointer); ok {
		t.Fatal("second End found an entry")
	}
}

func TestLockKeepsTargetAndReportsLivePosition(t *testing.T) {
	tr, idx, _ := setup(t)
	table := New()

	_ = tr.View(func(tx *tree.Txn) error {
		_, _, _ = table.Begin(tx, Pointer, idx, inside)
		if err := table.Lock(Pointer); err != nil {
			t.Fatalf("Lock: %v", err)
		}
		path, pos, err := table.Move(tx, Pointer, outside)
		if err != nil || !path.Equal(tree.WidgetPath(idx, button...)) {
			t.Fatalf("locked Move path = %v, %v", path, err)
		}
		if pos != outside {
			t.Fatalf("locked Move pos = %v, want %v", pos, outside)
		}

		if err := table.Unlock(Pointer); err != nil {
			t.Fatalf("Unlock: %v", err)
		}
		path, _, _ = table.Move(tx, Pointer, outside)
		if !path.Equal(tree.WindowPath(idx)) {
			t.Fatalf("unlocked Move path = %v", path)
		}
		return nil
	})
}

func TestRefreshAfterWidgetRemoved(t *testing.T) {
	tr, idx, w := setup(t)
	table := New()

	_ = tr.Update(func(tx *tree.Txn) error {
		_, _, _ = table.Begin(tx, Pointer, idx, inside)
		_ = table.Lock(Pointer)
		_, _, _ = table.Move(tx, Pointer, outside)

		path, _, err := table.Refresh(tx, Pointer)
		if err != nil || !path.Equal(tree.WidgetPath(idx, button...)) {
			t.Fatalf("Refresh with widget present = %v, %v", path, err)
		}

		w.Root.Children = nil
		path, pos, err := table.Refresh(tx, Pointer)
		if err != nil || !path.Equal(tree.WindowPath(idx)) || pos != outside {
			t.Fatalf("Refresh after removal = %v, %v, %v", path, pos, err)
		}

		if err := tx.Remove(idx); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, _, err := table.Refresh(tx, Pointer); !errors.Is(err, tree.ErrNoWindow) {
			t.Fatalf("Refresh on removed window error = %v", err)
		}
		return nil
	})
}

func TestSourcesAreIndependent(t *testing.T) {
	tr, idx, _ := setup(t)
	table := New()

	_ = tr.View(func(tx *tree.Txn) error {
		_, _, _ = table.Begin(tx, Pointer, idx, outside)
		_, _, _ = table.Begin(tx, Touch(1), idx, inside)
		_, _, _ = table.Begin(tx, Touch(2), idx, outside)

		if _, _, err := table.Move(tx, Touch(3), inside); !errors.Is(err, ErrNoEntry) {
			t.Fatalf("Move without Begin error = %v", err)
		}
		if err := table.Lock(Touch(3)); !errors.Is(err, ErrNoEntry) {
			t.Fatalf("Lock without Begin error = %v", err)
		}
		return nil
	})

	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3", table.Len())
	}
	path, _, _ := table.Lookup(Touch(1))
	if !path.IsWidget() {
		t.Fatalf("touch 1 path = %v", path)
	}
	path, _, _ = table.Lookup(Pointer)
	if path.IsWidget() {
		t.Fatalf("pointer path = %v", path)
	}
	if Touch(2).String() != "touch 2" || Pointer.String() != "pointer" {
		t.Fatal("unexpected source names")
	}
}
