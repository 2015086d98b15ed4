package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/wintree/internal/config"
	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/ipc"
	"github.com/1broseidon/wintree/internal/tree"
	"github.com/1broseidon/wintree/internal/widget"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingEmitter struct {
	exits int
}

func (e *recordingEmitter) PushEvent(tree.CallOnPath, event.Event) {}
func (e *recordingEmitter) PushCallback(tree.Callback)             {}
func (e *recordingEmitter) Exit()                                  { e.exits++ }

// click delivers a left button release to the widget under pos.
func click(t *testing.T, tx *tree.Txn, emit tree.Emitter, idx tree.WindowIndex, pos event.Pos) {
	t.Helper()
	w, err := tx.Get(idx)
	if err != nil {
		t.Fatalf("Get(%d): %v", idx, err)
	}
	pairs, ok := w.Point(pos)
	if !ok {
		t.Fatalf("nothing under %v", pos)
	}
	target, ok := w.Widget(pairs)
	if !ok {
		t.Fatalf("no widget at %v", pairs)
	}
	ctx := &tree.Context{Tx: tx, Path: tree.WidgetPath(idx, pairs...), Emit: emit}
	if _, err := target.HandleEvent(ctx, event.PointerButton{Pos: pos, Button: event.ButtonLeft}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}

func TestDemoCountsAndOpensDialog(t *testing.T) {
	windows := tree.New()
	emit := &recordingEmitter{}

	err := windows.Update(func(tx *tree.Txn) error {
		d := buildDemo(tx)
		if tx.Len() != 2 {
			t.Fatalf("demo opened %d windows, want 2", tx.Len())
		}

		click(t, tx, emit, d.main, event.Pos{X: 50, Y: 170})
		click(t, tx, emit, d.main, event.Pos{X: 50, Y: 170})
		if d.counter.Label != "clicks: 2" {
			t.Fatalf("counter = %q", d.counter.Label)
		}

		click(t, tx, emit, d.main, event.Pos{X: 150, Y: 170})
		click(t, tx, emit, d.main, event.Pos{X: 150, Y: 170})
		if tx.Len() != 3 {
			t.Fatalf("after opening the dialog twice there are %d windows, want 3", tx.Len())
		}
		dlg, err := tx.Get(d.dialog)
		if err != nil {
			t.Fatalf("dialog: %v", err)
		}
		if parent, ok := dlg.ParentIndex(); !ok || parent != d.main {
			t.Fatalf("dialog parent = %d, %v; want %d", parent, ok, d.main)
		}

		click(t, tx, emit, d.dialog, event.Pos{X: 100, Y: 80})
		if tx.Len() != 2 || d.open {
			t.Fatalf("dialog still open: len=%d open=%v", tx.Len(), d.open)
		}

		click(t, tx, emit, d.main, event.Pos{X: 300, Y: 170})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if emit.exits != 1 {
		t.Fatalf("exits = %d, want 1", emit.exits)
	}
}

func TestDemoTyping(t *testing.T) {
	windows := tree.New()
	emit := &recordingEmitter{}

	_ = windows.Update(func(tx *tree.Txn) error {
		d := buildDemo(tx)
		w, _ := tx.Get(d.main)
		ctx := &tree.Context{Tx: tx, Path: tree.WindowPath(d.main), Emit: emit}
		for _, text := range []string{"h", "i", "x", "\b"} {
			if _, err := w.HandleEvent(ctx, event.Key{Text: text, Pressed: true}); err != nil {
				t.Fatalf("HandleEvent: %v", err)
			}
		}
		if d.typed.Label != "> hi" {
			t.Fatalf("typed = %q, want %q", d.typed.Label, "> hi")
		}

		if _, err := w.HandleEvent(ctx, event.CloseRequest{}); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if !w.(*widget.Window).Visible {
			t.Fatal("main window hid itself on close instead of exiting")
		}
		return nil
	})
	if emit.exits != 1 {
		t.Fatalf("exits = %d, want 1", emit.exits)
	}
}

func TestPrintWindowsIndentsChildren(t *testing.T) {
	parent := uint64(1)
	var buf bytes.Buffer
	printWindows(&buf, []ipc.WindowInfo{
		{Index: 3, Title: "dialog", Parent: &parent, Visible: true},
		{Index: 1, Title: "main", Children: []uint64{3}, Visible: true, Focused: true},
		{Index: 2, Title: "notes"},
	})

	want := strings.Join([]string{
		"1\tvisible,focused\tmain",
		"  3\tvisible\tdialog",
		"2\thidden\tnotes",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestParseIndex(t *testing.T) {
	if idx, err := parseIndex("42"); err != nil || idx != 42 {
		t.Fatalf("parseIndex(42) = %d, %v", idx, err)
	}
	if _, err := parseIndex("-1"); err == nil {
		t.Fatal("expected an error for a negative index")
	}
}

func TestHotkeyActionsToggleRoots(t *testing.T) {
	windows := tree.New()
	emit := &recordingEmitter{}
	actions := hotkeyActions(quietLogger())
	for _, name := range config.HotkeyActions {
		if _, ok := actions[name]; !ok {
			t.Fatalf("no callback for hotkey action %q", name)
		}
	}

	_ = windows.Update(func(tx *tree.Txn) error {
		d := buildDemo(tx)
		click(t, tx, emit, d.main, event.Pos{X: 150, Y: 170})
		ctx := &tree.Context{Tx: tx, Emit: emit}

		if err := actions["hide_all"](ctx); err != nil {
			t.Fatalf("hide_all: %v", err)
		}
		for _, idx := range tx.Roots() {
			if w, _ := tx.Window(idx); w.IsVisible() {
				t.Fatalf("root %d still visible", idx)
			}
		}
		if dlg, _ := tx.Window(d.dialog); !dlg.IsVisible() {
			t.Fatal("hide_all changed a child window")
		}

		if err := actions["show_all"](ctx); err != nil {
			t.Fatalf("show_all: %v", err)
		}
		if w, _ := tx.Window(d.main); !w.IsVisible() {
			t.Fatal("main window hidden after show_all")
		}
		if err := actions["quit"](ctx); err != nil {
			t.Fatalf("quit: %v", err)
		}
		return nil
	})
	if emit.exits != 1 {
		t.Fatalf("exits = %d, want 1", emit.exits)
	}
}
