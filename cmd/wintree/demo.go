package main

import (
	"fmt"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
	"github.com/1broseidon/wintree/internal/widget"
)

const (
	colorButton = 0x3e4c59
	colorAccent = 0x2680c2
	colorDanger = 0xba2525
	colorPanel  = 0x323f4b
	maxTyped    = 40
)

// demo is the sample application opened by "wintree run": a main window
// with a click counter and a text line, a dialog it can open, and a notes
// window that hides on close and can be shown again over IPC.
type demo struct {
	main   tree.WindowIndex
	dialog tree.WindowIndex
	open   bool
	clicks int

	counter *widget.Box
	typed   *widget.Box
}

func buildDemo(tx *tree.Txn) *demo {
	d := &demo{}

	w := widget.NewWindow("wintree demo", 360, 220)
	d.counter = w.Root.Add(&widget.Box{Bounds: widget.Rect{X: 16, Y: 16, Width: 328, Height: 32}, Color: colorPanel})
	d.typed = w.Root.Add(&widget.Box{Bounds: widget.Rect{X: 16, Y: 56, Width: 328, Height: 32}, Color: colorPanel})
	d.refresh()

	w.Root.Add(widget.Button(widget.Rect{X: 16, Y: 160, Width: 100, Height: 40}, "Count", colorAccent, func(*tree.Context) error {
		d.clicks++
		d.refresh()
		return nil
	}))
	w.Root.Add(widget.Button(widget.Rect{X: 130, Y: 160, Width: 100, Height: 40}, "Dialog", colorButton, d.openDialog))
	w.Root.Add(widget.Button(widget.Rect{X: 244, Y: 160, Width: 100, Height: 40}, "Quit", colorDanger, func(ctx *tree.Context) error {
		ctx.Emit.Exit()
		return nil
	}))
	w.OnEvent = func(ctx *tree.Context, ev event.Event) (event.Event, error) {
		switch e := ev.(type) {
		case event.CloseRequest:
			ctx.Emit.Exit()
			return nil, nil
		case event.Key:
			if e.Pressed {
				d.typeKey(e)
			}
			return nil, nil
		}
		return ev, nil
	}
	d.main = tx.Insert(w)

	notes := widget.NewWindow("wintree notes", 240, 120)
	notes.Root.Add(&widget.Box{
		Bounds: widget.Rect{X: 12, Y: 12, Width: 216, Height: 96},
		Color:  colorPanel,
		Label:  "close hides me; wintree show brings me back",
	})
	tx.Insert(notes)

	return d
}

func (d *demo) refresh() {
	d.counter.Label = fmt.Sprintf("clicks: %d", d.clicks)
	if d.typed.Label == "" {
		d.typed.Label = "> "
	}
}

func (d *demo) typeKey(k event.Key) {
	switch {
	case k.Text == "\b" || k.Text == "\x7f":
		if len(d.typed.Label) > 2 {
			d.typed.Label = d.typed.Label[:len(d.typed.Label)-1]
		}
	case len(k.Text) == 1 && k.Text[0] >= 0x20 && k.Text[0] < 0x7f:
		if len(d.typed.Label) < maxTyped {
			d.typed.Label += k.Text
		}
	}
}

// openDialog inserts a child of the main window. Only one dialog exists at
// a time.
func (d *demo) openDialog(ctx *tree.Context) error {
	if d.open {
		return nil
	}

	dlg := widget.NewWindow("wintree dialog", 240, 120)
	dlg.Root.Add(&widget.Box{
		Bounds: widget.Rect{X: 12, Y: 12, Width: 216, Height: 40},
		Label:  fmt.Sprintf("opened after %d clicks", d.clicks),
	})
	dlg.Root.Add(widget.Button(widget.Rect{X: 70, Y: 68, Width: 100, Height: 40}, "Close", colorButton, d.closeDialog))
	dlg.OnEvent = func(ctx *tree.Context, ev event.Event) (event.Event, error) {
		if _, ok := ev.(event.CloseRequest); ok {
			return nil, d.closeDialog(ctx)
		}
		return ev, nil
	}

	idx, err := ctx.Tx.InsertChild(d.main, dlg)
	if err != nil {
		return err
	}
	d.dialog = idx
	d.open = true
	return nil
}

func (d *demo) closeDialog(ctx *tree.Context) error {
	if !d.open {
		return nil
	}
	d.open = false
	return ctx.Tx.Remove(d.dialog)
}
