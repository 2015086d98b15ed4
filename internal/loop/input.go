package loop

import (
	"errors"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/platform"
	"github.com/1broseidon/wintree/internal/prep"
	"github.com/1broseidon/wintree/internal/timer"
	"github.com/1broseidon/wintree/internal/tree"
)

// inputState remembers what the repeat timers replay.
type inputState struct {
	key     event.Key
	keyHeld bool

	button     event.Button
	buttonHeld bool

	touch     int32
	touchHeld bool
	// longPressed is set once the held touch reported its long press.
	longPressed bool
}

var _ platform.Handler = (*Loop)(nil)

// HandleNotification implements platform.Handler. Every notification is
// resolved to a target, its events are dispatched, platform windows are
// reconciled and the repeat timers are armed or disarmed.
func (l *Loop) HandleNotification(n platform.Notification) {
	switch n := n.(type) {
	case platform.PointerEnter:
		l.pointerEnter(n)
	case platform.PointerMotion:
		l.pointerMotion(n)
	case platform.PointerLeave:
		l.pointerLeave()
	case platform.PointerButton:
		l.pointerButton(n)
	case platform.Key:
		l.key(n)
	case platform.FocusIn:
		l.focusIn(n)
	case platform.TouchDown:
		l.touchDown(n)
	case platform.TouchMotion:
		l.touchMotion(n)
	case platform.TouchUp:
		l.touchUp(n)
	case platform.Configure:
		if idx, ok := l.surface(n.Surface); ok {
			l.push(tree.WindowPath(idx), event.Resize{Size: n.Size})
		}
	case platform.CloseRequest:
		if idx, ok := l.surface(n.Surface); ok {
			l.push(tree.WindowPath(idx), event.CloseRequest{})
		}
	case platform.Expose:
		if idx, ok := l.surface(n.Surface); ok {
			l.dirty[idx] = struct{}{}
		}
	case platform.Hotkey:
		if cb, ok := l.hotkeys[n.Name]; ok {
			l.queue.PushCallback(cb)
		} else {
			l.logger.Warn("hotkey without action", "name", n.Name)
		}
	default:
		l.logger.Debug("ignoring notification", "type", n)
	}

	l.disp.Drain()
	l.reconcile()
	l.redraw()
}

func (l *Loop) surface(id platform.WindowID) (tree.WindowIndex, bool) {
	idx, ok := l.sync.Registry().BySurface(id)
	if !ok {
		l.logger.Warn("notification for unknown surface", "surface", id)
	}
	return idx, ok
}

// push queues ev and marks its window for repaint.
func (l *Loop) push(path tree.CallOnPath, ev event.Event) {
	l.queue.PushEvent(path, ev)
	l.dirty[path.Window] = struct{}{}
}

func (l *Loop) timer(cmd timer.Command) {
	l.timerCmds = append(l.timerCmds, cmd)
}

// prepare runs a prep table operation against the current tree.
func (l *Loop) prepare(op func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error)) (tree.CallOnPath, event.Pos, bool) {
	var (
		path tree.CallOnPath
		pos  event.Pos
		err  error
	)
	_ = l.tree.View(func(tx *tree.Txn) error {
		path, pos, err = op(tx)
		return nil
	})
	if err != nil {
		if errors.Is(err, prep.ErrNoEntry) {
			l.logger.Debug("input without preparation", "error", err)
		} else {
			l.logger.Warn("input target", "error", err)
		}
		return path, pos, false
	}
	return path, pos, true
}

func (l *Loop) pointerEnter(n platform.PointerEnter) {
	idx, ok := l.surface(n.Surface)
	if !ok {
		return
	}
	path, pos, ok := l.prepare(func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error) {
		return l.prep.Begin(tx, prep.Pointer, idx, n.Pos)
	})
	if ok {
		l.push(path, event.PointerEnter{Pos: pos})
	}
}

func (l *Loop) pointerMotion(n platform.PointerMotion) {
	path, pos, ok := l.prepare(func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error) {
		return l.prep.Move(tx, prep.Pointer, n.Pos)
	})
	if ok {
		l.push(path, event.PointerMotion{Pos: pos})
	}
}

func (l *Loop) pointerLeave() {
	path, pos, ok := l.prep.End(prep.Pointer)
	if !ok {
		return
	}
	l.push(path, event.PointerLeave{Pos: pos})
	if l.input.buttonHeld {
		l.input.buttonHeld = false
		l.timer(timer.Stop(timer.Click))
	}
}

// pointerButton delivers a press or release at the pointer's target. A left
// press anchors the target until the release, focuses the window and arms
// the click timer.
func (l *Loop) pointerButton(n platform.PointerButton) {
	path, pos, ok := l.prepare(func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error) {
		return l.prep.Refresh(tx, prep.Pointer)
	})
	if !ok {
		return
	}
	l.push(path, event.PointerButton{Pos: pos, Button: n.Button, Pressed: n.Pressed})
	if n.Button != event.ButtonLeft {
		return
	}
	if n.Pressed {
		_ = l.prep.Lock(prep.Pointer)
		l.focusWindow(path.Window)
		l.input.button, l.input.buttonHeld = n.Button, true
		l.timer(timer.Start(timer.Click))
		return
	}
	_ = l.prep.Unlock(prep.Pointer)
	l.input.buttonHeld = false
	l.timer(timer.Stop(timer.Click))
}

func (l *Loop) key(n platform.Key) {
	ev := event.Key{Code: n.Code, Text: n.Text, Mods: n.Mods, Pressed: n.Pressed}
	if focused, ok := l.focused(); ok {
		l.push(tree.WindowPath(focused), ev)
	} else {
		l.logger.Debug("key without focused window", "code", n.Code)
	}
	switch {
	case n.Pressed:
		l.input.key, l.input.keyHeld = ev, true
		l.timer(timer.Start(timer.Key))
	case l.input.keyHeld && l.input.key.Code == n.Code:
		l.input.keyHeld = false
		l.timer(timer.Stop(timer.Key))
	}
}

func (l *Loop) focusIn(n platform.FocusIn) {
	if idx, ok := l.surface(n.Surface); ok {
		l.focusWindow(idx)
	}
}

// focusWindow hands the focus to idx unless it already sits at or below it;
// the next reconcile moves it to the deepest focusable descendant.
func (l *Loop) focusWindow(idx tree.WindowIndex) {
	_ = l.tree.Update(func(tx *tree.Txn) error {
		if focused, ok := tx.Focused(); ok {
			chain, _ := tx.Ancestors(focused)
			for _, a := range chain {
				if a == idx {
					return nil
				}
			}
		}
		tx.SetFocused(idx, true)
		return nil
	})
}

func (l *Loop) focused() (tree.WindowIndex, bool) {
	var (
		idx tree.WindowIndex
		ok  bool
	)
	_ = l.tree.View(func(tx *tree.Txn) error {
		idx, ok = tx.Focused()
		return nil
	})
	return idx, ok
}

func (l *Loop) touchDown(n platform.TouchDown) {
	idx, ok := l.surface(n.Surface)
	if !ok {
		return
	}
	src := prep.Touch(n.ID)
	path, pos, ok := l.prepare(func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error) {
		return l.prep.Begin(tx, src, idx, n.Pos)
	})
	if !ok {
		return
	}
	_ = l.prep.Lock(src)
	l.push(path, event.TouchDown{ID: n.ID, Pos: pos})
	l.input.touch, l.input.touchHeld, l.input.longPressed = n.ID, true, false
	l.timer(timer.Start(timer.Touch))
}

func (l *Loop) touchMotion(n platform.TouchMotion) {
	path, pos, ok := l.prepare(func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error) {
		return l.prep.Move(tx, prep.Touch(n.ID), n.Pos)
	})
	if ok {
		l.push(path, event.TouchMotion{ID: n.ID, Pos: pos})
	}
}

func (l *Loop) touchUp(n platform.TouchUp) {
	path, pos, ok := l.prep.End(prep.Touch(n.ID))
	if !ok {
		return
	}
	l.push(path, event.TouchUp{ID: n.ID, Pos: pos})
	if l.input.touchHeld && l.input.touch == n.ID {
		l.input.touchHeld = false
		l.timer(timer.Stop(timer.Touch))
	}
}

// repeat replays the input a timer stands for.
func (l *Loop) repeat(name timer.Name) {
	switch name {
	case timer.Key:
		if !l.input.keyHeld {
			l.timer(timer.Stop(timer.Key))
			return
		}
		if focused, ok := l.focused(); ok {
			ev := l.input.key
			ev.Repeat = true
			l.push(tree.WindowPath(focused), ev)
		}
	case timer.Click:
		if !l.input.buttonHeld {
			l.timer(timer.Stop(timer.Click))
			return
		}
		path, pos, ok := l.prepare(func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error) {
			return l.prep.Refresh(tx, prep.Pointer)
		})
		if ok {
			l.push(path, event.PointerButton{Pos: pos, Button: l.input.button, Pressed: true, Repeat: true})
		}
	case timer.Touch:
		if !l.input.touchHeld || l.input.longPressed {
			l.timer(timer.Stop(timer.Touch))
			return
		}
		id := l.input.touch
		path, pos, ok := l.prepare(func(tx *tree.Txn) (tree.CallOnPath, event.Pos, error) {
			return l.prep.Refresh(tx, prep.Touch(id))
		})
		if ok {
			l.push(path, event.LongPress{ID: id, Pos: pos})
		}
		// A long press is reported once per touch.
		l.input.longPressed = true
		l.timer(timer.Stop(timer.Touch))
	}
}
