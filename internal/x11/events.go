package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/platform"
)

// translate turns a batch of X events into notifications. Core X11 has no
// touch input, so touch notifications are never produced.
func (c *Connection) translate(events []xgb.Event) []platform.Notification {
	var out []platform.Notification
	for i := 0; i < len(events); i++ {
		switch ev := events[i].(type) {
		case xproto.ExposeEvent:
			if ev.Count == 0 && c.known(ev.Window) {
				out = append(out, platform.Expose{Surface: platform.WindowID(ev.Window)})
			}
		case xproto.ConfigureNotifyEvent:
			s, ok := c.surfaces[ev.Window]
			if !ok {
				continue
			}
			size := event.Size{Width: int(ev.Width), Height: int(ev.Height)}
			if size == s.cfg.Size {
				continue
			}
			// The server already applied it; keep Configure from echoing it back.
			s.cfg.Size = size
			out = append(out, platform.Configure{Surface: s.ID(), Size: size})
		case xproto.ClientMessageEvent:
			if ev.Type == c.protocols && ev.Format == 32 &&
				len(ev.Data.Data32) > 0 && xproto.Atom(ev.Data.Data32[0]) == c.deleteWindow &&
				c.known(ev.Window) {
				out = append(out, platform.CloseRequest{Surface: platform.WindowID(ev.Window)})
			}
		case xproto.EnterNotifyEvent:
			if c.known(ev.Event) {
				c.pointer = ev.Event
				out = append(out, platform.PointerEnter{Surface: platform.WindowID(ev.Event), Pos: pos(ev.EventX, ev.EventY)})
			}
		case xproto.LeaveNotifyEvent:
			if ev.Event == c.pointer && c.pointer != 0 {
				c.pointer = 0
				out = append(out, platform.PointerLeave{Surface: platform.WindowID(ev.Event)})
			}
		case xproto.MotionNotifyEvent:
			out = c.pointerAt(out, ev.Event, pos(ev.EventX, ev.EventY))
		case xproto.ButtonPressEvent:
			out = c.button(out, ev.Event, pos(ev.EventX, ev.EventY), ev.Detail, true)
		case xproto.ButtonReleaseEvent:
			out = c.button(out, ev.Event, pos(ev.EventX, ev.EventY), ev.Detail, false)
		case xproto.KeyPressEvent:
			if ev.Event == c.Root {
				out = c.hotkey(out, ev.State, ev.Detail)
				continue
			}
			out = append(out, c.key(ev.Detail, ev.State, true))
		case xproto.KeyReleaseEvent:
			if ev.Event == c.Root {
				continue
			}
			// Server autorepeat arrives as a release immediately followed by a
			// press with the same timestamp; repeat timers replace it.
			if i+1 < len(events) {
				if next, ok := events[i+1].(xproto.KeyPressEvent); ok &&
					next.Detail == ev.Detail && next.Time == ev.Time {
					i++
					continue
				}
			}
			out = append(out, c.key(ev.Detail, ev.State, false))
		case xproto.FocusInEvent:
			if ev.Mode == xproto.NotifyModeNormal && c.known(ev.Event) {
				out = append(out, platform.FocusIn{Surface: platform.WindowID(ev.Event)})
			}
		}
	}
	return out
}

func (c *Connection) known(win xproto.Window) bool {
	_, ok := c.surfaces[win]
	return ok
}

// forget stops translating events for win. The window may still be alive
// on the server when this runs.
func (c *Connection) forget(win xproto.Window) {
	delete(c.surfaces, win)
	if c.pointer == win {
		c.pointer = 0
	}
}

func pos(x, y int16) event.Pos {
	return event.Pos{X: float64(x), Y: float64(y)}
}

// pointerAt reports motion, entering win first when the pointer was last seen
// elsewhere (grabs can deliver events without an EnterNotify).
func (c *Connection) pointerAt(out []platform.Notification, win xproto.Window, p event.Pos) []platform.Notification {
	if !c.known(win) {
		return out
	}
	if c.pointer != win {
		if c.pointer != 0 {
			out = append(out, platform.PointerLeave{Surface: platform.WindowID(c.pointer)})
		}
		c.pointer = win
		return append(out, platform.PointerEnter{Surface: platform.WindowID(win), Pos: p})
	}
	return append(out, platform.PointerMotion{Pos: p})
}

func (c *Connection) button(out []platform.Notification, win xproto.Window, p event.Pos, detail xproto.Button, pressed bool) []platform.Notification {
	var b event.Button
	switch detail {
	case xproto.ButtonIndex1:
		b = event.ButtonLeft
	case xproto.ButtonIndex2:
		b = event.ButtonMiddle
	case xproto.ButtonIndex3:
		b = event.ButtonRight
	case xproto.ButtonIndex4:
		b = event.ButtonScrollUp
	case xproto.ButtonIndex5:
		b = event.ButtonScrollDown
	default:
		return out
	}
	out = c.pointerAt(out, win, p)
	if c.pointer != win {
		return out
	}
	return append(out, platform.PointerButton{Button: b, Pressed: pressed})
}

func (c *Connection) key(code xproto.Keycode, state uint16, pressed bool) platform.Notification {
	text := ""
	if pressed {
		text = keybind.LookupString(c.XUtil, state, code)
		if len([]rune(text)) != 1 {
			// Named keys such as "Return" or "Left" carry no text.
			text = ""
		}
	}
	return platform.Key{Code: uint32(code), Text: text, Mods: state, Pressed: pressed}
}

// hotkey reports a grabbed root-window key press.
func (c *Connection) hotkey(out []platform.Notification, state uint16, code xproto.Keycode) []platform.Notification {
	if c.hotkeys == nil {
		return out
	}
	name, ok := c.hotkeys.Match(state, code)
	if !ok {
		return out
	}
	return append(out, platform.Hotkey{Name: name})
}
