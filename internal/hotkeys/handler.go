// Package hotkeys grabs global key combinations on the X11 root window and
// maps the resulting key presses back to action names.
package hotkeys

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// modifierMask covers the bits of a key event state that are modifiers
// rather than pointer buttons.
const modifierMask = xproto.ModMaskShift | xproto.ModMaskLock | xproto.ModMaskControl |
	xproto.ModMask1 | xproto.ModMask2 | xproto.ModMask3 | xproto.ModMask4 | xproto.ModMask5

// Binding is one grabbed accelerator.
type Binding struct {
	Name  string
	Accel string
	Mods  uint16
	Codes []xproto.Keycode
}

// Handler owns the grabs of one connection.
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	// ignore lists every combination of lock modifiers; each binding is
	// grabbed once per entry so CapsLock or NumLock do not defeat it.
	ignore     []uint16
	ignoreMask uint16
	bindings   []Binding
}

// NewHandler prepares a handler for the root window. keybind.Initialize
// must already have run on xu.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window) *Handler {
	h := &Handler{xu: xu, root: root}
	h.setIgnore(lockMasks(xu))
	return h
}

// Register grabs accel for the action name.
func (h *Handler) Register(name, accel string) error {
	mods, codes, err := keybind.ParseString(h.xu, accel)
	if err != nil {
		return fmt.Errorf("hotkey %s: parse %q: %w", name, accel, err)
	}
	if len(codes) == 0 {
		return fmt.Errorf("hotkey %s: %q maps to no keycode", name, accel)
	}

	var grabbed []grab
	for _, code := range codes {
		for _, ignore := range h.ignore {
			if err := keybind.GrabChecked(h.xu, h.root, mods|ignore, code); err != nil {
				h.ungrab(grabbed)
				return fmt.Errorf("hotkey %s: grab %q: %w", name, accel, err)
			}
			grabbed = append(grabbed, grab{mods: mods | ignore, code: code})
		}
	}

	h.bindings = append(h.bindings, Binding{Name: name, Accel: accel, Mods: mods, Codes: codes})
	return nil
}

// RegisterAll grabs every entry of accels in name order. A failed entry
// does not keep the others from being grabbed; all failures are returned.
func (h *Handler) RegisterAll(accels map[string]string) error {
	names := make([]string, 0, len(accels))
	for name := range accels {
		names = append(names, name)
	}
	sort.Strings(names)
	var errs []error
	for _, name := range names {
		if err := h.Register(name, accels[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Match returns the action bound to a key press with the given state.
func (h *Handler) Match(state uint16, code xproto.Keycode) (string, bool) {
	mods := state & modifierMask &^ h.ignoreMask
	for _, b := range h.bindings {
		if b.Mods != mods {
			continue
		}
		for _, c := range b.Codes {
			if c == code {
				return b.Name, true
			}
		}
	}
	return "", false
}

// Bindings returns the registered bindings.
func (h *Handler) Bindings() []Binding {
	return append([]Binding(nil), h.bindings...)
}

// Release drops every grab.
func (h *Handler) Release() {
	for _, b := range h.bindings {
		for _, code := range b.Codes {
			for _, ignore := range h.ignore {
				keybind.Ungrab(h.xu, h.root, b.Mods|ignore, code)
			}
		}
	}
	h.bindings = nil
}

type grab struct {
	mods uint16
	code xproto.Keycode
}

func (h *Handler) ungrab(grabs []grab) {
	for _, g := range grabs {
		keybind.Ungrab(h.xu, h.root, g.mods, g.code)
	}
}

func (h *Handler) setIgnore(base []uint16) {
	h.ignore = ignoreCombinations(base)
	h.ignoreMask = 0
	for _, m := range base {
		h.ignoreMask |= m
	}
}

// lockMasks returns CapsLock plus whatever modifiers NumLock and
// ScrollLock are mapped to on this server.
func lockMasks(xu *xgbutil.XUtil) []uint16 {
	caps := uint16(xproto.ModMaskLock)
	base := []uint16{caps}
	for _, keysym := range []string{"Num_Lock", "Scroll_Lock"} {
		mask := modMaskForKeysym(xu, keysym)
		if mask == 0 {
			continue
		}
		dup := false
		for _, m := range base {
			if m == mask {
				dup = true
			}
		}
		if !dup {
			base = append(base, mask)
		}
	}
	return base
}

// ignoreCombinations returns every subset of base OR-ed together,
// including the empty subset.
func ignoreCombinations(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	out := make([]uint16, 0, len(unique))
	for mask := range unique {
		out = append(out, mask)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
