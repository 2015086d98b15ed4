package tree

import (
	"fmt"
	"strings"
)

// WindowIndex identifies an abstract window for its whole lifetime.
// Indices are allocated by the Tree and never reused.
type WindowIndex uint64

// IndexPair is one step from a widget to one of its children. Index selects
// the child collection position and Slot the entry within it (zero for
// widgets with a single list of children).
type IndexPair struct {
	Index int
	Slot  int
}

// CallOnPath addresses the recipient of an event or callback: the window
// itself when Pairs is empty, or the widget reached by following Pairs from
// the window's root widget.
type CallOnPath struct {
	Window WindowIndex
	Pairs  []IndexPair
}

// WindowPath addresses a window.
func WindowPath(idx WindowIndex) CallOnPath {
	return CallOnPath{Window: idx}
}

// WidgetPath addresses a widget inside a window.
func WidgetPath(idx WindowIndex, pairs ...IndexPair) CallOnPath {
	return CallOnPath{Window: idx, Pairs: append([]IndexPair(nil), pairs...)}
}

// IsWidget reports whether the path points below window level.
func (p CallOnPath) IsWidget() bool {
	return len(p.Pairs) > 0
}

// Depth is the number of index pairs in the path.
func (p CallOnPath) Depth() int {
	return len(p.Pairs)
}

// Parent returns the path one level up. Ascending from a depth-one widget
// path yields the owning window; a window path has no parent.
func (p CallOnPath) Parent() (CallOnPath, bool) {
	if !p.IsWidget() {
		return p, false
	}
	return CallOnPath{
		Window: p.Window,
		Pairs:  append([]IndexPair(nil), p.Pairs[:len(p.Pairs)-1]...),
	}, true
}

// Equal compares two paths.
func (p CallOnPath) Equal(o CallOnPath) bool {
	if p.Window != o.Window || len(p.Pairs) != len(o.Pairs) {
		return false
	}
	for i := range p.Pairs {
		if p.Pairs[i] != o.Pairs[i] {
			return false
		}
	}
	return true
}

func (p CallOnPath) String() string {
	if !p.IsWidget() {
		return fmt.Sprintf("window %d", p.Window)
	}
	parts := make([]string, len(p.Pairs))
	for i, pair := range p.Pairs {
		parts[i] = fmt.Sprintf("%d.%d", pair.Index, pair.Slot)
	}
	return fmt.Sprintf("window %d widget %s", p.Window, strings.Join(parts, "/"))
}
