package tree

import (
	"slices"

	"github.com/1broseidon/wintree/internal/event"
)

// Canvas is the drawing target handed to Window.Draw. Implementations come
// from the platform connection.
type Canvas interface {
	Size() event.Size
	FillRect(x, y, width, height int, color uint32)
	DrawText(x, y int, text string, color uint32)
}

// Widget is anything addressable below a window that can receive events.
//
// HandleEvent returns a nil event to stop propagation, or an event that is
// bubbled to the parent path. A non-nil error is logged and stops propagation.
type Widget interface {
	HandleEvent(ctx *Context, ev event.Event) (event.Event, error)
}

// Window is the capability set the engine needs from an application window.
// Frame implements the structural part and is meant to be embedded.
type Window interface {
	IsVisible() bool
	SetVisible(visible bool)
	IsPopup() bool
	IsTransient() bool
	IsFocusable() bool
	IsFocused() bool
	SetFocus(focused bool)

	ParentIndex() (WindowIndex, bool)
	ChildIndices() []WindowIndex
	SetParentIndex(parent WindowIndex, ok bool)
	AddChildIndex(child WindowIndex)
	RemoveChildIndex(child WindowIndex)

	Title() string
	Size() event.Size
	UpdateSize(size event.Size)
	UpdatePos(pos event.Pos)
	Draw(c Canvas)

	// Point hit-tests pos against the window's widgets and returns the path
	// to the most specific widget containing it.
	Point(pos event.Pos) ([]IndexPair, bool)
	// Widget resolves a path produced by Point.
	Widget(pairs []IndexPair) (Widget, bool)

	Widget
}

// Frame holds the flags and links every window carries.
type Frame struct {
	Name      string
	Visible   bool
	Popup     bool
	Transient bool
	Focusable bool
	Extent    event.Size
	Origin    event.Pos

	focused   bool
	parent    WindowIndex
	hasParent bool
	children  []WindowIndex
}

func (f *Frame) IsVisible() bool       { return f.Visible }
func (f *Frame) SetVisible(v bool)     { f.Visible = v }
func (f *Frame) IsPopup() bool         { return f.Popup }
func (f *Frame) IsTransient() bool     { return f.Transient }
func (f *Frame) IsFocusable() bool     { return f.Focusable }
func (f *Frame) IsFocused() bool       { return f.focused }
func (f *Frame) SetFocus(focused bool) { f.focused = focused }
func (f *Frame) Title() string         { return f.Name }
func (f *Frame) Size() event.Size      { return f.Extent }

func (f *Frame) UpdateSize(size event.Size) { f.Extent = size }
func (f *Frame) UpdatePos(pos event.Pos)    { f.Origin = pos }

func (f *Frame) ParentIndex() (WindowIndex, bool) {
	return f.parent, f.hasParent
}

func (f *Frame) SetParentIndex(parent WindowIndex, ok bool) {
	f.parent, f.hasParent = parent, ok
	if !ok {
		f.parent = 0
	}
}

// ChildIndices returns the children in insertion order.
func (f *Frame) ChildIndices() []WindowIndex {
	return slices.Clone(f.children)
}

func (f *Frame) AddChildIndex(child WindowIndex) {
	if !slices.Contains(f.children, child) {
		f.children = append(f.children, child)
	}
}

func (f *Frame) RemoveChildIndex(child WindowIndex) {
	if i := slices.Index(f.children, child); i >= 0 {
		f.children = slices.Delete(f.children, i, i+1)
	}
}

// Callback is a deferred operation run on the main loop.
type Callback func(ctx *Context) error

// Emitter lets handlers queue follow-up work.
type Emitter interface {
	PushEvent(path CallOnPath, ev event.Event)
	PushCallback(cb Callback)
	Exit()
}

// Context is passed to event handlers and callbacks. Tx is already holding
// the tree's writer lock; handlers must use it instead of locking the tree.
type Context struct {
	Tx   *Txn
	Path CallOnPath
	Emit Emitter
}
