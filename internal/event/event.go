// Package event defines the values that travel through the call queues:
// positions, sizes and the concrete events delivered to windows and widgets.
package event

import "fmt"

// Pos is a position in surface-local coordinates.
type Pos struct {
	X float64
	Y float64
}

func (p Pos) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Size is a surface size in pixels.
type Size struct {
	Width  int
	Height int
}

// Event is anything that can be delivered to a window or widget.
type Event interface {
	EventName() string
}

// Button identifies a pointer button.
type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
	ButtonScrollUp
	ButtonScrollDown
)

// PointerEnter is delivered when the pointer enters a surface.
type PointerEnter struct {
	Pos Pos
}

// PointerLeave is delivered when the pointer leaves a surface.
type PointerLeave struct {
	Pos Pos
}

// PointerMotion is delivered for pointer movement inside a surface.
type PointerMotion struct {
	Pos Pos
}

// PointerButton is a press or release of a pointer button.
type PointerButton struct {
	Pos     Pos
	Button  Button
	Pressed bool
	// Repeat is set when the event is replayed by the click timer.
	Repeat bool
}

// Key is a key press or release. Text holds the translated string, if any.
type Key struct {
	Code    uint32
	Text    string
	Mods    uint16
	Pressed bool
	Repeat  bool
}

// TouchDown starts a touch point.
type TouchDown struct {
	ID  int32
	Pos Pos
}

// TouchMotion moves an active touch point.
type TouchMotion struct {
	ID  int32
	Pos Pos
}

// TouchUp ends a touch point.
type TouchUp struct {
	ID  int32
	Pos Pos
}

// LongPress is replayed by the touch timer while a touch point is held.
type LongPress struct {
	ID  int32
	Pos Pos
}

// Resize tells a window its surface got a new size.
type Resize struct {
	Size Size
}

// CloseRequest is sent when the platform asks a window to close.
type CloseRequest struct{}

// Redraw asks a window to repaint its surface.
type Redraw struct{}

func (PointerEnter) EventName() string  { return "pointer-enter" }
func (PointerLeave) EventName() string  { return "pointer-leave" }
func (PointerMotion) EventName() string { return "pointer-motion" }
func (PointerButton) EventName() string { return "pointer-button" }
func (Key) EventName() string           { return "key" }
func (TouchDown) EventName() string     { return "touch-down" }
func (TouchMotion) EventName() string   { return "touch-motion" }
func (TouchUp) EventName() string       { return "touch-up" }
func (LongPress) EventName() string     { return "long-press" }
func (Resize) EventName() string        { return "resize" }
func (CloseRequest) EventName() string  { return "close-request" }
func (Redraw) EventName() string        { return "redraw" }
