package platform

import "github.com/1broseidon/wintree/internal/event"

// Notification is an input or window-management message from the display
// server. Pointer motion and button notifications refer to the surface of
// the last PointerEnter; touch notifications after TouchDown refer to the
// surface the touch started on.
type Notification interface {
	notification()
}

type PointerEnter struct {
	Surface WindowID
	Pos     event.Pos
}

type PointerMotion struct {
	Pos event.Pos
}

type PointerLeave struct {
	Surface WindowID
}

type PointerButton struct {
	Button  event.Button
	Pressed bool
}

type Key struct {
	Code    uint32
	Text    string
	Mods    uint16
	Pressed bool
}

// FocusIn reports that the display server gave keyboard focus to a surface.
type FocusIn struct {
	Surface WindowID
}

type TouchDown struct {
	Surface WindowID
	ID      int32
	Pos     event.Pos
}

type TouchMotion struct {
	ID  int32
	Pos event.Pos
}

type TouchUp struct {
	ID int32
}

// Configure reports a new surface size chosen by the display server.
type Configure struct {
	Surface WindowID
	Size    event.Size
}

type CloseRequest struct {
	Surface WindowID
}

// Expose asks for the surface to be repainted.
type Expose struct {
	Surface WindowID
}

// Hotkey reports a global key combination grabbed for the named action.
type Hotkey struct {
	Name string
}

func (PointerEnter) notification()  {}
func (PointerMotion) notification() {}
func (PointerLeave) notification()  {}
func (PointerButton) notification() {}
func (Key) notification()           {}
func (FocusIn) notification()       {}
func (TouchDown) notification()     {}
func (TouchMotion) notification()   {}
func (TouchUp) notification()       {}
func (Configure) notification()     {}
func (CloseRequest) notification()  {}
func (Expose) notification()        {}
func (Hotkey) notification()        {}
