// Package platform describes the display-server connection the main loop
// drives, and keeps the registry of live platform windows that mirror the
// visible part of the window tree.
package platform

import (
	"errors"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
)

// ErrWouldBlock is returned by Flush when the outgoing buffer is full. It is
// not a fault: the loop simply polls again.
var ErrWouldBlock = errors.New("platform: write would block")

// WindowID is a platform-neutral surface identifier.
type WindowID uint32

// SurfaceConfig is the state the synchronizer pushes to a surface.
type SurfaceConfig struct {
	Title     string
	Size      event.Size
	Parent    WindowID
	HasParent bool
}

// Surface is a live platform window.
type Surface interface {
	ID() WindowID
	Configure(cfg SurfaceConfig) error
	Draw(paint func(c tree.Canvas)) error
	Destroy() error
}

// Handler receives notifications from Conn.Dispatch.
type Handler interface {
	HandleNotification(n Notification)
}

// Conn is a connection to the display server. Fd must become readable
// whenever Dispatch has notifications to deliver.
type Conn interface {
	Fd() int
	Flush() error
	Dispatch(h Handler) error
	CreateSurface(cfg SurfaceConfig) (Surface, error)
	Close() error
}
