package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/platform"
	"github.com/1broseidon/wintree/internal/tree"
)

const eventMask = xproto.EventMaskExposure |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskFocusChange

const (
	colorBackground = 0x1f2933
	colorText       = 0xf5f7fa
)

var errDestroyed = errors.New("x11: surface destroyed")

// Surface is a top-level X window with its own graphics context.
type Surface struct {
	c         *Connection
	win       xproto.Window
	gc        xproto.Gcontext
	cfg       platform.SurfaceConfig
	destroyed bool
}

var _ platform.Surface = (*Surface)(nil)

// CreateSurface implements platform.Conn. The window is centred on the
// monitor under the pointer and mapped immediately.
func (c *Connection) CreateSurface(cfg platform.SurfaceConfig) (platform.Surface, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("x11: window id: %w", err)
	}

	width, height := clampSize(cfg.Size)
	x, y := 0, 0
	if mon, err := c.placementMonitor(); err == nil {
		x = mon.X + (mon.Width-width)/2
		y = mon.Y + (mon.Height-height)/2
	} else {
		c.logger.Debug("no monitor for placement", "error", err)
	}

	// Value list order follows the bit positions of the mask.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		win,
		c.Root,
		int16(x), int16(y),
		uint16(width), uint16(height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{colorBackground, eventMask},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("x11: create window: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		return nil, fmt.Errorf("x11: gc id: %w", err)
	}
	mask := uint32(xproto.GcForeground | xproto.GcBackground | xproto.GcGraphicsExposures)
	values := []uint32{colorText, colorBackground, 0}
	if c.font != 0 {
		mask = xproto.GcForeground | xproto.GcBackground | xproto.GcFont | xproto.GcGraphicsExposures
		values = []uint32{colorText, colorBackground, uint32(c.font), 0}
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(win), mask, values).Check(); err != nil {
		xproto.DestroyWindow(conn, win)
		return nil, fmt.Errorf("x11: create gc: %w", err)
	}

	s := &Surface{c: c, win: win, gc: gc}
	if err := icccm.WmProtocolsSet(c.XUtil, win, []string{"WM_DELETE_WINDOW"}); err != nil {
		c.logger.Warn("setting WM_PROTOCOLS", "window", win, "error", err)
	}
	s.apply(cfg, true)

	xproto.MapWindow(conn, win)
	c.surfaces[win] = s
	return s, nil
}

func clampSize(size event.Size) (int, int) {
	return max(size.Width, 1), max(size.Height, 1)
}

// ID implements platform.Surface.
func (s *Surface) ID() platform.WindowID { return platform.WindowID(s.win) }

// Configure implements platform.Surface.
func (s *Surface) Configure(cfg platform.SurfaceConfig) error {
	if s.destroyed {
		return errDestroyed
	}
	s.apply(cfg, false)
	return nil
}

// apply pushes whatever differs from the last configuration.
func (s *Surface) apply(cfg platform.SurfaceConfig, initial bool) {
	xu := s.c.XUtil
	if initial || cfg.Title != s.cfg.Title {
		if err := ewmh.WmNameSet(xu, s.win, cfg.Title); err != nil {
			s.c.logger.Warn("setting _NET_WM_NAME", "window", s.win, "error", err)
		}
		if err := icccm.WmNameSet(xu, s.win, cfg.Title); err != nil {
			s.c.logger.Warn("setting WM_NAME", "window", s.win, "error", err)
		}
	}
	if !initial && cfg.Size != s.cfg.Size {
		width, height := clampSize(cfg.Size)
		xproto.ConfigureWindow(
			xu.Conn(),
			s.win,
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{uint32(width), uint32(height)},
		)
	}
	if cfg.HasParent && (initial || cfg.Parent != s.cfg.Parent || !s.cfg.HasParent) {
		if err := icccm.WmTransientForSet(xu, s.win, xproto.Window(cfg.Parent)); err != nil {
			s.c.logger.Warn("setting WM_TRANSIENT_FOR", "window", s.win, "error", err)
		}
	}
	s.cfg = cfg
}

// Draw implements platform.Surface.
func (s *Surface) Draw(paint func(c tree.Canvas)) error {
	if s.destroyed {
		return errDestroyed
	}
	paint(&canvas{s: s})
	return nil
}

// Destroy implements platform.Surface.
func (s *Surface) Destroy() error {
	if s.destroyed {
		return errDestroyed
	}
	s.destroyed = true
	s.c.forget(s.win)
	conn := s.c.XUtil.Conn()
	xproto.FreeGC(conn, s.gc)
	if err := xproto.DestroyWindowChecked(conn, s.win).Check(); err != nil {
		return fmt.Errorf("x11: destroy window %d: %w", s.win, err)
	}
	return nil
}

// canvas draws with core requests through the surface's GC.
type canvas struct {
	s *Surface
}

func (c *canvas) Size() event.Size { return c.s.cfg.Size }

func (c *canvas) FillRect(x, y, width, height int, color uint32) {
	if width < 1 || height < 1 {
		return
	}
	conn := c.s.c.XUtil.Conn()
	xproto.ChangeGC(conn, c.s.gc, xproto.GcForeground, []uint32{color})
	xproto.PolyFillRectangle(conn, xproto.Drawable(c.s.win), c.s.gc, []xproto.Rectangle{{
		X:      int16(x),
		Y:      int16(y),
		Width:  uint16(width),
		Height: uint16(height),
	}})
}

func (c *canvas) DrawText(x, y int, text string, color uint32) {
	if text == "" || c.s.c.font == 0 {
		return
	}
	if len(text) > 255 {
		text = text[:255]
	}
	conn := c.s.c.XUtil.Conn()
	xproto.ChangeGC(conn, c.s.gc, xproto.GcForeground, []uint32{color})
	xproto.ImageText8(conn, byte(len(text)), xproto.Drawable(c.s.win), c.s.gc, int16(x), int16(y), text)
}
