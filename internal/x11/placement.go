package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display.
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Monitors retrieves all active monitors using XRandR.
func (c *Connection) Monitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTC.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}

// placementMonitor returns the monitor under the pointer, clipped to the
// work area so new windows do not open beneath panels.
func (c *Connection) placementMonitor() (Monitor, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return Monitor{}, err
	}
	if len(monitors) == 0 {
		return Monitor{}, errors.New("no monitors found")
	}

	mon := monitors[0]
	if pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		if found, ok := monitorAt(monitors, int(pointer.RootX), int(pointer.RootY)); ok {
			mon = found
		}
	}

	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return mon, nil
	}
	desktop := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(workArea) {
		desktop = int(current)
	}
	wa := workArea[desktop]
	return clipToArea(mon, int(wa.X), int(wa.Y), int(wa.Width), int(wa.Height)), nil
}

func monitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	for _, mon := range monitors {
		if x >= mon.X && x < mon.X+mon.Width && y >= mon.Y && y < mon.Y+mon.Height {
			return mon, true
		}
	}
	return Monitor{}, false
}

// clipToArea intersects mon with the given area; a disjoint area leaves mon
// unchanged.
func clipToArea(mon Monitor, x, y, width, height int) Monitor {
	x1 := max(mon.X, x)
	y1 := max(mon.Y, y)
	x2 := min(mon.X+mon.Width, x+width)
	y2 := min(mon.Y+mon.Height, y+height)
	if x2 <= x1 || y2 <= y1 {
		return mon
	}
	mon.X, mon.Y = x1, y1
	mon.Width, mon.Height = x2-x1, y2-y1
	return mon
}
