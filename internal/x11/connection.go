// Package x11 implements platform.Conn on top of the X11 protocol. xgb reads
// the socket on its own goroutine, so events are pumped into a queue and a
// pipe stands in for the display descriptor in the main loop's poll set.
package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xprop"
	"golang.org/x/sys/unix"

	"github.com/1broseidon/wintree/internal/hotkeys"
	"github.com/1broseidon/wintree/internal/platform"
)

// ErrDisconnected is returned by Dispatch once the X server closed the
// connection.
var ErrDisconnected = errors.New("x11: connection closed by server")

// Connection manages the X11 connection and the event pump.
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	logger *slog.Logger

	deleteWindow xproto.Atom
	protocols    xproto.Atom
	font         xproto.Font

	rfd, wfd int

	mu     sync.Mutex
	events []xgb.Event
	lost   bool

	pumpDone  chan struct{}
	closeOnce sync.Once

	// Loop goroutine only.
	surfaces map[xproto.Window]*Surface
	pointer  xproto.Window
	hotkeys  *hotkeys.Handler
}

var _ platform.Conn = (*Connection)(nil)

// Dial connects to display (empty means $DISPLAY) and starts the event pump.
func Dial(display string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}

	// Needed for keycode to keysym lookups.
	keybind.Initialize(xu)

	c := &Connection{
		XUtil:    xu,
		Root:     xu.RootWin(),
		logger:   logger,
		pumpDone: make(chan struct{}),
		surfaces: make(map[xproto.Window]*Surface),
	}
	if c.deleteWindow, err = xprop.Atm(xu, "WM_DELETE_WINDOW"); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("x11: intern WM_DELETE_WINDOW: %w", err)
	}
	if c.protocols, err = xprop.Atm(xu, "WM_PROTOCOLS"); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("x11: intern WM_PROTOCOLS: %w", err)
	}
	if c.font, err = openFont(xu.Conn()); err != nil {
		logger.Warn("no core font available, text will not be drawn", "error", err)
	}

	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("x11: event pipe: %w", err)
	}
	c.rfd, c.wfd = fds[0], fds[1]

	go c.pump()
	return c, nil
}

func openFont(conn *xgb.Conn) (xproto.Font, error) {
	font, err := xproto.NewFontId(conn)
	if err != nil {
		return 0, err
	}
	for _, name := range []string{"fixed", "9x15", "8x13", "6x13"} {
		if err = xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			return font, nil
		}
	}
	return 0, err
}

// pump moves events from xgb's reader into the queue and pokes the pipe.
func (c *Connection) pump() {
	defer close(c.pumpDone)
	for {
		ev, xerr := c.XUtil.Conn().WaitForEvent()
		switch {
		case ev == nil && xerr == nil:
			c.mu.Lock()
			c.lost = true
			c.mu.Unlock()
			c.poke()
			return
		case xerr != nil:
			c.logger.Warn("x11 protocol error", "error", xerr)
		default:
			c.mu.Lock()
			c.events = append(c.events, ev)
			c.mu.Unlock()
			c.poke()
		}
	}
}

func (c *Connection) poke() {
	for {
		_, err := unix.Write(c.wfd, []byte{0})
		if errors.Is(err, unix.EINTR) {
			continue
		}
		// EAGAIN means the pipe is already readable.
		return
	}
}

// Fd implements platform.Conn.
func (c *Connection) Fd() int { return c.rfd }

// Flush implements platform.Conn. xgb writes requests as they are issued,
// so there is never anything buffered on this side.
func (c *Connection) Flush() error { return nil }

// Dispatch implements platform.Conn.
func (c *Connection) Dispatch(h platform.Handler) error {
	buf := make([]byte, 256)
	for {
		_, err := unix.Read(c.rfd, buf)
		if err == nil {
			continue
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			break
		}
		return fmt.Errorf("x11: event pipe: %w", err)
	}

	c.mu.Lock()
	events := c.events
	c.events = nil
	lost := c.lost
	c.mu.Unlock()

	for _, n := range c.translate(events) {
		h.HandleNotification(n)
	}
	if lost {
		return ErrDisconnected
	}
	return nil
}

// GrabHotkeys grabs every accelerator in accels (action name to key
// string) on the root window. Presses arrive as platform.Hotkey. Entries
// that fail are reported together; the rest stay grabbed. Must be
// called from the loop goroutine or before Run.
func (c *Connection) GrabHotkeys(accels map[string]string) error {
	if len(accels) == 0 {
		return nil
	}
	if c.hotkeys == nil {
		c.hotkeys = hotkeys.NewHandler(c.XUtil, c.Root)
	}
	err := c.hotkeys.RegisterAll(accels)
	for _, b := range c.hotkeys.Bindings() {
		c.logger.Info("hotkey grabbed", "action", b.Name, "key", b.Accel)
	}
	if err != nil {
		return fmt.Errorf("x11: %w", err)
	}
	return nil
}

// Close disconnects from the server and waits for the pump to stop.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		if c.hotkeys != nil {
			c.hotkeys.Release()
		}
		if c.font != 0 {
			xproto.CloseFont(c.XUtil.Conn(), c.font)
		}
		c.XUtil.Conn().Close()
		<-c.pumpDone
		unix.Close(c.rfd)
		unix.Close(c.wfd)
	})
	return nil
}
