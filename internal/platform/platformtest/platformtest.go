// Package platformtest provides an in-memory platform.Conn for tests. Queued
// notifications make its descriptor readable, so it can sit in the main
// loop's poll set like a real display connection.
package platformtest

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/platform"
	"github.com/1broseidon/wintree/internal/tree"
)

// Action records one surface operation.
type Action struct {
	Op      string // "create", "configure", "destroy"
	Surface platform.WindowID
	Title   string
}

func (a Action) String() string {
	return fmt.Sprintf("%s %d %s", a.Op, a.Surface, a.Title)
}

// Conn is a fake display connection.
type Conn struct {
	mu sync.Mutex

	rfd, wfd int
	pending  []platform.Notification
	closed   bool

	next     platform.WindowID
	surfaces map[platform.WindowID]*Surface
	actions  []Action

	// CreateErr, when set, is consulted before every surface creation.
	CreateErr func(cfg platform.SurfaceConfig) error
	// DispatchErr is returned by the next Dispatch call.
	DispatchErr error
}

var _ platform.Conn = (*Conn)(nil)

// New returns a fake connection backed by a non-blocking pipe.
func New() (*Conn, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("platformtest: pipe: %w", err)
	}
	return &Conn{
		rfd:      fds[0],
		wfd:      fds[1],
		surfaces: make(map[platform.WindowID]*Surface),
	}, nil
}

// Push queues notifications and makes the descriptor readable. Safe from
// any goroutine.
func (c *Conn) Push(ns ...platform.Notification) {
	c.mu.Lock()
	c.pending = append(c.pending, ns...)
	c.mu.Unlock()
	_, _ = unix.Write(c.wfd, []byte{1})
}

func (c *Conn) Fd() int { return c.rfd }

func (c *Conn) Flush() error { return nil }

// Dispatch delivers every queued notification.
func (c *Conn) Dispatch(h platform.Handler) error {
	buf := make([]byte, 64)
	for {
		if _, err := unix.Read(c.rfd, buf); err != nil {
			if errors.Is(err, unix.EAGAIN) {
				break
			}
			return err
		}
	}
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	err := c.DispatchErr
	c.DispatchErr = nil
	c.mu.Unlock()
	if err != nil {
		return err
	}
	for _, n := range pending {
		h.HandleNotification(n)
	}
	return nil
}

func (c *Conn) CreateSurface(cfg platform.SurfaceConfig) (platform.Surface, error) {
	if c.CreateErr != nil {
		if err := c.CreateErr(cfg); err != nil {
			return nil, err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	s := &Surface{conn: c, id: c.next, Config: cfg}
	c.surfaces[s.id] = s
	c.actions = append(c.actions, Action{Op: "create", Surface: s.id, Title: cfg.Title})
	return s, nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	unix.Close(c.rfd)
	unix.Close(c.wfd)
	return nil
}

// Actions returns the recorded surface operations.
func (c *Conn) Actions() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Action(nil), c.actions...)
}

// ResetActions forgets recorded operations.
func (c *Conn) ResetActions() {
	c.mu.Lock()
	c.actions = nil
	c.mu.Unlock()
}

// Surface returns a surface by ID, including destroyed ones.
func (c *Conn) Surface(id platform.WindowID) (*Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.surfaces[id]
	return s, ok
}

// Live returns the number of surfaces not yet destroyed.
func (c *Conn) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.surfaces {
		if !s.Destroyed {
			n++
		}
	}
	return n
}

func (c *Conn) record(a Action) {
	c.mu.Lock()
	c.actions = append(c.actions, a)
	c.mu.Unlock()
}

// Surface is a fake platform surface.
type Surface struct {
	conn      *Conn
	id        platform.WindowID
	Config    platform.SurfaceConfig
	Destroyed bool
	Draws     int
	Canvas    Canvas
}

func (s *Surface) ID() platform.WindowID { return s.id }

func (s *Surface) Configure(cfg platform.SurfaceConfig) error {
	s.Config = cfg
	s.conn.record(Action{Op: "configure", Surface: s.id, Title: cfg.Title})
	return nil
}

func (s *Surface) Draw(paint func(c tree.Canvas)) error {
	s.Draws++
	s.Canvas.size = s.Config.Size
	paint(&s.Canvas)
	return nil
}

func (s *Surface) Destroy() error {
	if s.Destroyed {
		return fmt.Errorf("surface %d destroyed twice", s.id)
	}
	s.Destroyed = true
	s.conn.record(Action{Op: "destroy", Surface: s.id, Title: s.Config.Title})
	return nil
}

// Canvas records drawing calls.
type Canvas struct {
	size  event.Size
	Rects int
	Texts []string
}

func (c *Canvas) Size() event.Size { return c.size }

func (c *Canvas) FillRect(x, y, width, height int, color uint32) { c.Rects++ }

func (c *Canvas) DrawText(x, y int, text string, color uint32) {
	c.Texts = append(c.Texts, text)
}
