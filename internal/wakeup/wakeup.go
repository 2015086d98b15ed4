// Package wakeup is the signal channel between the timer goroutine (or any
// other goroutine) and the main loop: a non-blocking pipe whose read end is
// polled next to the display connection. Every notification is one byte.
package wakeup

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sys/unix"
)

// Other is the byte written by Wake. Values reserved for timers are
// handed out by the timer package.
const Other byte = 0

// ErrClosed is returned once the channel has been closed, including when a
// read reports end of file.
var ErrClosed = errors.New("wakeup: channel closed")

// Channel is safe for concurrent use.
type Channel struct {
	mu     sync.Mutex
	rfd    int
	wfd    int
	closed bool

	// overflow holds distinct bytes that did not fit into a full pipe.
	overflow []byte
}

// New creates the pipe.
func New() (*Channel, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("wakeup: pipe: %w", err)
	}
	return &Channel{rfd: fds[0], wfd: fds[1]}, nil
}

// Fd is the descriptor to poll for readability.
func (c *Channel) Fd() int {
	return c.rfd
}

// Notify writes b. A full pipe already guarantees a wakeup, so EAGAIN is
// not reported; b is kept aside instead and returned by the next Drain.
// Repeats of a byte kept aside coalesce into one.
func (c *Channel) Notify(b byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	buf := []byte{b}
	for {
		_, err := unix.Write(c.wfd, buf)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EAGAIN):
			if !slices.Contains(c.overflow, b) {
				c.overflow = append(c.overflow, b)
			}
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return fmt.Errorf("wakeup: write: %w", err)
		}
	}
}

// Wake sends a generic wakeup.
func (c *Channel) Wake() error {
	return c.Notify(Other)
}

// Drain reads every pending byte without blocking, followed by the bytes
// Notify kept aside.
func (c *Channel) Drain() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	var (
		out []byte
		buf = make([]byte, 128)
	)
	for {
		n, err := unix.Read(c.rfd, buf)
		switch {
		case errors.Is(err, unix.EAGAIN):
			out = append(out, c.overflow...)
			c.overflow = c.overflow[:0]
			return out, nil
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return out, fmt.Errorf("wakeup: read: %w", err)
		case n == 0:
			return out, ErrClosed
		}
		out = append(out, buf[:n]...)
	}
}

// Close releases both ends of the pipe.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	werr := unix.Close(c.wfd)
	rerr := unix.Close(c.rfd)
	return errors.Join(werr, rerr)
}
