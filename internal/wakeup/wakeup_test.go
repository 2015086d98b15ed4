package wakeup

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestNotifyAndDrain(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if got, err := c.Drain(); err != nil || len(got) != 0 {
		t.Fatalf("empty Drain = %v, %v", got, err)
	}
	_ = c.Notify(2)
	_ = c.Wake()
	_ = c.Notify(2)

	fds := []unix.PollFd{{Fd: int32(c.Fd()), Events: unix.POLLIN}}
	if n, err := unix.Poll(fds, 0); err != nil || n != 1 {
		t.Fatalf("Poll = %d, %v; want readable", n, err)
	}

	got, err := c.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if string(got) != string([]byte{2, Other, 2}) {
		t.Fatalf("Drain = %v", got)
	}
}

func TestFullPipeIsNotAnError(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	for i := 0; i < 1<<17; i++ {
		if err := c.Wake(); err != nil {
			t.Fatalf("Wake #%d: %v", i, err)
		}
	}
	got, err := c.Drain()
	if err != nil || len(got) == 0 {
		t.Fatalf("Drain = %d bytes, %v", len(got), err)
	}
}

func TestClosed(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := c.Wake(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Wake after Close = %v", err)
	}
	if _, err := c.Drain(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Drain after Close = %v", err)
	}
}

func TestFullPipeKeepsTimerBytes(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	for i := 0; i < 1<<17; i++ {
		_ = c.Wake()
	}
	for i := 0; i < 3; i++ {
		if err := c.Notify(2); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	got, err := c.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	n := 0
	for _, b := range got {
		if b == 2 {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("byte 2 drained %d times, want 1", n)
	}

	if got, err := c.Drain(); err != nil || len(got) != 0 {
		t.Fatalf("second Drain = %v, %v", got, err)
	}
}
