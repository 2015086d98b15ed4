package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/wintree/internal/ipc"
)

type fakeController struct {
	windows []ipc.WindowInfo
	visible map[uint64]bool
	closed  []uint64
	wakes   int
	err     error
}

func (f *fakeController) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	focused := uint64(1)
	return &ipc.StatusData{Windows: len(f.windows), PlatformWindows: 1, Focused: &focused, Iterations: 7, Running: true}, nil
}

func (f *fakeController) ListWindows() (*ipc.WindowsData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.WindowsData{Windows: f.windows}, nil
}

func (f *fakeController) SetVisible(index uint64, visible bool) error {
	if f.err != nil {
		return f.err
	}
	if f.visible == nil {
		f.visible = make(map[uint64]bool)
	}
	f.visible[index] = visible
	return nil
}

func (f *fakeController) CloseWindow(index uint64) error {
	if f.err != nil {
		return f.err
	}
	f.closed = append(f.closed, index)
	return nil
}

func (f *fakeController) Wake() error {
	f.wakes++
	return f.err
}

func newTestServer(ctl Controller) *Server {
	return NewServer(ctl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetStatus(t *testing.T) {
	ctl := &fakeController{windows: []ipc.WindowInfo{{Index: 0}, {Index: 1}}}
	s := newTestServer(ctl)

	_, out, err := s.handleGetStatus(context.Background(), nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("handleGetStatus: %v", err)
	}
	if out.Windows != 2 || out.Iterations != 7 || !out.Running {
		t.Fatalf("unexpected status %+v", out)
	}
	if out.Focused == nil || *out.Focused != 1 {
		t.Fatalf("focused = %v, want 1", out.Focused)
	}
}

func TestListWindowsVisibleOnly(t *testing.T) {
	ctl := &fakeController{windows: []ipc.WindowInfo{
		{Index: 0, Title: "main", Visible: true},
		{Index: 1, Title: "hidden"},
		{Index: 2, Title: "dialog", Visible: true, Transient: true},
	}}
	s := newTestServer(ctl)

	_, all, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("handleListWindows: %v", err)
	}
	if all.Count != 3 {
		t.Fatalf("count = %d, want 3", all.Count)
	}

	_, visible, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{VisibleOnly: true})
	if err != nil {
		t.Fatalf("handleListWindows: %v", err)
	}
	if visible.Count != 2 || visible.Windows[1].Title != "dialog" || !visible.Windows[1].Transient {
		t.Fatalf("unexpected visible windows %+v", visible.Windows)
	}
}

func TestSetVisibleAndClose(t *testing.T) {
	ctl := &fakeController{}
	s := newTestServer(ctl)

	_, ack, err := s.handleSetVisible(context.Background(), nil, SetVisibleInput{Index: 3, Visible: false})
	if err != nil || !ack.OK {
		t.Fatalf("handleSetVisible = %+v, %v", ack, err)
	}
	if v, ok := ctl.visible[3]; !ok || v {
		t.Fatalf("visible[3] = %v, %v; want false, true", v, ok)
	}

	_, ack, err = s.handleCloseWindow(context.Background(), nil, WindowInput{Index: 4})
	if err != nil || !ack.OK {
		t.Fatalf("handleCloseWindow = %+v, %v", ack, err)
	}
	if len(ctl.closed) != 1 || ctl.closed[0] != 4 {
		t.Fatalf("closed = %v, want [4]", ctl.closed)
	}

	if _, _, err := s.handleWake(context.Background(), nil, GetStatusInput{}); err != nil {
		t.Fatalf("handleWake: %v", err)
	}
	if ctl.wakes != 1 {
		t.Fatalf("wakes = %d, want 1", ctl.wakes)
	}
}

func TestControllerErrorsPropagate(t *testing.T) {
	boom := errors.New("daemon not running")
	s := newTestServer(&fakeController{err: boom})

	if _, _, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{}); !errors.Is(err, boom) {
		t.Fatalf("handleListWindows error = %v, want %v", err, boom)
	}
	if _, _, err := s.handleSetVisible(context.Background(), nil, SetVisibleInput{Index: 1}); !errors.Is(err, boom) {
		t.Fatalf("handleSetVisible error = %v, want %v", err, boom)
	}
	if _, _, err := s.handleCloseWindow(context.Background(), nil, WindowInput{Index: 1}); !errors.Is(err, boom) {
		t.Fatalf("handleCloseWindow error = %v, want %v", err, boom)
	}
}
