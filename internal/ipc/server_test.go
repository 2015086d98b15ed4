package ipc

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/loop"
	"github.com/1broseidon/wintree/internal/tree"
	"github.com/1broseidon/wintree/internal/widget"
)

// fakeEngine runs posted callbacks on a fresh goroutine under the tree's
// writer lock, like the main loop would.
type fakeEngine struct {
	tree *tree.Tree

	mu     sync.Mutex
	events []tree.CallOnPath
	wakes  int
	exited bool
}

func (e *fakeEngine) Tree() *tree.Tree { return e.tree }

func (e *fakeEngine) Post(cb tree.Callback) error {
	go func() {
		_ = e.tree.Update(func(tx *tree.Txn) error {
			return cb(&tree.Context{Tx: tx, Emit: e})
		})
	}()
	return nil
}

func (e *fakeEngine) PostEvent(path tree.CallOnPath, ev event.Event) error {
	e.PushEvent(path, ev)
	return nil
}

func (e *fakeEngine) PushEvent(path tree.CallOnPath, ev event.Event) {
	e.mu.Lock()
	e.events = append(e.events, path)
	e.mu.Unlock()
}

func (e *fakeEngine) PushCallback(cb tree.Callback) {}

func (e *fakeEngine) Wake() error {
	e.mu.Lock()
	e.wakes++
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) Exit() {
	e.mu.Lock()
	e.exited = true
	e.mu.Unlock()
}

func (e *fakeEngine) Stats() loop.Stats {
	return loop.Stats{PlatformWindows: 2, Iterations: 7}
}

func startServer(t *testing.T) (*fakeEngine, *Client, tree.WindowIndex, tree.WindowIndex) {
	t.Helper()
	engine := &fakeEngine{tree: tree.New()}
	var root, child tree.WindowIndex
	if err := engine.tree.Update(func(tx *tree.Txn) error {
		root = tx.Insert(widget.NewWindow("main", 640, 480))
		var err error
		child, err = tx.InsertChild(root, widget.NewWindow("tools", 200, 300))
		tx.SetFocused(child, true)
		return err
	}); err != nil {
		t.Fatalf("setup tree: %v", err)
	}

	socket := filepath.Join(t.TempDir(), "wintree.sock")
	srv, err := NewServer(engine, socket, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return engine, NewClientWithSocket(socket), root, child
}

func TestGetStatus(t *testing.T) {
	_, client, _, child := startServer(t)

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Windows != 2 || status.PlatformWindows != 2 || status.Iterations != 7 || !status.Running {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Focused == nil || *status.Focused != uint64(child) {
		t.Fatalf("focused = %v, want %d", status.Focused, child)
	}
}

func TestListWindows(t *testing.T) {
	_, client, root, child := startServer(t)

	data, err := client.ListWindows()
	if err != nil {
		t.Fatalf("ListWindows: %v", err)
	}
	if len(data.Windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(data.Windows))
	}
	main, tools := data.Windows[0], data.Windows[1]
	if main.Index != uint64(root) || main.Title != "main" || main.Parent != nil {
		t.Fatalf("unexpected root %+v", main)
	}
	if len(main.Children) != 1 || main.Children[0] != uint64(child) {
		t.Fatalf("root children = %v", main.Children)
	}
	if tools.Parent == nil || *tools.Parent != uint64(root) || !tools.Focused {
		t.Fatalf("unexpected child %+v", tools)
	}
	if tools.Width != 200 || tools.Height != 300 {
		t.Fatalf("child size = %dx%d", tools.Width, tools.Height)
	}
}

func TestSetVisible(t *testing.T) {
	engine, client, _, child := startServer(t)

	if err := client.SetVisible(uint64(child), false); err != nil {
		t.Fatalf("SetVisible: %v", err)
	}
	var visible bool
	_ = engine.tree.View(func(tx *tree.Txn) error {
		w, _ := tx.Window(child)
		visible = w.IsVisible()
		return nil
	})
	if visible {
		t.Fatal("window still visible")
	}

	err := client.SetVisible(999, true)
	if err == nil || !strings.Contains(err.Error(), "999") {
		t.Fatalf("SetVisible(999) error = %v", err)
	}
}

func TestCloseWindowQueuesCloseRequest(t *testing.T) {
	engine, client, root, _ := startServer(t)

	if err := client.CloseWindow(uint64(root)); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.events) != 1 || !engine.events[0].Equal(tree.WindowPath(root)) {
		t.Fatalf("events = %v", engine.events)
	}
}

func TestWakeAndQuit(t *testing.T) {
	engine, client, _, _ := startServer(t)

	if err := client.Wake(); err != nil {
		t.Fatalf("Wake: %v", err)
	}
	if err := client.Quit(); err != nil {
		t.Fatalf("Quit: %v", err)
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.wakes != 1 || !engine.exited {
		t.Fatalf("wakes = %d, exited = %v", engine.wakes, engine.exited)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, client, _, _ := startServer(t)

	_, err := client.command("FLY", nil)
	if err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("error = %v", err)
	}
}

func TestClientWithoutServer(t *testing.T) {
	client := NewClientWithSocket(filepath.Join(t.TempDir(), "absent.sock"))
	err := client.Ping()
	if err == nil || !strings.Contains(err.Error(), "failed to connect") {
		t.Fatalf("Ping error = %v", err)
	}
}
