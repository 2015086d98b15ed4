package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/loop"
	"github.com/1broseidon/wintree/internal/runtimepath"
	"github.com/1broseidon/wintree/internal/tree"
)

// Engine is the part of the main loop the server drives. Reads go through
// the tree's reader lock; mutations are posted to the loop goroutine.
type Engine interface {
	Tree() *tree.Tree
	Post(cb tree.Callback) error
	PostEvent(path tree.CallOnPath, ev event.Event) error
	Wake() error
	Exit()
	Stats() loop.Stats
}

// DefaultPostTimeout bounds how long a mutation waits for the loop.
const DefaultPostTimeout = 2 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	engine       Engine
	logger       *slog.Logger
	startTime    time.Time
	postTimeout  time.Duration
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server. An empty socketPath uses the default
// runtime location.
func NewServer(engine Engine, socketPath string, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath:  socketPath,
		engine:      engine,
		logger:      logger,
		startTime:   time.Now(),
		postTimeout: DefaultPostTimeout,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandSetVisible:
		return s.handleSetVisible(req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(req.Payload)
	case CommandWake:
		return s.handleWake()
	case CommandQuit:
		return s.handleQuit()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	stats := s.engine.Stats()
	status := StatusData{
		PlatformWindows: stats.PlatformWindows,
		Iterations:      stats.Iterations,
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		Running:         true,
	}
	_ = s.engine.Tree().View(func(tx *tree.Txn) error {
		status.Windows = tx.Len()
		if idx, ok := tx.Focused(); ok {
			v := uint64(idx)
			status.Focused = &v
		}
		return nil
	})

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListWindows() *Response {
	data := WindowsData{Windows: []WindowInfo{}}
	_ = s.engine.Tree().View(func(tx *tree.Txn) error {
		for _, idx := range tx.Indices() {
			w, ok := tx.Window(idx)
			if !ok {
				continue
			}
			data.Windows = append(data.Windows, describe(idx, w))
		}
		return nil
	})

	resp, _ := NewOKResponse(data)
	return resp
}

func describe(idx tree.WindowIndex, w tree.Window) WindowInfo {
	size := w.Size()
	info := WindowInfo{
		Index:     uint64(idx),
		Title:     w.Title(),
		Visible:   w.IsVisible(),
		Popup:     w.IsPopup(),
		Transient: w.IsTransient(),
		Focusable: w.IsFocusable(),
		Focused:   w.IsFocused(),
		Width:     size.Width,
		Height:    size.Height,
	}
	if parent, ok := w.ParentIndex(); ok {
		p := uint64(parent)
		info.Parent = &p
	}
	for _, child := range w.ChildIndices() {
		info.Children = append(info.Children, uint64(child))
	}
	return info
}

func (s *Server) handleSetVisible(payload json.RawMessage) *Response {
	var req SetVisiblePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid set visible payload: %v", err))
	}

	err := s.postAndWait(func(ctx *tree.Context) error {
		w, err := ctx.Tx.Get(tree.WindowIndex(req.Index))
		if err != nil {
			return err
		}
		w.SetVisible(req.Visible)
		return nil
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set visibility: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleCloseWindow delivers a close request as if the display server had
// sent one, so the window's own handler decides what closing means.
func (s *Server) handleCloseWindow(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}

	err := s.postAndWait(func(ctx *tree.Context) error {
		idx := tree.WindowIndex(req.Index)
		if _, err := ctx.Tx.Get(idx); err != nil {
			return err
		}
		ctx.Emit.PushEvent(tree.WindowPath(idx), event.CloseRequest{})
		return nil
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to close window: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleWake() *Response {
	if err := s.engine.Wake(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to wake main loop: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleQuit() *Response {
	s.logger.Info("IPC: received QUIT")
	s.engine.Exit()
	resp, _ := NewOKResponse(nil)
	return resp
}

// postAndWait runs fn on the loop goroutine and returns its error.
func (s *Server) postAndWait(fn tree.Callback) error {
	done := make(chan error, 1)
	if err := s.engine.Post(func(ctx *tree.Context) error {
		err := fn(ctx)
		done <- err
		return err
	}); err != nil {
		return fmt.Errorf("main loop unavailable: %w", err)
	}
	select {
	case err := <-done:
		return err
	case <-time.After(s.postTimeout):
		return fmt.Errorf("main loop did not respond within %s", s.postTimeout)
	}
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
