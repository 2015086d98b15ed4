package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wintree/internal/ipc"
)

const (
	ServerName    = "wintree"
	ServerVersion = "0.1.0"
)

// Controller is the subset of the IPC client the tools need.
type Controller interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	SetVisible(index uint64, visible bool) error
	CloseWindow(index uint64) error
	Wake() error
}

// Server exposes a running wintree instance as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	ctl       Controller
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to ctl.
func NewServer(ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ctl:    ctl,
		logger: logger.With("component", "mcp"),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the state of the running event loop: window counts, the focused window, loop iterations and uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every window of the tree with its parent, children, visibility, focus and size. Set visible_only to skip hidden windows.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_visible",
		Description: "Show or hide a window by index. Hiding a window also hides its platform window and the platform windows of its descendants on the next reconcile.",
	}, s.handleSetVisible)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Deliver a close request to a window, as if the user had clicked the close button of its platform window.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wake",
		Description: "Wake the event loop so it drains pending callbacks and reconciles platform windows.",
	}, s.handleWake)
}
