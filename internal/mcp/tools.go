package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.ctl.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, fmt.Errorf("get status: %w", err)
	}
	return nil, GetStatusOutput{
		Windows:         status.Windows,
		PlatformWindows: status.PlatformWindows,
		Focused:         status.Focused,
		Iterations:      status.Iterations,
		UptimeSeconds:   status.UptimeSeconds,
		Running:         status.Running,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.ctl.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list windows: %w", err)
	}

	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(data.Windows))}
	for _, w := range data.Windows {
		if args.VisibleOnly && !w.Visible {
			continue
		}
		out.Windows = append(out.Windows, WindowInfo{
			Index:     w.Index,
			Title:     w.Title,
			Parent:    w.Parent,
			Children:  w.Children,
			Visible:   w.Visible,
			Popup:     w.Popup,
			Transient: w.Transient,
			Focused:   w.Focused,
			Width:     w.Width,
			Height:    w.Height,
		})
	}
	out.Count = len(out.Windows)
	return nil, out, nil
}

func (s *Server) handleSetVisible(_ context.Context, _ *mcpsdk.CallToolRequest, args SetVisibleInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.ctl.SetVisible(args.Index, args.Visible); err != nil {
		s.logger.Warn("set_visible failed", "index", args.Index, "error", err)
		return nil, AckOutput{}, fmt.Errorf("set visible on window %d: %w", args.Index, err)
	}
	s.logger.Info("set_visible", "index", args.Index, "visible", args.Visible)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.ctl.CloseWindow(args.Index); err != nil {
		s.logger.Warn("close_window failed", "index", args.Index, "error", err)
		return nil, AckOutput{}, fmt.Errorf("close window %d: %w", args.Index, err)
	}
	s.logger.Info("close_window", "index", args.Index)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleWake(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.ctl.Wake(); err != nil {
		return nil, AckOutput{}, fmt.Errorf("wake: %w", err)
	}
	return nil, AckOutput{OK: true}, nil
}
