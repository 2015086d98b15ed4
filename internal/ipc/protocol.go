package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandSetVisible  CommandType = "SET_VISIBLE"
	CommandCloseWindow CommandType = "CLOSE_WINDOW"
	CommandWake        CommandType = "WAKE"
	CommandQuit        CommandType = "QUIT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Windows         int     `json:"windows"`
	PlatformWindows int     `json:"platform_windows"`
	Focused         *uint64 `json:"focused,omitempty"`
	Iterations      uint64  `json:"iterations"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
	Running         bool    `json:"running"`
}

// WindowInfo describes one window of the tree.
type WindowInfo struct {
	Index     uint64   `json:"index"`
	Title     string   `json:"title"`
	Parent    *uint64  `json:"parent,omitempty"`
	Children  []uint64 `json:"children,omitempty"`
	Visible   bool     `json:"visible"`
	Popup     bool     `json:"popup"`
	Transient bool     `json:"transient"`
	Focusable bool     `json:"focusable"`
	Focused   bool     `json:"focused"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// WindowPayload addresses a single window.
type WindowPayload struct {
	Index uint64 `json:"index"`
}

// SetVisiblePayload represents the payload for SET_VISIBLE
type SetVisiblePayload struct {
	Index   uint64 `json:"index"`
	Visible bool   `json:"visible"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
