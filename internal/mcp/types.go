package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Windows         int     `json:"windows"`
	PlatformWindows int     `json:"platform_windows"`
	Focused         *uint64 `json:"focused,omitempty"`
	Iterations      uint64  `json:"iterations"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
	Running         bool    `json:"running"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	VisibleOnly bool `json:"visible_only,omitempty" jsonschema:"When true, only visible windows are returned"`
}

// WindowInfo describes a single window.
type WindowInfo struct {
	Index     uint64   `json:"index"`
	Title     string   `json:"title"`
	Parent    *uint64  `json:"parent,omitempty"`
	Children  []uint64 `json:"children,omitempty"`
	Visible   bool     `json:"visible"`
	Popup     bool     `json:"popup"`
	Transient bool     `json:"transient"`
	Focused   bool     `json:"focused"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
	Count   int          `json:"count"`
}

// SetVisibleInput is the input for the set_visible tool.
type SetVisibleInput struct {
	Index   uint64 `json:"index" jsonschema:"required,Index of the target window"`
	Visible bool   `json:"visible" jsonschema:"required,Whether the window should be shown"`
}

// WindowInput addresses a single window.
type WindowInput struct {
	Index uint64 `json:"index" jsonschema:"required,Index of the target window"`
}

// AckOutput confirms a mutating tool call.
type AckOutput struct {
	OK bool `json:"ok"`
}
