package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/wintree/internal/runtimepath"
)

// Client handles IPC communication with a running wintree instance
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to wintree: %w (is `wintree run` running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("wintree error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) command(cmd CommandType, payload any) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return c.sendRequest(req)
}

// GetStatus retrieves main loop status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.command(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListWindows retrieves every window of the tree, ordered by index
func (c *Client) ListWindows() (*WindowsData, error) {
	resp, err := c.command(CommandListWindows, nil)
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}
	return &data, nil
}

// SetVisible shows or hides a window
func (c *Client) SetVisible(index uint64, visible bool) error {
	_, err := c.command(CommandSetVisible, SetVisiblePayload{Index: index, Visible: visible})
	return err
}

// CloseWindow sends a close request to a window
func (c *Client) CloseWindow(index uint64) error {
	_, err := c.command(CommandCloseWindow, WindowPayload{Index: index})
	return err
}

// Wake sends a generic wakeup to the main loop
func (c *Client) Wake() error {
	_, err := c.command(CommandWake, nil)
	return err
}

// Quit asks the main loop to exit
func (c *Client) Quit() error {
	_, err := c.command(CommandQuit, nil)
	return err
}

// Ping checks if wintree is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
