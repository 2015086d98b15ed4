package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/wintree/internal/ipc"
)

// Controller is the part of the IPC client the inspector drives.
type Controller interface {
	Ping() error
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	SetVisible(index uint64, visible bool) error
	CloseWindow(index uint64) error
	Wake() error
}

// Run starts the inspector and blocks until the user quits.
// configPath selects the file edited on the timers tab; empty means the
// default location.
func Run(ctl Controller, configPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("inspect requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(ctl, configPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
