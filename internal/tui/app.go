package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wintree/internal/config"
	"github.com/1broseidon/wintree/internal/ipc"
)

const refreshInterval = time.Second

// model is the root bubbletea model for the inspector.
type model struct {
	ctl Controller

	activeTab Tab

	windowsTab WindowsTab
	timersTab  TimersTab

	status  *ipc.StatusData
	lastErr string

	width  int
	height int
}

// snapshotMsg carries one poll of the running loop.
type snapshotMsg struct {
	status  *ipc.StatusData
	windows []ipc.WindowInfo
	err     error
}

type tickMsg time.Time

func newModel(ctl Controller, configPath string) model {
	var cfg *config.Config
	var res *config.LoadResult
	var err error
	if configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(configPath)
	}
	if err == nil {
		cfg = res.Config
	}

	return model{
		ctl:        ctl,
		activeTab:  TabWindows,
		windowsTab: NewWindowsTab(ctl),
		timersTab:  NewTimersTab(cfg, configPath),
	}
}

func (m model) poll() tea.Msg {
	status, err := m.ctl.GetStatus()
	if err != nil {
		return snapshotMsg{err: err}
	}
	data, err := m.ctl.ListWindows()
	if err != nil {
		return snapshotMsg{status: status, err: err}
	}
	return snapshotMsg{status: status, windows: data.Windows}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll, tick())
}

func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The timer form consumes keys; only ctrl+c escapes.
	if m.activeTab == TabTimers && m.timersTab.editing {
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.timersTab, cmd = m.timersTab.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabTimers
			return m, nil
		case "r":
			return m, m.poll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
		m.windowsTab, _ = m.windowsTab.Update(subMsg)
		m.timersTab, _ = m.timersTab.Update(subMsg)
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.poll, tick())

	case snapshotMsg:
		if msg.err != nil {
			m.status = msg.status
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		m.lastErr = ""
		return m, m.windowsTab.SetWindows(msg.windows)

	case actionResultMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		return m, m.poll
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
	case TabTimers:
		m.timersTab, cmd = m.timersTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.lastErr, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.activeTab, m.width)

	var content string
	switch m.activeTab {
	case TabWindows:
		content = m.windowsTab.View()
	case TabTimers:
		content = m.timersTab.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
