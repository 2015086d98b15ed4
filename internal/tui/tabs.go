package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wintree/internal/ipc"
)

// Tab identifies a TUI tab.
type Tab int

const (
	TabWindows Tab = iota
	TabTimers
	tabCount // sentinel for iteration
)

func (t Tab) String() string {
	switch t {
	case TabWindows:
		return "Windows"
	case TabTimers:
		return "Timers"
	default:
		return "?"
	}
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")
)

func renderTabBar(active Tab, width int) string {
	var tabs []string
	for i := Tab(0); i < tabCount; i++ {
		label := fmt.Sprintf("%d:%s", i+1, i)
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(tabs, tabGap.Render())...)
	return tabBarStyle.Width(width).Render(row)
}

// intersperse inserts sep between each element of items.
func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}

// renderStatusBar shows whether the loop is reachable and its counters.
func renderStatusBar(status *ipc.StatusData, lastErr string, width int) string {
	var line string
	if status != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{
			dot + " loop running",
			fmt.Sprintf("windows:%d", status.Windows),
			fmt.Sprintf("platform:%d", status.PlatformWindows),
			fmt.Sprintf("iterations:%d", status.Iterations),
		}
		if status.Focused != nil {
			parts = append(parts, fmt.Sprintf("focus:%d", *status.Focused))
		}
		line = strings.Join(parts, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		line = dot + " loop not running"
	}
	if lastErr != "" {
		line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(lastErr)
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(line)
}

func renderHelpBar(active Tab, width int) string {
	help := "tab: switch tabs  q/ctrl-c: quit"
	switch active {
	case TabWindows:
		help = "v: toggle visible  x: close  w: wake  r: refresh  " + help
	case TabTimers:
		help = "e: edit  s: save  " + help
	}
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
