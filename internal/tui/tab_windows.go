package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wintree/internal/ipc"
)

// windowItem is a list item for one window of the tree.
type windowItem struct {
	info  ipc.WindowInfo
	depth int
}

func (i windowItem) Title() string {
	mark := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("○")
	if i.info.Visible {
		mark = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	}
	title := i.info.Title
	if title == "" {
		title = "(untitled)"
	}
	if i.info.Focused {
		title += " *"
	}
	return fmt.Sprintf("%s%s [%d] %s", strings.Repeat("  ", i.depth), mark, i.info.Index, title)
}

func (i windowItem) Description() string {
	var flags []string
	if i.info.Popup {
		flags = append(flags, "popup")
	}
	if i.info.Transient {
		flags = append(flags, "transient")
	}
	if !i.info.Focusable {
		flags = append(flags, "unfocusable")
	}
	desc := fmt.Sprintf("%s%dx%d", strings.Repeat("  ", i.depth), i.info.Width, i.info.Height)
	if len(flags) > 0 {
		desc += " " + strings.Join(flags, ",")
	}
	return desc
}

func (i windowItem) FilterValue() string { return i.info.Title }

// WindowsTab lists the window tree and drives visibility and close requests.
type WindowsTab struct {
	list   list.Model
	ctl    Controller
	width  int
	height int
}

// actionResultMsg reports the outcome of a window action.
type actionResultMsg struct {
	err error
}

// NewWindowsTab creates an empty WindowsTab.
func NewWindowsTab(ctl Controller) WindowsTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Windows"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	return WindowsTab{list: l, ctl: ctl}
}

// SetWindows replaces the list content, keeping the selection on the same
// window index when it still exists.
func (w *WindowsTab) SetWindows(windows []ipc.WindowInfo) tea.Cmd {
	var selected *uint64
	if item, ok := w.list.SelectedItem().(windowItem); ok {
		idx := item.info.Index
		selected = &idx
	}

	items := orderWindows(windows)
	cmd := w.list.SetItems(items)
	if selected != nil {
		for i, it := range items {
			if it.(windowItem).info.Index == *selected {
				w.list.Select(i)
				break
			}
		}
	}
	return cmd
}

// orderWindows flattens the forest depth first so children follow their
// parent, roots in index order.
func orderWindows(windows []ipc.WindowInfo) []list.Item {
	byIndex := make(map[uint64]ipc.WindowInfo, len(windows))
	for _, w := range windows {
		byIndex[w.Index] = w
	}

	items := make([]list.Item, 0, len(windows))
	seen := make(map[uint64]bool, len(windows))
	var walk func(idx uint64, depth int)
	walk = func(idx uint64, depth int) {
		info, ok := byIndex[idx]
		if !ok || seen[idx] {
			return
		}
		seen[idx] = true
		items = append(items, windowItem{info: info, depth: depth})
		for _, child := range info.Children {
			walk(child, depth+1)
		}
	}
	for _, w := range windows {
		if w.Parent == nil {
			walk(w.Index, 0)
		}
	}
	// Windows whose parent chain never reaches a root.
	for _, w := range windows {
		walk(w.Index, 0)
	}
	return items
}

// Update handles messages for the windows tab.
func (w WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.list.SetSize(w.width, w.height)
		return w, nil

	case tea.KeyMsg:
		item, ok := w.list.SelectedItem().(windowItem)
		switch msg.String() {
		case "v":
			if ok {
				return w, w.act(func() error { return w.ctl.SetVisible(item.info.Index, !item.info.Visible) })
			}
			return w, nil
		case "x":
			if ok {
				return w, w.act(func() error { return w.ctl.CloseWindow(item.info.Index) })
			}
			return w, nil
		case "w":
			return w, w.act(w.ctl.Wake)
		}
	}

	var cmd tea.Cmd
	w.list, cmd = w.list.Update(msg)
	return w, cmd
}

func (w WindowsTab) act(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{err: fn()}
	}
}

// View renders the window list.
func (w WindowsTab) View() string {
	if len(w.list.Items()) == 0 {
		style := lipgloss.NewStyle().
			Width(w.width).
			Height(w.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render("no windows")
	}
	return w.list.View()
}
