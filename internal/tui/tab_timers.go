package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wintree/internal/config"
)

// TimersTab shows and edits the repeat timer policies.
type TimersTab struct {
	cfg  *config.Config
	path string

	width  int
	height int

	editing bool
	form    *huh.Form
	message string

	// Form-bound values (strings for huh, converted on submit)
	fKeyInitial   string
	fKeyRepeat    string
	fClickInitial string
	fClickRepeat  string
	fTouchInitial string
	fTouchRepeat  string
}

// NewTimersTab creates a TimersTab for cfg, saving to path.
func NewTimersTab(cfg *config.Config, path string) TimersTab {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return TimersTab{cfg: cfg, path: path}
}

// Update implements the tab's message handling.
func (t TimersTab) Update(msg tea.Msg) (TimersTab, tea.Cmd) {
	if t.editing {
		return t.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "e":
			t.startEditing()
			return t, t.form.Init()
		case "s":
			t.save()
			return t, nil
		}
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
	}
	return t, nil
}

func (t TimersTab) updateEditing(msg tea.Msg) (TimersTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			t.editing = false
			t.form = nil
			return t, nil
		}
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		if err := t.applyForm(); err != nil {
			t.message = err.Error()
		} else {
			t.message = "timers updated (s to save)"
		}
		t.editing = false
		t.form = nil
		return t, nil
	}
	return t, cmd
}

func (t *TimersTab) startEditing() {
	timers := t.cfg.Timers
	t.fKeyInitial = strconv.Itoa(timers.Key.InitialMs)
	t.fKeyRepeat = strconv.Itoa(timers.Key.RepeatMs)
	t.fClickInitial = strconv.Itoa(timers.Click.InitialMs)
	t.fClickRepeat = strconv.Itoa(timers.Click.RepeatMs)
	t.fTouchInitial = strconv.Itoa(timers.Touch.InitialMs)
	t.fTouchRepeat = strconv.Itoa(timers.Touch.RepeatMs)

	w := t.width - 4
	if w < 40 {
		w = 40
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			msInput("Key initial delay", "Held key delay before the first repeat", &t.fKeyInitial),
			msInput("Key repeat interval", "0 repeats at the initial delay", &t.fKeyRepeat),
		),
		huh.NewGroup(
			msInput("Click initial delay", "Held button delay before the first repeat", &t.fClickInitial),
			msInput("Click repeat interval", "0 repeats at the initial delay", &t.fClickRepeat),
		),
		huh.NewGroup(
			msInput("Long press delay", "Touch hold time before a long press", &t.fTouchInitial),
			msInput("Touch repeat interval", "Unused after the long press fires", &t.fTouchRepeat),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	t.editing = true
}

func msInput(title, desc string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title + " (ms)").
		Description(desc).
		Validate(func(s string) error {
			_, err := parseMs(s)
			return err
		}).
		Value(value)
}

func parseMs(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("must be >= 0")
	}
	return n, nil
}

func (t *TimersTab) applyForm() error {
	fields := []struct {
		raw string
		dst *int
	}{
		{t.fKeyInitial, &t.cfg.Timers.Key.InitialMs},
		{t.fKeyRepeat, &t.cfg.Timers.Key.RepeatMs},
		{t.fClickInitial, &t.cfg.Timers.Click.InitialMs},
		{t.fClickRepeat, &t.cfg.Timers.Click.RepeatMs},
		{t.fTouchInitial, &t.cfg.Timers.Touch.InitialMs},
		{t.fTouchRepeat, &t.cfg.Timers.Touch.RepeatMs},
	}
	values := make([]int, len(fields))
	for i, f := range fields {
		n, err := parseMs(f.raw)
		if err != nil {
			return err
		}
		values[i] = n
	}
	for i, f := range fields {
		*f.dst = values[i]
	}
	return nil
}

func (t *TimersTab) save() {
	var err error
	if t.path == "" {
		err = t.cfg.Save()
	} else {
		err = t.cfg.SaveTo(t.path)
	}
	if err != nil {
		t.message = "save failed: " + err.Error()
		return
	}
	t.message = "saved; restart the loop to apply"
}

// View renders the timers tab.
func (t TimersTab) View() string {
	if t.editing && t.form != nil {
		return t.form.View()
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(10)
	var sb strings.Builder
	rows := []struct {
		name string
		tc   config.TimerConfig
	}{
		{"key", t.cfg.Timers.Key},
		{"click", t.cfg.Timers.Click},
		{"touch", t.cfg.Timers.Touch},
	}
	for _, r := range rows {
		sb.WriteString(label.Render(r.name))
		sb.WriteString(describeTimer(r.tc))
		sb.WriteString("\n")
	}
	if t.message != "" {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render(t.message))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(sb.String())
}

func describeTimer(tc config.TimerConfig) string {
	switch {
	case tc.InitialMs <= 0:
		return "disabled"
	case tc.RepeatMs <= 0:
		return fmt.Sprintf("every %dms", tc.InitialMs)
	default:
		return fmt.Sprintf("after %dms, then every %dms", tc.InitialMs, tc.RepeatMs)
	}
}
