package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/wintree/internal/timer"
)

// TimerConfig is the repeat policy of one timer in milliseconds. An initial
// delay of 0 disables the timer; a repeat of 0 reuses the initial delay.
type TimerConfig struct {
	InitialMs int `yaml:"initial_ms"`
	RepeatMs  int `yaml:"repeat_ms"`
}

// Repeat converts the configuration into a timer policy.
func (t TimerConfig) Repeat() timer.Repeat {
	switch {
	case t.InitialMs <= 0:
		return timer.None()
	case t.RepeatMs <= 0:
		return timer.Fixed(ms(t.InitialMs))
	default:
		return timer.Pair(ms(t.InitialMs), ms(t.RepeatMs))
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Timers holds the key, click and touch repeat policies.
type Timers struct {
	Key   TimerConfig `yaml:"key"`
	Click TimerConfig `yaml:"click"`
	Touch TimerConfig `yaml:"touch"`
}

// DispatchConfig tunes the call queue drain.
type DispatchConfig struct {
	// MaxDrainRounds is the number of drain rounds after which a warning is
	// logged. The drain itself never gives up.
	MaxDrainRounds int `yaml:"max_drain_rounds"`
}

// IPCConfig controls the local control socket.
type IPCConfig struct {
	Enabled bool `yaml:"enabled"`
	// Socket overrides the default socket path.
	Socket string `yaml:"socket,omitempty"`
}

// Config is the effective configuration.
type Config struct {
	Display   string         `yaml:"display"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
	Timers    Timers         `yaml:"timers"`
	Dispatch  DispatchConfig `yaml:"dispatch"`
	IPC       IPCConfig      `yaml:"ipc"`
	// Hotkeys maps an action name to a global X11 accelerator such as
	// "Mod4-Shift-w". An empty accelerator disables the action.
	Hotkeys map[string]string `yaml:"hotkeys,omitempty"`
}

// HotkeyActions lists the action names accepted under hotkeys.
var HotkeyActions = []string{"show_all", "hide_all", "quit"}

const (
	DefaultMaxDrainRounds = 64
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Timers: Timers{
			Key:   TimerConfig{InitialMs: 400, RepeatMs: 40},
			Click: TimerConfig{InitialMs: 500, RepeatMs: 100},
			Touch: TimerConfig{InitialMs: 700},
		},
		Dispatch: DispatchConfig{MaxDrainRounds: DefaultMaxDrainRounds},
		IPC:      IPCConfig{Enabled: true},
	}
}

// TimerPolicies returns the repeat policy of every timer.
func (c *Config) TimerPolicies() map[timer.Name]timer.Repeat {
	return map[timer.Name]timer.Repeat{
		timer.Key:   c.Timers.Key.Repeat(),
		timer.Click: c.Timers.Click.Repeat(),
		timer.Touch: c.Timers.Touch.Repeat(),
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: text, json")}
	}
	timers := []struct {
		name string
		cfg  TimerConfig
	}{
		{"key", c.Timers.Key},
		{"click", c.Timers.Click},
		{"touch", c.Timers.Touch},
	}
	for _, t := range timers {
		if t.cfg.InitialMs < 0 {
			return &ValidationError{Path: "timers." + t.name + ".initial_ms", Err: fmt.Errorf("initial_ms must be >= 0")}
		}
		if t.cfg.RepeatMs < 0 {
			return &ValidationError{Path: "timers." + t.name + ".repeat_ms", Err: fmt.Errorf("repeat_ms must be >= 0")}
		}
	}
	if c.Dispatch.MaxDrainRounds < 1 {
		return &ValidationError{Path: "dispatch.max_drain_rounds", Err: fmt.Errorf("max_drain_rounds must be >= 1")}
	}
	for name := range c.Hotkeys {
		if !slices.Contains(HotkeyActions, name) {
			return &ValidationError{Path: "hotkeys." + name, Err: fmt.Errorf("unknown hotkey action (expected one of: %s)", strings.Join(HotkeyActions, ", "))}
		}
	}
	return nil
}

// ActiveHotkeys returns the hotkeys with a non-empty accelerator.
func (c *Config) ActiveHotkeys() map[string]string {
	out := make(map[string]string, len(c.Hotkeys))
	for name, accel := range c.Hotkeys {
		if accel = strings.TrimSpace(accel); accel != "" {
			out[name] = accel
		}
	}
	return out
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates the configuration and writes it to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
