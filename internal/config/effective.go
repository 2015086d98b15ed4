package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = *raw.LogFormat
	}
	if raw.Timers != nil {
		applyTimer(&cfg.Timers.Key, raw.Timers.Key)
		applyTimer(&cfg.Timers.Click, raw.Timers.Click)
		applyTimer(&cfg.Timers.Touch, raw.Timers.Touch)
	}
	if raw.Dispatch != nil {
		cfg.Dispatch.MaxDrainRounds = derefInt(raw.Dispatch.MaxDrainRounds, cfg.Dispatch.MaxDrainRounds)
	}
	if raw.IPC != nil {
		if raw.IPC.Enabled != nil {
			cfg.IPC.Enabled = *raw.IPC.Enabled
		}
		if raw.IPC.Socket != nil {
			cfg.IPC.Socket = *raw.IPC.Socket
		}
	}
	if len(raw.Hotkeys) > 0 {
		cfg.Hotkeys = make(map[string]string, len(raw.Hotkeys))
		for name, accel := range raw.Hotkeys {
			cfg.Hotkeys[name] = accel
		}
	}

	return cfg, nil
}

func applyTimer(dst *TimerConfig, raw *RawTimerConfig) {
	if raw == nil {
		return
	}
	dst.InitialMs = derefInt(raw.InitialMs, dst.InitialMs)
	dst.RepeatMs = derefInt(raw.RepeatMs, dst.RepeatMs)
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
