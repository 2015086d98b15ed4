package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawTimerConfig struct {
	InitialMs *int `yaml:"initial_ms"`
	RepeatMs  *int `yaml:"repeat_ms"`
}

type RawTimers struct {
	Key   *RawTimerConfig `yaml:"key"`
	Click *RawTimerConfig `yaml:"click"`
	Touch *RawTimerConfig `yaml:"touch"`
}

type RawDispatchConfig struct {
	MaxDrainRounds *int `yaml:"max_drain_rounds"`
}

type RawIPCConfig struct {
	Enabled *bool   `yaml:"enabled"`
	Socket  *string `yaml:"socket"`
}

// RawConfig is one file's worth of settings; nil means "not set here".
type RawConfig struct {
	Include   IncludeList        `yaml:"include"`
	Display   *string            `yaml:"display"`
	LogLevel  *string            `yaml:"log_level"`
	LogFormat *string            `yaml:"log_format"`
	Timers    *RawTimers         `yaml:"timers"`
	Dispatch  *RawDispatchConfig `yaml:"dispatch"`
	IPC       *RawIPCConfig      `yaml:"ipc"`
	Hotkeys   map[string]string  `yaml:"hotkeys"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != nil {
		out.LogFormat = overlay.LogFormat
	}
	if overlay.Timers != nil {
		base := RawTimers{}
		if out.Timers != nil {
			base = *out.Timers
		}
		base.Key = mergeRawTimer(base.Key, overlay.Timers.Key)
		base.Click = mergeRawTimer(base.Click, overlay.Timers.Click)
		base.Touch = mergeRawTimer(base.Touch, overlay.Timers.Touch)
		out.Timers = &base
	}
	if overlay.Dispatch != nil {
		base := RawDispatchConfig{}
		if out.Dispatch != nil {
			base = *out.Dispatch
		}
		if overlay.Dispatch.MaxDrainRounds != nil {
			base.MaxDrainRounds = overlay.Dispatch.MaxDrainRounds
		}
		out.Dispatch = &base
	}
	if overlay.IPC != nil {
		base := RawIPCConfig{}
		if out.IPC != nil {
			base = *out.IPC
		}
		if overlay.IPC.Enabled != nil {
			base.Enabled = overlay.IPC.Enabled
		}
		if overlay.IPC.Socket != nil {
			base.Socket = overlay.IPC.Socket
		}
		out.IPC = &base
	}
	if len(overlay.Hotkeys) > 0 {
		merged := make(map[string]string, len(out.Hotkeys)+len(overlay.Hotkeys))
		for name, accel := range out.Hotkeys {
			merged[name] = accel
		}
		for name, accel := range overlay.Hotkeys {
			merged[name] = accel
		}
		out.Hotkeys = merged
	}

	return out
}

func mergeRawTimer(base *RawTimerConfig, overlay *RawTimerConfig) *RawTimerConfig {
	if overlay == nil {
		return base
	}
	out := RawTimerConfig{}
	if base != nil {
		out = *base
	}
	if overlay.InitialMs != nil {
		out.InitialMs = overlay.InitialMs
	}
	if overlay.RepeatMs != nil {
		out.RepeatMs = overlay.RepeatMs
	}
	return &out
}
