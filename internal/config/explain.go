package config

import (
	"fmt"
	"slices"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	display
//	log_level
//	log_format
//	timers.<key|click|touch>.initial_ms
//	timers.<key|click|touch>.repeat_ms
//	dispatch.max_drain_rounds
//	ipc.enabled
//	ipc.socket
//	hotkeys.<action>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	switch {
	case len(parts) == 1:
		switch parts[0] {
		case "display":
			return cfg.Display, nil
		case "log_level":
			return cfg.LogLevel, nil
		case "log_format":
			return cfg.LogFormat, nil
		}
	case len(parts) == 2 && parts[0] == "dispatch" && parts[1] == "max_drain_rounds":
		return cfg.Dispatch.MaxDrainRounds, nil
	case len(parts) == 2 && parts[0] == "ipc":
		switch parts[1] {
		case "enabled":
			return cfg.IPC.Enabled, nil
		case "socket":
			return cfg.IPC.Socket, nil
		}
	case len(parts) == 2 && parts[0] == "hotkeys":
		if !slices.Contains(HotkeyActions, parts[1]) {
			return nil, fmt.Errorf("unknown hotkey action: %s", parts[1])
		}
		return cfg.Hotkeys[parts[1]], nil
	case len(parts) == 3 && parts[0] == "timers":
		var t TimerConfig
		switch parts[1] {
		case "key":
			t = cfg.Timers.Key
		case "click":
			t = cfg.Timers.Click
		case "touch":
			t = cfg.Timers.Touch
		default:
			return nil, fmt.Errorf("unknown timer: %s", parts[1])
		}
		switch parts[2] {
		case "initial_ms":
			return t.InitialMs, nil
		case "repeat_ms":
			return t.RepeatMs, nil
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
