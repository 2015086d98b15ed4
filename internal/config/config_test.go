package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wintree/internal/timer"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if !cfg.IPC.Enabled {
		t.Fatalf("expected ipc to be enabled by default")
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Dispatch.MaxDrainRounds != DefaultMaxDrainRounds {
		t.Fatalf("expected max_drain_rounds %d, got %d", DefaultMaxDrainRounds, res.Config.Dispatch.MaxDrainRounds)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != DefaultLogLevel {
		t.Fatalf("expected log_level %q, got %q", DefaultLogLevel, res.Config.LogLevel)
	}
}

func TestLoadFromPath_PartialTimerKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"display: \":1\"",
		"timers:",
		"  key:",
		"    repeat_ms: 25",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultConfig()
	if res.Config.Timers.Key.InitialMs != def.Timers.Key.InitialMs {
		t.Fatalf("expected key initial_ms to stay %d, got %d", def.Timers.Key.InitialMs, res.Config.Timers.Key.InitialMs)
	}
	if res.Config.Timers.Key.RepeatMs != 25 {
		t.Fatalf("expected key repeat_ms 25, got %d", res.Config.Timers.Key.RepeatMs)
	}

	val, src, err := Explain(res, "timers.key.repeat_ms")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 25 || src.Kind != SourceFile || src.Line != 4 {
		t.Fatalf("explain = %#v from %#v", val, src)
	}
	val, src, err = Explain(res, "timers.key.initial_ms")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != def.Timers.Key.InitialMs || src.Kind != SourceDefault {
		t.Fatalf("explain = %#v from %#v", val, src)
	}
	if _, _, err := Explain(res, "timers.scroll.initial_ms"); err == nil {
		t.Fatalf("expected unknown timer error")
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_level: verbose\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "log_level" || verr.Source.Line != 1 {
		t.Fatalf("unexpected validation error %#v", verr)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(configD, "10-base.yaml"), "dispatch:\n  max_drain_rounds: 5\nlog_format: json\n")
	writeFile(t, filepath.Join(configD, "20-override.yaml"), "dispatch:\n  max_drain_rounds: 6\n")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"dispatch:",
		"  max_drain_rounds: 7",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Dispatch.MaxDrainRounds != 7 {
		t.Fatalf("expected max_drain_rounds to be 7, got %d", res.Config.Dispatch.MaxDrainRounds)
	}
	if res.Config.LogFormat != "json" {
		t.Fatalf("expected log_format from include, got %q", res.Config.LogFormat)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_SharedIncludeMergedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common.yaml"), "log_format: json\ndispatch:\n  max_drain_rounds: 3\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: common.yaml\ndispatch:\n  max_drain_rounds: 4\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: common.yaml\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - a.yaml\n  - b.yaml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// b.yaml must not re-apply common.yaml over a.yaml.
	if res.Config.Dispatch.MaxDrainRounds != 4 {
		t.Fatalf("expected max_drain_rounds 4, got %d", res.Config.Dispatch.MaxDrainRounds)
	}
	var names []string
	for _, f := range res.Files {
		names = append(names, filepath.Base(f))
	}
	if want := "common.yaml a.yaml b.yaml config.yaml"; strings.Join(names, " ") != want {
		t.Fatalf("files = %v, want %s", names, want)
	}
	if src := res.Sources["dispatch.max_drain_rounds"]; filepath.Base(src.File) != "a.yaml" || src.Line != 3 {
		t.Fatalf("max_drain_rounds source = %+v", src)
	}
}

func TestLoadFromPath_IncludeErrorPointsAtEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_format: text\ninclude:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := ":3:5: include"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected %q in %v", want, err)
	}
}

func TestTimerConfig_Repeat(t *testing.T) {
	tests := []struct {
		name        string
		cfg         TimerConfig
		initial     time.Duration
		hasInitial  bool
		interval    time.Duration
		hasInterval bool
	}{
		{"disabled", TimerConfig{}, 0, false, 0, false},
		{"fixed", TimerConfig{InitialMs: 700}, 700 * time.Millisecond, true, 700 * time.Millisecond, true},
		{"pair", TimerConfig{InitialMs: 400, RepeatMs: 40}, 400 * time.Millisecond, true, 40 * time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.cfg.Repeat()
			if d, ok := r.Initial(); d != tt.initial || ok != tt.hasInitial {
				t.Fatalf("Initial() = %v, %v", d, ok)
			}
			if d, ok := r.Interval(); d != tt.interval || ok != tt.hasInterval {
				t.Fatalf("Interval() = %v, %v", d, ok)
			}
		})
	}
}

func TestTimerPolicies_CoversEveryTimer(t *testing.T) {
	policies := DefaultConfig().TimerPolicies()
	for _, name := range timer.Names {
		if _, ok := policies[name]; !ok {
			t.Fatalf("missing policy for %s", name)
		}
	}
}

func TestLoadFromPath_HotkeysMergeAcrossIncludes(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "keys.yaml")
	writeFile(t, extra, strings.Join([]string{
		"hotkeys:",
		"  show_all: Mod4-Shift-w",
		"  quit: Mod4-Shift-q",
		"",
	}, "\n"))
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include: keys.yaml",
		"hotkeys:",
		"  quit: \"\"",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	active := res.Config.ActiveHotkeys()
	if len(active) != 1 || active["show_all"] != "Mod4-Shift-w" {
		t.Fatalf("active hotkeys = %v, want only show_all", active)
	}

	val, src, err := Explain(res, "hotkeys.quit")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "" || src.Kind != SourceFile || filepath.Base(src.File) != "config.yaml" {
		t.Fatalf("explain = %#v from %#v", val, src)
	}
}

func TestValidate_UnknownHotkeyAction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hotkeys = map[string]string{"tile": "Mod4-t"}

	var verr *ValidationError
	if err := cfg.Validate(); !errors.As(err, &verr) || verr.Path != "hotkeys.tile" {
		t.Fatalf("expected hotkeys.tile validation error, got %v", err)
	}
}
