package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/wintree/internal/config"
	"github.com/1broseidon/wintree/internal/ipc"
)

// newClient connects to the socket named in the config, falling back to
// the default runtime socket.
func newClient() *ipc.Client {
	cfg, err := loadConfig("")
	if err != nil {
		return ipc.NewClient()
	}
	return clientFor(cfg)
}

func clientFor(cfg *config.Config) *ipc.Client {
	if cfg.IPC.Socket != "" {
		return ipc.NewClientWithSocket(cfg.IPC.Socket)
	}
	return ipc.NewClient()
}

func newFlagSet(name, usage, desc string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, desc)
	}
	return fs
}

// parseFlags returns -1 when parsing succeeded, otherwise the exit code.
func parseFlags(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	return -1
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "wintree status", "Show event loop status via IPC.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := newClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("running:          %v\n", status.Running)
	fmt.Printf("windows:          %d\n", status.Windows)
	fmt.Printf("platform_windows: %d\n", status.PlatformWindows)
	if status.Focused != nil {
		fmt.Printf("focused:          %d\n", *status.Focused)
	} else {
		fmt.Printf("focused:          -\n")
	}
	fmt.Printf("iterations:       %d\n", status.Iterations)
	fmt.Printf("uptime_seconds:   %d\n", status.UptimeSeconds)
	return 0
}

func runWindows(args []string) int {
	fs := newFlagSet("windows", "wintree windows [--json]", "List the window tree via IPC.")
	jsonOut := fs.Bool("json", false, "Print JSON")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := newClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printWindows(os.Stdout, data.Windows)
	return 0
}

// printWindows writes one line per window, children indented below their
// parent.
func printWindows(w io.Writer, windows []ipc.WindowInfo) {
	byIndex := make(map[uint64]ipc.WindowInfo, len(windows))
	var roots []uint64
	for _, info := range windows {
		byIndex[info.Index] = info
		if info.Parent == nil {
			roots = append(roots, info.Index)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	seen := make(map[uint64]bool, len(windows))
	var walk func(idx uint64, depth int)
	walk = func(idx uint64, depth int) {
		info, ok := byIndex[idx]
		if !ok || seen[idx] {
			return
		}
		seen[idx] = true
		fmt.Fprintf(w, "%s%d\t%s\t%s\n", strings.Repeat("  ", depth), info.Index, windowFlags(info), info.Title)
		for _, child := range info.Children {
			walk(child, depth+1)
		}
	}
	for _, idx := range roots {
		walk(idx, 0)
	}
	for _, info := range windows {
		walk(info.Index, 0)
	}
}

func windowFlags(info ipc.WindowInfo) string {
	flags := []string{"hidden"}
	if info.Visible {
		flags[0] = "visible"
	}
	if info.Focused {
		flags = append(flags, "focused")
	}
	if info.Popup {
		flags = append(flags, "popup")
	}
	if info.Transient {
		flags = append(flags, "transient")
	}
	return strings.Join(flags, ",")
}

func parseIndex(s string) (uint64, error) {
	idx, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window index %q", s)
	}
	return idx, nil
}

func runSetVisible(name string, visible bool, args []string) int {
	fs := newFlagSet(name, "wintree "+name+" <index>", "Change the visibility of a window via IPC.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	idx, err := parseIndex(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := newClient().SetVisible(idx, visible); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runClose(args []string) int {
	fs := newFlagSet("close", "wintree close <index>", "Send a close request to a window via IPC.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	idx, err := parseIndex(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := newClient().CloseWindow(idx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSimple(name string, args []string) int {
	fs := newFlagSet(name, "wintree "+name, "Send "+name+" to the running event loop.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, name+" takes no arguments")
		fs.Usage()
		return 2
	}

	client := newClient()
	var err error
	switch name {
	case "wake":
		err = client.Wake()
	case "quit":
		err = client.Quit()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
