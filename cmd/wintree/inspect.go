package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/wintree/internal/tui"
)

func runInspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path edited on the timers tab (default: ~/.config/wintree/config.yaml)")

	if isHelp(args) {
		fmt.Fprintln(os.Stderr, "Usage: wintree inspect [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive inspector for a running event loop.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab, 1/2  Switch between the windows and timers tabs")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Select a window")
		fmt.Fprintln(os.Stderr, "  v         Toggle visibility of the selected window")
		fmt.Fprintln(os.Stderr, "  x         Send a close request to the selected window")
		fmt.Fprintln(os.Stderr, "  w         Wake the loop")
		fmt.Fprintln(os.Stderr, "  e, s      Edit and save timer settings")
		fmt.Fprintln(os.Stderr, "  r         Refresh now")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
		return 0
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := tui.Run(newClient(), *path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
