package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "show":
		os.Exit(runSetVisible("show", true, os.Args[2:]))
	case "hide":
		os.Exit(runSetVisible("hide", false, os.Args[2:]))
	case "close":
		os.Exit(runClose(os.Args[2:]))
	case "wake":
		os.Exit(runSimple("wake", os.Args[2:]))
	case "quit":
		os.Exit(runSimple("quit", os.Args[2:]))
	case "inspect":
		os.Exit(runInspect(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wintree <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Open the demo windows and run the event loop (foreground)")
	fmt.Fprintln(w, "  status              Show event loop status")
	fmt.Fprintln(w, "  windows             List the window tree")
	fmt.Fprintln(w, "  show <index>        Make a window visible")
	fmt.Fprintln(w, "  hide <index>        Hide a window")
	fmt.Fprintln(w, "  close <index>       Send a close request to a window")
	fmt.Fprintln(w, "  wake                Wake the event loop")
	fmt.Fprintln(w, "  quit                Stop the event loop")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  inspect             Open interactive inspector")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'wintree <command> --help' for command-specific options.")
}

func isHelp(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}
