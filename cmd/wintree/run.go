package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/wintree/internal/config"
	"github.com/1broseidon/wintree/internal/ipc"
	"github.com/1broseidon/wintree/internal/logging"
	"github.com/1broseidon/wintree/internal/loop"
	"github.com/1broseidon/wintree/internal/runtimepath"
	"github.com/1broseidon/wintree/internal/tree"
	"github.com/1broseidon/wintree/internal/x11"
)

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/wintree/config.yaml)")
	display := fs.String("display", "", "X display to connect to (default: config display, then $DISPLAY)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: wintree run [--path PATH] [--display DISPLAY]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open the demo windows and run the event loop until quit.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *display != "" {
		cfg.Display = *display
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("wintree stopped", "error", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	res, err := loadWithSources(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	lockPath, err := runtimepath.LockPath()
	if err != nil {
		return err
	}
	lock, err := runtimepath.Lock(lockPath)
	if err != nil {
		if errors.Is(err, runtimepath.ErrLocked) {
			return fmt.Errorf("another wintree instance is running")
		}
		return err
	}
	defer lock.Close()

	conn, err := x11.Dial(cfg.Display, logger)
	if err != nil {
		return fmt.Errorf("connect to display: %w", err)
	}
	defer conn.Close()

	windows := tree.New()
	if err := windows.Update(func(tx *tree.Txn) error {
		buildDemo(tx)
		return nil
	}); err != nil {
		return err
	}

	l, err := loop.New(conn, windows, loop.Config{
		Logger:         logger,
		Timers:         cfg.TimerPolicies(),
		MaxDrainRounds: cfg.Dispatch.MaxDrainRounds,
		Hotkeys:        hotkeyActions(logger),
	})
	if err != nil {
		return err
	}
	defer l.Close()

	// A grab fails when another client already owns the combination; the
	// loop still runs without it.
	if err := conn.GrabHotkeys(cfg.ActiveHotkeys()); err != nil {
		logger.Warn("hotkeys unavailable", "error", err)
	}

	if cfg.IPC.Enabled {
		socketPath := cfg.IPC.Socket
		if socketPath == "" {
			if socketPath, err = runtimepath.SocketPath(); err != nil {
				return err
			}
		}
		server, err := ipc.NewServer(l, socketPath, logger)
		if err != nil {
			return fmt.Errorf("create IPC server: %w", err)
		}
		if err := server.Start(); err != nil {
			return fmt.Errorf("start IPC server: %w", err)
		}
		defer server.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go exitOnSignal(sigCh, done, l.Exit, logger)

	logger.Info("entering event loop", "display", cfg.Display)
	return l.Run()
}

// exitOnSignal calls exit on the first signal. It returns without calling
// exit once done is closed.
func exitOnSignal(sigCh <-chan os.Signal, done <-chan struct{}, exit func(), logger *slog.Logger) {
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		exit()
	case <-done:
	}
}
