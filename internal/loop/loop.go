// Package loop is the single-threaded driver: it waits on the display
// connection and the signal channel, turns notifications into events,
// drains the call queues, reconciles platform windows and finally tears
// down whatever the pass removed.
package loop

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/1broseidon/wintree/internal/dispatch"
	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/platform"
	"github.com/1broseidon/wintree/internal/prep"
	"github.com/1broseidon/wintree/internal/reconcile"
	"github.com/1broseidon/wintree/internal/timer"
	"github.com/1broseidon/wintree/internal/tree"
	"github.com/1broseidon/wintree/internal/wakeup"
)

// ErrConnectionLost is returned when the display connection hangs up.
var ErrConnectionLost = errors.New("display connection lost")

// Config holds loop options.
type Config struct {
	Logger         *slog.Logger
	Timers         map[timer.Name]timer.Repeat
	MaxDrainRounds int

	// Hotkeys maps an action name reported by platform.Hotkey to the
	// callback queued when it fires.
	Hotkeys map[string]tree.Callback
}

// Stats is a snapshot of main-loop state that is safe to read from other
// goroutines.
type Stats struct {
	PlatformWindows int
	Iterations      uint64
}

// Loop owns the platform side of the engine. Everything except Post, Wake,
// PostEvent, Exit and Stats must be called from the goroutine running Run.
type Loop struct {
	conn   platform.Conn
	tree   *tree.Tree
	queue  *dispatch.Queue
	disp   *dispatch.Dispatcher
	prep   *prep.Table
	sync   *reconcile.Synchronizer
	signal *wakeup.Channel
	timers *timer.Service
	logger *slog.Logger

	exit       atomic.Bool
	iterations atomic.Uint64
	platformN  atomic.Int64

	hotkeys   map[string]tree.Callback
	input     inputState
	timerCmds []timer.Command
	dirty     map[tree.WindowIndex]struct{}
}

// New wires the engine around conn and t.
func New(conn platform.Conn, t *tree.Tree, cfg Config) (*Loop, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	signal, err := wakeup.New()
	if err != nil {
		return nil, err
	}
	l := &Loop{
		conn:    conn,
		tree:    t,
		queue:   dispatch.NewQueue(),
		prep:    prep.New(),
		signal:  signal,
		logger:  logger,
		hotkeys: cfg.Hotkeys,
		dirty:   make(map[tree.WindowIndex]struct{}),
	}
	l.disp = dispatch.New(t, l.queue, dispatch.Config{
		Logger:         logger.With("component", "dispatch"),
		MaxDrainRounds: cfg.MaxDrainRounds,
		OnExit:         func() { l.exit.Store(true) },
	})
	l.sync = reconcile.New(conn, platform.NewRegistry(), logger.With("component", "reconcile"))
	l.timers = timer.New(cfg.Timers, signal, logger.With("component", "timer"))
	return l, nil
}

// Tree returns the window tree the loop reconciles.
func (l *Loop) Tree() *tree.Tree {
	return l.tree
}

// Post queues cb and wakes the loop. Safe from any goroutine.
func (l *Loop) Post(cb tree.Callback) error {
	l.queue.PushCallback(cb)
	return l.signal.Wake()
}

// PostEvent queues ev for path and wakes the loop. Safe from any goroutine.
func (l *Loop) PostEvent(path tree.CallOnPath, ev event.Event) error {
	l.queue.PushEvent(path, ev)
	return l.signal.Wake()
}

// Wake sends a generic wakeup: the loop drains the call queues and
// reconciles. Safe from any goroutine.
func (l *Loop) Wake() error {
	return l.signal.Wake()
}

// Exit asks the loop to stop after the current iteration. Safe from any
// goroutine.
func (l *Loop) Exit() {
	l.exit.Store(true)
	if err := l.signal.Wake(); err != nil && !errors.Is(err, wakeup.ErrClosed) {
		l.logger.Warn("exit wakeup failed", "error", err)
	}
}

// Close releases the signal channel of a loop whose Run was never called.
// It is a no-op once Run has returned and safe to call more than once.
// Posting to a closed loop returns wakeup.ErrClosed.
func (l *Loop) Close() error {
	return l.signal.Close()
}

// Stats returns a snapshot of loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		PlatformWindows: int(l.platformN.Load()),
		Iterations:      l.iterations.Load(),
	}
}

// Run drives the loop until Exit is called or a fatal fault occurs. Platform
// windows are torn down and the timer goroutine joined before it returns.
// The caller keeps ownership of the connection.
func (l *Loop) Run() (err error) {
	l.timers.Start()
	defer func() {
		l.shutdown(&err)
	}()

	l.reconcile()

	pollfds := []unix.PollFd{
		{Fd: int32(l.conn.Fd()), Events: unix.POLLIN},
		{Fd: int32(l.signal.Fd()), Events: unix.POLLIN},
	}
	connFd, signalFd := &pollfds[0], &pollfds[1]

	for {
		l.iterations.Add(1)

		connFd.Events &^= unix.POLLOUT
		if err := l.conn.Flush(); err != nil {
			if !errors.Is(err, platform.ErrWouldBlock) {
				return fmt.Errorf("flush: %w", err)
			}
			connFd.Events |= unix.POLLOUT
		}

		connFd.Revents, signalFd.Revents = 0, 0
		if _, err := unix.Poll(pollfds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}

		switch {
		case connFd.Revents&unix.POLLIN != 0:
			if err := l.conn.Dispatch(l); err != nil {
				return fmt.Errorf("dispatch: %w", err)
			}
		case connFd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0:
			return ErrConnectionLost
		}

		if signalFd.Revents&(unix.POLLIN|unix.POLLHUP) != 0 {
			if err := l.handleSignals(); err != nil {
				return err
			}
		}

		if err := l.flushTimers(); err != nil {
			return err
		}
		select {
		case <-l.timers.Done():
			return fmt.Errorf("timer service exited: %w", l.timers.Err())
		default:
		}

		if n := l.sync.Teardown(); n > 0 {
			l.logger.Debug("tore down platform windows", "count", n)
		}
		l.platformN.Store(int64(l.sync.Registry().Len()))

		if l.exit.Load() {
			return nil
		}
	}
}

func (l *Loop) shutdown(errp *error) {
	destroyed := l.sync.DestroyAll()
	l.platformN.Store(0)
	if err := l.timers.Stop(); err != nil && *errp == nil {
		*errp = fmt.Errorf("timer service: %w", err)
	}
	if err := l.signal.Close(); err != nil {
		l.logger.Warn("closing signal channel", "error", err)
	}
	if *errp != nil {
		l.logger.Error("main loop stopped", "error", *errp, "destroyed", destroyed)
		return
	}
	l.logger.Info("main loop stopped", "destroyed", destroyed)
}

// handleSignals drains the signal channel: every distinct timer runs its
// repeat action once, any other byte drains the call queues.
func (l *Loop) handleSignals() error {
	pending, err := l.signal.Drain()
	if err != nil {
		return fmt.Errorf("signal channel: %w", err)
	}
	fired := make(map[timer.Name]bool)
	other := false
	for _, b := range pending {
		if name, ok := timer.FromByte(b); ok {
			fired[name] = true
			continue
		}
		other = true
	}
	for _, name := range timer.Names {
		if !fired[name] {
			continue
		}
		l.repeat(name)
		l.disp.Drain()
		l.reconcile()
	}
	if other {
		l.disp.Drain()
		l.reconcile()
	}
	l.redraw()
	return nil
}

func (l *Loop) reconcile() {
	var stats reconcile.Stats
	_ = l.tree.Update(func(tx *tree.Txn) error {
		stats = l.sync.Reconcile(tx)
		return nil
	})
	if stats.Changed() {
		l.logger.Debug("reconciled",
			"created", stats.Created,
			"updated", stats.Updated,
			"destroyed", stats.Destroyed,
			"faults", len(stats.Faults))
	}
	if stats.Created > 0 || stats.Updated > 0 {
		for _, idx := range l.sync.Registry().Indices() {
			l.dirty[idx] = struct{}{}
		}
	}
	l.platformN.Store(int64(l.sync.Registry().Len()))
}

// redraw repaints every window marked dirty that still has a surface.
func (l *Loop) redraw() {
	if len(l.dirty) == 0 {
		return
	}
	registry := l.sync.Registry()
	_ = l.tree.View(func(tx *tree.Txn) error {
		for idx := range l.dirty {
			pw, ok := registry.Get(idx)
			if !ok {
				continue
			}
			w, ok := tx.Window(idx)
			if !ok {
				continue
			}
			if err := pw.Surface.Draw(w.Draw); err != nil {
				l.logger.Warn("draw failed", "index", idx, "error", err)
			}
		}
		return nil
	})
	clear(l.dirty)
}

func (l *Loop) flushTimers() error {
	cmds := l.timerCmds
	l.timerCmds = nil
	for _, cmd := range cmds {
		if err := l.timers.Send(cmd); err != nil {
			return fmt.Errorf("timer command: %w", err)
		}
	}
	return nil
}
