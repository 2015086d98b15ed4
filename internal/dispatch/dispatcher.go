package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
)

// DefaultMaxDrainRounds is the number of drain rounds after which Drain
// starts warning about handlers that keep queueing work.
const DefaultMaxDrainRounds = 64

// Config holds dispatcher options.
type Config struct {
	Logger *slog.Logger
	// MaxDrainRounds only controls the warning; Drain never gives up.
	MaxDrainRounds int
	// OnExit is called when a handler asks the loop to stop.
	OnExit func()
}

// Dispatcher delivers events to windows and widgets. It runs on the main
// loop only.
type Dispatcher struct {
	tree      *tree.Tree
	queue     *Queue
	logger    *slog.Logger
	maxRounds int
	onExit    func()

	current    tree.CallOnPath
	hasCurrent bool
}

var _ tree.Emitter = (*Dispatcher)(nil)

// New returns a dispatcher draining q into t.
func New(t *tree.Tree, q *Queue, cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRounds := cfg.MaxDrainRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxDrainRounds
	}
	return &Dispatcher{
		tree:      t,
		queue:     q,
		logger:    logger,
		maxRounds: maxRounds,
		onExit:    cfg.OnExit,
	}
}

// PushEvent implements tree.Emitter.
func (d *Dispatcher) PushEvent(path tree.CallOnPath, ev event.Event) {
	d.queue.PushEvent(path, ev)
}

// PushCallback implements tree.Emitter.
func (d *Dispatcher) PushCallback(cb tree.Callback) {
	d.queue.PushCallback(cb)
}

// Exit implements tree.Emitter.
func (d *Dispatcher) Exit() {
	if d.onExit != nil {
		d.onExit()
	}
}

// Current returns the path being dispatched to, if any.
func (d *Dispatcher) Current() (tree.CallOnPath, bool) {
	return d.current, d.hasCurrent
}

// DispatchOne invokes the handler at path with the tree's writer lock held.
// A nil event means the handler stopped propagation.
func (d *Dispatcher) DispatchOne(path tree.CallOnPath, ev event.Event) (event.Event, error) {
	var next event.Event
	err := d.tree.Update(func(tx *tree.Txn) error {
		recipient, err := resolve(tx, path)
		if err != nil {
			return err
		}
		next, err = recipient.HandleEvent(&tree.Context{Tx: tx, Path: path, Emit: d}, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// DispatchWithPropagation delivers ev at path and bubbles whatever the
// handler returns to the parent path, stopping at window level, when a
// handler returns no event, or on a fault. It returns the number of handlers
// invoked.
func (d *Dispatcher) DispatchWithPropagation(path tree.CallOnPath, ev event.Event) int {
	defer func() {
		d.current, d.hasCurrent = tree.CallOnPath{}, false
	}()

	invoked := 0
	for {
		d.current, d.hasCurrent = path, true
		next, err := d.DispatchOne(path, ev)
		invoked++
		if err != nil {
			d.logFault(path, ev, err)
			return invoked
		}
		if next == nil {
			return invoked
		}
		parent, ok := path.Parent()
		if !ok {
			return invoked
		}
		path, ev = parent, next
	}
}

// RunCallback invokes cb with the tree's writer lock held.
func (d *Dispatcher) RunCallback(cb tree.Callback) {
	err := d.tree.Update(func(tx *tree.Txn) error {
		return cb(&tree.Context{Tx: tx, Emit: d})
	})
	if err != nil {
		d.logger.Warn("callback failed", "error", err)
	}
}

// Drain empties both queues. Each round first handles every event queued at
// its start, then every queued callback; rounds repeat while handlers keep
// queueing work.
func (d *Dispatcher) Drain() {
	for round := 1; !d.queue.Empty(); round++ {
		if round == d.maxRounds+1 {
			d.logger.Warn("call queues still busy", "rounds", d.maxRounds)
		}
		for _, qe := range d.queue.takeEvents() {
			d.DispatchWithPropagation(qe.path, qe.ev)
		}
		for _, cb := range d.queue.takeCallbacks() {
			d.RunCallback(cb)
		}
	}
}

func (d *Dispatcher) logFault(path tree.CallOnPath, ev event.Event, err error) {
	level := slog.LevelError
	if errors.Is(err, tree.ErrNoWindow) || errors.Is(err, tree.ErrNoWidget) {
		level = slog.LevelWarn
	}
	d.logger.Log(context.Background(), level, "event handler failed",
		"path", path.String(),
		"event", ev.EventName(),
		"error", err)
}

func resolve(tx *tree.Txn, path tree.CallOnPath) (tree.Widget, error) {
	w, err := tx.Get(path.Window)
	if err != nil {
		return nil, err
	}
	if !path.IsWidget() {
		return w, nil
	}
	widget, ok := w.Widget(path.Pairs)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, tree.ErrNoWidget)
	}
	return widget, nil
}
