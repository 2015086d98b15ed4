// Package dispatch holds the event and callback queues and drains them
// through the window tree, bubbling unhandled events towards the window.
package dispatch

import (
	"sync"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
)

type queuedEvent struct {
	path tree.CallOnPath
	ev   event.Event
}

// Queue buffers events and callbacks. Any goroutine may push; only the main
// loop pops.
type Queue struct {
	mu        sync.Mutex
	events    []queuedEvent
	callbacks []tree.Callback
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// PushEvent appends an event for path.
func (q *Queue) PushEvent(path tree.CallOnPath, ev event.Event) {
	q.mu.Lock()
	q.events = append(q.events, queuedEvent{path: path, ev: ev})
	q.mu.Unlock()
}

// PushCallback appends a deferred callback.
func (q *Queue) PushCallback(cb tree.Callback) {
	q.mu.Lock()
	q.callbacks = append(q.callbacks, cb)
	q.mu.Unlock()
}

// Len returns the number of queued events and callbacks.
func (q *Queue) Len() (events, callbacks int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events), len(q.callbacks)
}

// Empty reports whether both queues are empty.
func (q *Queue) Empty() bool {
	e, c := q.Len()
	return e == 0 && c == 0
}

func (q *Queue) takeEvents() []queuedEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

func (q *Queue) takeCallbacks() []tree.Callback {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.callbacks
	q.callbacks = nil
	return out
}
