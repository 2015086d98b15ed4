// Package prep turns raw "input at position P in window W" notifications
// into addressable targets and remembers them per input source, so motion,
// release and timer replays reach the same recipient.
package prep

import (
	"errors"
	"fmt"

	"github.com/1broseidon/wintree/internal/event"
	"github.com/1broseidon/wintree/internal/tree"
)

// ErrNoEntry is returned for a source with no preceding Begin.
var ErrNoEntry = errors.New("no event preparation for source")

// SourceKind distinguishes the pointer from touch points.
type SourceKind uint8

const (
	PointerSource SourceKind = iota
	TouchSource
)

// Source identifies one input source.
type Source struct {
	Kind SourceKind
	ID   int32
}

// Pointer is the single pointer source.
var Pointer = Source{Kind: PointerSource}

// Touch returns the source for touch point id.
func Touch(id int32) Source {
	return Source{Kind: TouchSource, ID: id}
}

func (s Source) String() string {
	if s.Kind == PointerSource {
		return "pointer"
	}
	return fmt.Sprintf("touch %d", s.ID)
}

type entry struct {
	window tree.WindowIndex
	pos    event.Pos
	path   tree.CallOnPath
	anchor event.Pos
	locked bool
}

// hitPos is the position used for hit-testing: the anchor while locked.
func (e *entry) hitPos() event.Pos {
	if e.locked {
		return e.anchor
	}
	return e.pos
}

// Table holds at most one entry per source. It is used from the main loop
// only.
type Table struct {
	entries map[Source]*entry
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[Source]*entry)}
}

// Begin hit-tests pos in window and records the result for src, replacing
// any previous entry.
func (t *Table) Begin(tx *tree.Txn, src Source, window tree.WindowIndex, pos event.Pos) (tree.CallOnPath, event.Pos, error) {
	e := &entry{window: window, pos: pos}
	path, err := hitTest(tx, window, pos)
	e.path = path
	t.entries[src] = e
	return path, pos, err
}

// Move records a new position for src. While locked the path is resolved
// at the anchor instead of pos; the returned position is always pos.
func (t *Table) Move(tx *tree.Txn, src Source, pos event.Pos) (tree.CallOnPath, event.Pos, error) {
	e, ok := t.entries[src]
	if !ok {
		return tree.CallOnPath{}, pos, fmt.Errorf("move %s: %w", src, ErrNoEntry)
	}
	e.pos = pos
	if e.locked {
		return e.path, pos, nil
	}
	path, err := hitTest(tx, e.window, pos)
	e.path = path
	return path, pos, err
}

// Refresh re-validates the recorded path after the tree changed. A widget
// path that no longer resolves is replaced by a fresh hit-test.
func (t *Table) Refresh(tx *tree.Txn, src Source) (tree.CallOnPath, event.Pos, error) {
	e, ok := t.entries[src]
	if !ok {
		return tree.CallOnPath{}, event.Pos{}, fmt.Errorf("refresh %s: %w", src, ErrNoEntry)
	}
	w, err := tx.Get(e.window)
	if err != nil {
		return e.path, e.pos, err
	}
	if e.path.IsWidget() {
		if _, ok := w.Widget(e.path.Pairs); ok {
			return e.path, e.pos, nil
		}
	}
	path, err := hitTest(tx, e.window, e.hitPos())
	e.path = path
	return path, e.pos, err
}

// End removes the entry for src and returns its last path and position.
func (t *Table) End(src Source) (tree.CallOnPath, event.Pos, bool) {
	e, ok := t.entries[src]
	if !ok {
		return tree.CallOnPath{}, event.Pos{}, false
	}
	delete(t.entries, src)
	return e.path, e.pos, true
}

// Lock anchors src at its current position.
func (t *Table) Lock(src Source) error {
	e, ok := t.entries[src]
	if !ok {
		return fmt.Errorf("lock %s: %w", src, ErrNoEntry)
	}
	e.anchor = e.pos
	e.locked = true
	return nil
}

// Unlock clears the anchor of src.
func (t *Table) Unlock(src Source) error {
	e, ok := t.entries[src]
	if !ok {
		return fmt.Errorf("unlock %s: %w", src, ErrNoEntry)
	}
	e.locked = false
	return nil
}

// Lookup returns the recorded path and position of src without changing it.
func (t *Table) Lookup(src Source) (tree.CallOnPath, event.Pos, bool) {
	e, ok := t.entries[src]
	if !ok {
		return tree.CallOnPath{}, event.Pos{}, false
	}
	return e.path, e.pos, true
}

// Window returns the window src is over.
func (t *Table) Window(src Source) (tree.WindowIndex, bool) {
	e, ok := t.entries[src]
	if !ok {
		return 0, false
	}
	return e.window, true
}

// Len is the number of active sources.
func (t *Table) Len() int {
	return len(t.entries)
}

func hitTest(tx *tree.Txn, window tree.WindowIndex, pos event.Pos) (tree.CallOnPath, error) {
	w, err := tx.Get(window)
	if err != nil {
		return tree.WindowPath(window), err
	}
	pairs, ok := w.Point(pos)
	if !ok {
		return tree.WindowPath(window), nil
	}
	return tree.WidgetPath(window, pairs...), nil
}
