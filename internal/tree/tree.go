// Package tree holds the application-owned window tree: windows keyed by
// stable indices, their parent/child links, the focused index and the set of
// indices waiting for their platform resources to be destroyed.
package tree

import (
	"fmt"
	"slices"
	"sync"
)

// Tree is shared between the main loop and application goroutines. Reads go
// through View, mutations through Update.
type Tree struct {
	mu sync.RWMutex

	windows map[WindowIndex]Window
	next    WindowIndex

	destroy    []WindowIndex
	destroySet map[WindowIndex]struct{}

	focused    WindowIndex
	hasFocused bool
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{
		windows:    make(map[WindowIndex]Window),
		destroySet: make(map[WindowIndex]struct{}),
	}
}

// Update runs fn with the writer lock held.
func (t *Tree) Update(fn func(tx *Txn) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(&Txn{t: t})
}

// View runs fn with a reader lock held. fn must not mutate the tree.
func (t *Tree) View(fn func(tx *Txn) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(&Txn{t: t})
}

// Txn is the handle passed to Update and View callbacks. It is only valid
// for the duration of the callback.
type Txn struct {
	t *Tree
}

// Insert adds w as a root window and returns its new index.
func (tx *Txn) Insert(w Window) WindowIndex {
	tx.t.next++
	idx := tx.t.next
	w.SetParentIndex(0, false)
	tx.t.windows[idx] = w
	return idx
}

// InsertChild adds w below parent.
func (tx *Txn) InsertChild(parent WindowIndex, w Window) (WindowIndex, error) {
	if _, ok := tx.t.windows[parent]; !ok {
		return 0, fmt.Errorf("insert child of %d: %w", parent, ErrNoWindow)
	}
	idx := tx.Insert(w)
	if err := tx.SetParent(idx, parent); err != nil {
		return 0, err
	}
	return idx, nil
}

// Remove deletes a window. Its children become roots, and the index is
// queued for destruction of its platform resources. If the window held the
// focus, the focus moves to its parent.
func (tx *Txn) Remove(idx WindowIndex) error {
	w, ok := tx.t.windows[idx]
	if !ok {
		return fmt.Errorf("remove %d: %w", idx, ErrNoWindow)
	}
	parent, hasParent := w.ParentIndex()
	if hasParent {
		if p, ok := tx.t.windows[parent]; ok {
			p.RemoveChildIndex(idx)
		}
	}
	for _, child := range w.ChildIndices() {
		if c, ok := tx.t.windows[child]; ok {
			c.SetParentIndex(0, false)
		}
	}
	if tx.t.hasFocused && tx.t.focused == idx {
		w.SetFocus(false)
		tx.t.hasFocused = false
		if _, ok := tx.t.windows[parent]; hasParent && ok {
			tx.SetFocused(parent, true)
		}
	}
	delete(tx.t.windows, idx)
	tx.MarkDestroy(idx)
	return nil
}

// Window returns the window at idx.
func (tx *Txn) Window(idx WindowIndex) (Window, bool) {
	w, ok := tx.t.windows[idx]
	return w, ok
}

// Get is Window with an addressing error.
func (tx *Txn) Get(idx WindowIndex) (Window, error) {
	w, ok := tx.t.windows[idx]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", idx, ErrNoWindow)
	}
	return w, nil
}

// Len is the number of windows.
func (tx *Txn) Len() int {
	return len(tx.t.windows)
}

// Indices returns every index in ascending order.
func (tx *Txn) Indices() []WindowIndex {
	out := make([]WindowIndex, 0, len(tx.t.windows))
	for idx := range tx.t.windows {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// Roots returns the indices of windows without a parent, ascending.
func (tx *Txn) Roots() []WindowIndex {
	var out []WindowIndex
	for idx, w := range tx.t.windows {
		if _, ok := w.ParentIndex(); !ok {
			out = append(out, idx)
		}
	}
	slices.Sort(out)
	return out
}

// SetParent moves child below parent, keeping both sides of the link in
// step. Cycles are not prevented here; traversals detect them.
func (tx *Txn) SetParent(child, parent WindowIndex) error {
	c, ok := tx.t.windows[child]
	if !ok {
		return fmt.Errorf("set parent of %d: %w", child, ErrNoWindow)
	}
	p, ok := tx.t.windows[parent]
	if !ok {
		return fmt.Errorf("set parent of %d to %d: %w", child, parent, ErrNoWindow)
	}
	tx.detach(child, c)
	c.SetParentIndex(parent, true)
	p.AddChildIndex(child)
	return nil
}

// ClearParent turns child into a root.
func (tx *Txn) ClearParent(child WindowIndex) error {
	c, ok := tx.t.windows[child]
	if !ok {
		return fmt.Errorf("clear parent of %d: %w", child, ErrNoWindow)
	}
	tx.detach(child, c)
	c.SetParentIndex(0, false)
	return nil
}

func (tx *Txn) detach(idx WindowIndex, w Window) {
	if old, ok := w.ParentIndex(); ok {
		if p, ok := tx.t.windows[old]; ok {
			p.RemoveChildIndex(idx)
		}
	}
}

// Focused returns the index holding the focus.
func (tx *Txn) Focused() (WindowIndex, bool) {
	return tx.t.focused, tx.t.hasFocused
}

// SetFocused moves the focus: the previous holder's flag is cleared before
// the new holder's is set. Passing ok=false clears the focus.
func (tx *Txn) SetFocused(idx WindowIndex, ok bool) {
	if tx.t.hasFocused {
		if old, exists := tx.t.windows[tx.t.focused]; exists {
			old.SetFocus(false)
		}
	}
	tx.t.focused, tx.t.hasFocused = 0, false
	if !ok {
		return
	}
	if w, exists := tx.t.windows[idx]; exists {
		w.SetFocus(true)
		tx.t.focused, tx.t.hasFocused = idx, true
	}
}

// MarkDestroy queues idx for destruction of its platform resources even if
// the window is otherwise unchanged.
func (tx *Txn) MarkDestroy(idx WindowIndex) {
	if _, ok := tx.t.destroySet[idx]; ok {
		return
	}
	tx.t.destroySet[idx] = struct{}{}
	tx.t.destroy = append(tx.t.destroy, idx)
}

// TakeDestroy returns and clears the pending destroy set, in marking order.
func (tx *Txn) TakeDestroy() []WindowIndex {
	out := tx.t.destroy
	tx.t.destroy = nil
	clear(tx.t.destroySet)
	return out
}

// Ancestors walks the parent chain starting at idx (inclusive). It stops at
// a root, at a missing parent (ErrNoWindow) or when an index repeats
// (ErrWindowCycle); the chain collected so far is returned in all cases.
func (tx *Txn) Ancestors(idx WindowIndex) ([]WindowIndex, error) {
	visited := make(map[WindowIndex]struct{})
	var chain []WindowIndex
	cur := idx
	for {
		if _, seen := visited[cur]; seen {
			return chain, fmt.Errorf("ancestors of %d revisit %d: %w", idx, cur, ErrWindowCycle)
		}
		w, ok := tx.t.windows[cur]
		if !ok {
			return chain, fmt.Errorf("ancestors of %d: %d: %w", idx, cur, ErrNoWindow)
		}
		visited[cur] = struct{}{}
		chain = append(chain, cur)
		parent, hasParent := w.ParentIndex()
		if !hasParent {
			return chain, nil
		}
		cur = parent
	}
}
