// Package reconcile keeps the platform window registry in step with the
// window tree: it moves focus, collects platform windows whose tree entry
// went away, creates or updates the ones that should exist, and defers the
// actual teardown until the current dispatch cycle has finished.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/wintree/internal/platform"
	"github.com/1broseidon/wintree/internal/tree"
)

// Batch is a set of platform windows removed together, in pre-order: every
// window appears before its descendants.
type Batch []*platform.PlatformWindow

// Stats describes one reconcile pass.
type Stats struct {
	Created   int
	Updated   int
	Destroyed int
	// Faults collects the non-fatal faults of the pass. They have already
	// been logged.
	Faults []error
}

// Changed reports whether the pass touched any platform window.
func (s Stats) Changed() bool {
	return s.Created+s.Updated+s.Destroyed > 0
}

// Synchronizer owns the registry on behalf of the main loop.
type Synchronizer struct {
	conn     platform.Conn
	registry *platform.Registry
	logger   *slog.Logger
	deferred []Batch
}

// New returns a synchronizer creating surfaces on conn.
func New(conn platform.Conn, registry *platform.Registry, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		conn:     conn,
		registry: registry,
		logger:   logger,
	}
}

// Registry returns the registry being reconciled.
func (s *Synchronizer) Registry() *platform.Registry {
	return s.registry
}

// Pending returns the number of batches waiting for Teardown.
func (s *Synchronizer) Pending() int {
	return len(s.deferred)
}

// pass carries the per-call state of Reconcile.
type pass struct {
	s         *Synchronizer
	tx        *tree.Txn
	stats     Stats
	destroyed map[tree.WindowIndex]struct{}
	batch     Batch
}

func (p *pass) fault(err error, msg string, args ...any) {
	p.stats.Faults = append(p.stats.Faults, err)
	p.s.logger.Warn(msg, append(args, "error", err)...)
}

// Reconcile aligns the registry with the tree. The caller holds the tree's
// writer lock through tx.
func (s *Synchronizer) Reconcile(tx *tree.Txn) Stats {
	p := &pass{
		s:         s,
		tx:        tx,
		destroyed: make(map[tree.WindowIndex]struct{}),
	}
	p.focus()
	p.destroy()
	p.refocus()
	p.createOrUpdate()
	if len(p.batch) > 0 {
		s.deferred = append(s.deferred, p.batch)
	}
	p.stats.Destroyed = len(p.batch)
	return p.stats
}

// focus moves the focus to the deepest focusable descendant of the current
// holder.
func (p *pass) focus() {
	focused, ok := p.tx.Focused()
	if !ok {
		return
	}
	if _, exists := p.tx.Window(focused); !exists {
		p.tx.SetFocused(0, false)
		return
	}
	if target, found := p.deepestFocusable(focused, nil); found && target != focused {
		p.tx.SetFocused(target, true)
	}
}

// deepestFocusable walks start's subtree depth-first in pre-order. Subtrees
// whose root satisfies skip are left out. A focusable node replaces the
// candidate only when strictly deeper, so the first node visited at the
// maximum depth wins.
func (p *pass) deepestFocusable(start tree.WindowIndex, skip func(tree.WindowIndex, tree.Window) bool) (tree.WindowIndex, bool) {
	var (
		best      tree.WindowIndex
		bestDepth = -1
		visited   = make(map[tree.WindowIndex]struct{})
	)
	var walk func(idx tree.WindowIndex, depth int)
	walk = func(idx tree.WindowIndex, depth int) {
		if _, seen := visited[idx]; seen {
			p.fault(fmt.Errorf("focus search from %d revisits %d: %w", start, idx, tree.ErrWindowCycle),
				"reconcile: window cycle", "index", idx)
			return
		}
		visited[idx] = struct{}{}
		w, ok := p.tx.Window(idx)
		if !ok {
			p.fault(fmt.Errorf("focus search: %d: %w", idx, tree.ErrNoWindow),
				"reconcile: missing window", "index", idx)
			return
		}
		if skip != nil && skip(idx, w) {
			return
		}
		if w.IsFocusable() && depth > bestDepth {
			best, bestDepth = idx, depth
		}
		for _, child := range w.ChildIndices() {
			walk(child, depth+1)
		}
	}
	walk(start, 0)
	return best, bestDepth >= 0
}

// destroy collects every platform window whose tree entry vanished, became
// ineligible, changed parent or was marked for destruction, together with
// all of its platform descendants.
func (p *pass) destroy() {
	marked := make(map[tree.WindowIndex]struct{})
	for _, idx := range p.tx.TakeDestroy() {
		marked[idx] = struct{}{}
	}
	visited := make(map[tree.WindowIndex]struct{})
	for _, idx := range p.s.registry.Indices() {
		pw, ok := p.s.registry.Get(idx)
		if !ok {
			continue
		}
		if reason := p.staleReason(pw, marked); reason != "" {
			p.s.logger.Debug("reconcile: destroying platform window", "index", idx, "reason", reason)
			p.collect(idx, visited)
		}
	}
}

func (p *pass) staleReason(pw *platform.PlatformWindow, marked map[tree.WindowIndex]struct{}) string {
	if _, ok := marked[pw.Index]; ok {
		return "marked"
	}
	w, ok := p.tx.Window(pw.Index)
	switch {
	case !ok:
		return "removed"
	case !w.IsVisible():
		return "hidden"
	case w.IsPopup() || w.IsTransient():
		return "popup"
	}
	parent, hasParent := w.ParentIndex()
	if hasParent != pw.HasParent || parent != pw.Parent {
		return "reparented"
	}
	return ""
}

// collect removes idx and its descendants from the registry, pre-order.
func (p *pass) collect(idx tree.WindowIndex, visited map[tree.WindowIndex]struct{}) {
	if _, seen := visited[idx]; seen {
		p.fault(fmt.Errorf("destroy revisits %d: %w", idx, tree.ErrWindowCycle),
			"reconcile: window cycle", "index", idx)
		return
	}
	visited[idx] = struct{}{}
	pw, ok := p.s.registry.Remove(idx)
	if !ok {
		return
	}
	if pw.HasParent {
		if parent, ok := p.s.registry.Get(pw.Parent); ok {
			parent.RemoveChild(idx)
		}
	}
	p.destroyed[idx] = struct{}{}
	p.batch = append(p.batch, pw)
	for _, child := range pw.Children() {
		p.collect(child, visited)
	}
}

// refocus re-resolves the focus when its ancestor chain lost a platform
// window. The search restarts at the nearest surviving ancestor and leaves
// out every window destroyed or made ineligible in this pass. If nothing
// qualifies the focus is cleared.
func (p *pass) refocus() {
	if len(p.destroyed) == 0 {
		return
	}
	focused, ok := p.tx.Focused()
	if !ok {
		return
	}
	chain, err := p.tx.Ancestors(focused)
	if err != nil {
		p.fault(err, "reconcile: focus chain", "index", focused)
	}
	top := -1
	for i, idx := range chain {
		if _, gone := p.destroyed[idx]; gone {
			top = i
		}
	}
	if top < 0 {
		return
	}
	if top+1 >= len(chain) {
		p.tx.SetFocused(0, false)
		return
	}
	gone := func(idx tree.WindowIndex, w tree.Window) bool {
		if _, destroyed := p.destroyed[idx]; destroyed {
			return true
		}
		return !eligible(w)
	}
	if target, found := p.deepestFocusable(chain[top+1], gone); found {
		p.tx.SetFocused(target, true)
		return
	}
	p.tx.SetFocused(0, false)
}

func eligible(w tree.Window) bool {
	return w.IsVisible() && !w.IsPopup() && !w.IsTransient()
}

// createOrUpdate walks every eligible root depth-first.
func (p *pass) createOrUpdate() {
	visited := make(map[tree.WindowIndex]struct{})
	for _, root := range p.tx.Roots() {
		w, ok := p.tx.Window(root)
		if !ok || !eligible(w) {
			continue
		}
		p.sync(root, nil, visited)
	}
	p.detectCycles(visited)
}

func (p *pass) sync(idx tree.WindowIndex, parent *platform.PlatformWindow, visited map[tree.WindowIndex]struct{}) {
	if _, seen := visited[idx]; seen {
		p.fault(fmt.Errorf("create revisits %d: %w", idx, tree.ErrWindowCycle),
			"reconcile: window cycle", "index", idx)
		return
	}
	visited[idx] = struct{}{}
	w, ok := p.tx.Window(idx)
	if !ok {
		p.fault(fmt.Errorf("create: %d: %w", idx, tree.ErrNoWindow),
			"reconcile: missing window", "index", idx)
		return
	}

	cfg := platform.SurfaceConfig{Title: w.Title(), Size: w.Size()}
	if parent != nil {
		cfg.Parent, cfg.HasParent = parent.Surface.ID(), true
	}

	pw, exists := p.s.registry.Get(idx)
	switch {
	case !exists:
		surface, err := p.s.conn.CreateSurface(cfg)
		if err != nil {
			p.fault(fmt.Errorf("create surface for %d: %w", idx, err),
				"reconcile: create failed", "index", idx)
			return
		}
		pw = platform.NewPlatformWindow(idx, surface, cfg)
		if parent != nil {
			pw.Parent, pw.HasParent = parent.Index, true
		}
		if err := p.s.registry.Add(pw); err != nil {
			p.fault(err, "reconcile: register failed", "index", idx)
			return
		}
		p.stats.Created++
	case pw.Config != cfg:
		if err := pw.Surface.Configure(cfg); err != nil {
			p.fault(fmt.Errorf("configure surface for %d: %w", idx, err),
				"reconcile: update failed", "index", idx)
			return
		}
		pw.Config = cfg
		p.stats.Updated++
	}
	if parent != nil {
		parent.AddChild(idx)
	}

	for _, child := range w.ChildIndices() {
		cw, ok := p.tx.Window(child)
		if !ok {
			p.fault(fmt.Errorf("child of %d: %d: %w", idx, child, tree.ErrNoWindow),
				"reconcile: missing window", "index", child)
			continue
		}
		if eligible(cw) {
			p.sync(child, pw, visited)
		}
	}
}

// detectCycles reports windows cut off from every root by a parent cycle.
// Such windows are never reached from a root, so the walk above cannot see
// them.
func (p *pass) detectCycles(reached map[tree.WindowIndex]struct{}) {
	for _, idx := range p.tx.Indices() {
		if _, ok := reached[idx]; ok {
			continue
		}
		chain, err := p.tx.Ancestors(idx)
		for _, member := range chain {
			reached[member] = struct{}{}
		}
		if errors.Is(err, tree.ErrWindowCycle) {
			p.fault(err, "reconcile: window cycle", "index", idx)
		}
	}
}

// Teardown destroys every deferred batch, children before parents. It
// returns the number of platform windows destroyed.
func (s *Synchronizer) Teardown() int {
	n := 0
	for len(s.deferred) > 0 {
		batch := s.deferred[0]
		s.deferred = s.deferred[1:]
		n += s.destroyBatch(batch)
	}
	return n
}

// DestroyAll tears down the deferred batches and then every live platform
// window. Used when the loop exits.
func (s *Synchronizer) DestroyAll() int {
	n := s.Teardown()
	var batch Batch
	visited := make(map[tree.WindowIndex]struct{})
	var walk func(idx tree.WindowIndex)
	walk = func(idx tree.WindowIndex) {
		if _, seen := visited[idx]; seen {
			return
		}
		visited[idx] = struct{}{}
		pw, ok := s.registry.Remove(idx)
		if !ok {
			return
		}
		batch = append(batch, pw)
		for _, child := range pw.Children() {
			walk(child)
		}
	}
	for _, idx := range s.registry.Indices() {
		if pw, ok := s.registry.Get(idx); ok && !pw.HasParent {
			walk(idx)
		}
	}
	for _, idx := range s.registry.Indices() {
		walk(idx)
	}
	return n + s.destroyBatch(batch)
}

func (s *Synchronizer) destroyBatch(batch Batch) int {
	for i := len(batch) - 1; i >= 0; i-- {
		pw := batch[i]
		if err := pw.Surface.Destroy(); err != nil {
			s.logger.Warn("teardown: destroy failed", "index", pw.Index, "error", err)
		}
	}
	return len(batch)
}
