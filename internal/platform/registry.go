package platform

import (
	"fmt"
	"maps"
	"slices"

	"github.com/1broseidon/wintree/internal/tree"
)

// PlatformWindow is the platform resource backing one visible, non-popup,
// non-transient window.
type PlatformWindow struct {
	Index     tree.WindowIndex
	Surface   Surface
	Config    SurfaceConfig
	Parent    tree.WindowIndex
	HasParent bool

	children map[tree.WindowIndex]struct{}
}

// NewPlatformWindow wraps a freshly created surface.
func NewPlatformWindow(idx tree.WindowIndex, s Surface, cfg SurfaceConfig) *PlatformWindow {
	return &PlatformWindow{
		Index:    idx,
		Surface:  s,
		Config:   cfg,
		children: make(map[tree.WindowIndex]struct{}),
	}
}

// Children returns the recorded child indices, ascending.
func (pw *PlatformWindow) Children() []tree.WindowIndex {
	return slices.Sorted(maps.Keys(pw.children))
}

func (pw *PlatformWindow) AddChild(idx tree.WindowIndex) {
	pw.children[idx] = struct{}{}
}

func (pw *PlatformWindow) RemoveChild(idx tree.WindowIndex) {
	delete(pw.children, idx)
}

func (pw *PlatformWindow) HasChild(idx tree.WindowIndex) bool {
	_, ok := pw.children[idx]
	return ok
}

// Registry maps window indices to their platform windows. It belongs to the
// main loop and is not safe for concurrent use.
type Registry struct {
	windows   map[tree.WindowIndex]*PlatformWindow
	bySurface map[WindowID]tree.WindowIndex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		windows:   make(map[tree.WindowIndex]*PlatformWindow),
		bySurface: make(map[WindowID]tree.WindowIndex),
	}
}

// Add registers pw. At most one platform window may exist per index.
func (r *Registry) Add(pw *PlatformWindow) error {
	if _, exists := r.windows[pw.Index]; exists {
		return fmt.Errorf("platform window for %d already exists", pw.Index)
	}
	r.windows[pw.Index] = pw
	if pw.Surface != nil {
		r.bySurface[pw.Surface.ID()] = pw.Index
	}
	return nil
}

// Get returns the platform window for idx.
func (r *Registry) Get(idx tree.WindowIndex) (*PlatformWindow, bool) {
	pw, ok := r.windows[idx]
	return pw, ok
}

// Remove unregisters and returns the platform window for idx.
func (r *Registry) Remove(idx tree.WindowIndex) (*PlatformWindow, bool) {
	pw, ok := r.windows[idx]
	if !ok {
		return nil, false
	}
	delete(r.windows, idx)
	if pw.Surface != nil {
		delete(r.bySurface, pw.Surface.ID())
	}
	return pw, true
}

// BySurface resolves a surface ID from a notification to its window index.
func (r *Registry) BySurface(id WindowID) (tree.WindowIndex, bool) {
	idx, ok := r.bySurface[id]
	return idx, ok
}

// Len is the number of live platform windows.
func (r *Registry) Len() int {
	return len(r.windows)
}

// Indices returns every registered index, ascending.
func (r *Registry) Indices() []tree.WindowIndex {
	return slices.Sorted(maps.Keys(r.windows))
}
