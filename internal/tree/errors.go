package tree

import "errors"

var (
	// ErrNoWindow is returned when no window exists at an index.
	ErrNoWindow = errors.New("no window at index")
	// ErrNoWidget is returned when a widget path does not resolve.
	ErrNoWidget = errors.New("no widget at path")
	// ErrWindowCycle is returned when a traversal visits a window twice.
	ErrWindowCycle = errors.New("window cycle detected")
)
