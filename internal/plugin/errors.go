package plugin

import "errors"

// Plugin errors.
var (
	// ErrAlreadyLoaded is returned when Load is called twice.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrNotLoaded is returned when an operation needs a loaded plugin.
	ErrNotLoaded = errors.New("plugin is not loaded")

	// ErrClosed is returned after Unload.
	ErrClosed = errors.New("plugin is closed")
)
