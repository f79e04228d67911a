package plugin

// State represents the lifecycle state of a plugin.
type State int

// Plugin states.
const (
	// StateUnloaded - Load has not been called.
	StateUnloaded State = iota

	// StateLoading - Load is reading settings and building engines.
	StateLoading

	// StateActive - views are being hooked.
	StateActive

	// StateUnloading - teardown actions are running.
	StateUnloading

	// StateClosed - Unload finished. The plugin cannot be loaded again.
	StateClosed

	// StateError - Load failed.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateUnloading:
		return "unloading"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsActive returns true if the plugin reacts to activation events.
func (s State) IsActive() bool {
	return s == StateActive
}
