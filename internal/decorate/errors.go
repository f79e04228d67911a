package decorate

import (
	"errors"
	"fmt"
)

// ErrNoEngine is the fault of a computed rule whose engine is unknown.
var ErrNoEngine = errors.New("no snippet engine")

// ComputationFault is a snippet that failed to compile or run for a cell.
// The cell gets no classes from the rule.
type ComputationFault struct {
	Property string
	Engine   string
	Err      error
}

// Error returns the message shown to the user.
func (f *ComputationFault) Error() string {
	return fmt.Sprintf("Error in snippet for %s: %v", f.Property, f.Err)
}

// Unwrap returns the snippet error.
func (f *ComputationFault) Unwrap() error {
	return f.Err
}

// PolicyViolation is a candidate class rejected for lacking the prefix.
type PolicyViolation struct {
	Property string
	Class    string
	Prefix   string
}

// Error returns the message shown to the user.
func (v *PolicyViolation) Error() string {
	return fmt.Sprintf("Invalid class name %q for %s. Classes must start with %q (prefix can be changed in settings)",
		v.Class, v.Property, v.Prefix)
}
