package dom

import "errors"

// Errors for document operations.
var (
	// ErrNoTarget is returned when observing or mutating a zero Element.
	ErrNoTarget = errors.New("element is zero")

	// ErrInvalidOptions is returned when observe options select no mutation type.
	ErrInvalidOptions = errors.New("observe options must select child list, character data or attributes")

	// ErrForeignNode is returned when a node from another document is inserted.
	ErrForeignNode = errors.New("node belongs to another document")

	// ErrNotChild is returned when removing a node from a parent it does not belong to.
	ErrNotChild = errors.New("node is not a child of this element")

	// ErrAttached is returned when inserting a node that already has a parent.
	ErrAttached = errors.New("node already has a parent")
)
