package settings

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected edits and unreadable files.
var (
	// ErrInvalidNumber is returned when a numeric setting cannot be parsed.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrEmptyPrefix is returned when the class prefix would become empty.
	ErrEmptyPrefix = errors.New("class prefix must not be empty")

	// ErrInvalidClasses is returned when a static template contains entries
	// not starting with the placeholder.
	ErrInvalidClasses = errors.New("invalid class template")

	// ErrInvalidMode is returned for an unknown rule mode.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrUnknownEngine is returned for an unregistered snippet engine.
	ErrUnknownEngine = errors.New("unknown snippet engine")

	// ErrColumnIndex is returned when an edit names a column that does not exist.
	ErrColumnIndex = errors.New("column index out of range")

	// ErrUnsupportedFormat is returned for a settings file with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported settings format")

	// ErrStoreClosed is returned when the store has been closed.
	ErrStoreClosed = errors.New("settings store closed")
)

// InputError is a rejected configuration edit.
type InputError struct {
	// Field names the setting being edited, e.g. "debounceTime" or "columns[2].cssClasses".
	Field string
	// Input is the raw value the user supplied.
	Input string
	// Message is the user-facing text.
	Message string
	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
