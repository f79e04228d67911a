package script

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownEngine is returned for an unregistered engine name.
	ErrUnknownEngine = errors.New("unknown snippet engine")

	// ErrEngineClosed is returned when running a program of a closed engine.
	ErrEngineClosed = errors.New("snippet engine closed")

	// ErrTimeout is wrapped by run errors of snippets that exceeded their
	// time limit.
	ErrTimeout = errors.New("snippet timed out")
)

// Phase tells whether a snippet failed to compile or to run.
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseRun     Phase = "run"
)

// Error is a snippet failure.
type Error struct {
	Engine string
	Phase  Phase
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Engine, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CompileError wraps err as a compile failure of engine.
func CompileError(engine string, err error) error {
	return &Error{Engine: engine, Phase: PhaseCompile, Err: err}
}

// RunError wraps err as a runtime failure of engine.
func RunError(engine string, err error) error {
	return &Error{Engine: engine, Phase: PhaseRun, Err: err}
}

// timeoutError wraps err so it matches ErrTimeout.
type timeoutError struct {
	err error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTimeout, e.err)
}

func (e *timeoutError) Unwrap() []error {
	return []error{ErrTimeout, e.err}
}

// RunErrorCtx is RunError that also matches ErrTimeout when ctx hit its
// deadline.
func RunErrorCtx(ctx context.Context, engine string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = &timeoutError{err: err}
	}
	return RunError(engine, err)
}
