// Package loop provides the single logical thread the decoration engine runs on.
//
// Document trees are not goroutine-safe. Every DOM mutation, observer delivery,
// debounced decoration pass and host activation event is posted to a Loop and
// executed, one task at a time and to completion, on the goroutine that calls
// Run.
//
// Usage:
//
//	l := loop.New(loop.WithQueueSize(256))
//	go l.Run(ctx)
//	defer l.Close()
//
//	// From any goroutine:
//	err := l.Do(ctx, func() {
//	    container.AddClass("base-styled-x")
//	})
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dshills/basestyle/internal/logging"
)

// ErrClosed is returned when posting to a closed loop.
var ErrClosed = errors.New("event loop is closed")

// Task is a unit of work executed on the loop goroutine.
type Task func()

// Loop serializes tasks through a single goroutine.
type Loop struct {
	queue  chan Task
	done   chan struct{}
	closed atomic.Bool

	closeOnce sync.Once
	running   atomic.Bool
	logger    *logging.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets how many tasks may be buffered before Post blocks.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan Task, n)
		}
	}
}

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loop. Run must be called for tasks to execute.
func New(opts ...Option) *Loop {
	l := &Loop{
		queue:  make(chan Task, 128),
		done:   make(chan struct{}),
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes tasks until ctx is cancelled or Close is called.
// Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case task := <-l.queue:
			l.execute(task)
		}
	}
}

// execute runs a task with panic recovery so one failing task cannot stop
// the loop.
func (l *Loop) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panic: %v", r)
		}
	}()
	task()
}

// Post queues a task without waiting for it to run.
func (l *Loop) Post(task Task) error {
	if task == nil {
		return nil
	}
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case <-l.done:
		return ErrClosed
	case l.queue <- task:
		return nil
	}
}

// Schedule is Post without the error, for callers that only need a
// func(func()) scheduler. Tasks posted after Close are dropped.
func (l *Loop) Schedule(task func()) {
	_ = l.Post(task)
}

// Do queues a task and waits until it has run or ctx is done.
// A panic inside the task is returned as an error.
func (l *Loop) Do(ctx context.Context, task Task) error {
	result := make(chan error, 1)
	err := l.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("task panic: %v", r)
			}
		}()
		task()
		result <- nil
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The task may have completed right before Close.
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	case err := <-result:
		return err
	}
}

// Close stops the loop. Pending tasks are not executed.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// IsClosed returns true if the loop has been closed.
func (l *Loop) IsClosed() bool {
	return l.closed.Load()
}
