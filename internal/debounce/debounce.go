// Package debounce provides a trailing-edge debouncer.
//
// Every Trigger stops the pending timer and starts a new one, so a burst of
// triggers closer together than the delay runs the function once, after the
// burst settles. When the timer expires the call is handed to a scheduler
// (typically an event loop) rather than run on the timer goroutine.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is used when the delay function returns a negative duration.
const DefaultDelay = 500 * time.Millisecond

// Scheduler hands a function to the goroutine that should run it.
type Scheduler func(func())

// Debouncer coalesces bursts of triggers into one trailing call.
type Debouncer struct {
	fn       func()
	delay    func() time.Duration
	schedule Scheduler

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool
	fired   uint64
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithScheduler sets where the debounced function runs. Without it the
// function runs on the timer goroutine.
func WithScheduler(s Scheduler) Option {
	return func(d *Debouncer) {
		if s != nil {
			d.schedule = s
		}
	}
}

// WithDelayFunc makes the debouncer read its delay at every trigger, so a
// live setting change applies to the next burst.
func WithDelayFunc(f func() time.Duration) Option {
	return func(d *Debouncer) {
		if f != nil {
			d.delay = f
		}
	}
}

// New creates a debouncer calling fn delay after the last trigger.
func New(fn func(), delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		fn:       fn,
		delay:    func() time.Duration { return delay },
		schedule: func(f func()) { f() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger (re)starts the wait window. It is a no-op after Stop.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	delay := d.delay()
	if delay < 0 {
		delay = DefaultDelay
	}

	d.gen++
	gen := d.gen
	d.pending = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, func() {
		d.schedule(func() { d.fire(gen) })
	})
}

// fire runs fn if gen is still the latest trigger and the debouncer has not
// been stopped. A timer that was stopped too late to prevent its callback is
// filtered out here.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.fired++
	d.mu.Unlock()

	d.fn()
}

// Flush runs a pending call immediately, cancelling its timer.
// It returns false if nothing was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = false
	d.fired++
	d.mu.Unlock()

	d.fn()
	return true
}

// Stop cancels any pending call and disables further triggers.
// Stop is idempotent.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending returns true while a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stopped returns true after Stop.
func (d *Debouncer) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// Fired returns how many times fn has been called.
func (d *Debouncer) Fired() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}
