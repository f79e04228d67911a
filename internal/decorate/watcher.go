package decorate

import (
	"sync"
	"time"

	"github.com/dshills/basestyle/internal/debounce"
	"github.com/dshills/basestyle/internal/dom"
	"github.com/dshills/basestyle/internal/logging"
	"github.com/dshills/basestyle/internal/settings"
)

// Lifecycle accepts teardown actions to run when the owner shuts down.
type Lifecycle interface {
	Register(cleanup func())
}

// State is a container's position in the watcher state machine.
type State int

const (
	// StateUnattached: the container was never attached.
	StateUnattached State = iota
	// StateIdle: attached, no pass pending.
	StateIdle
	// StatePending: attached, a debounced pass is waiting.
	StatePending
	// StateDisconnected: torn down. Final.
	StateDisconnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// watchedAttributes are the attribute edits that count as value changes
// when attribute observation is on. class is deliberately absent: the
// decorator writes it.
var watchedAttributes = []string{"value", "checked"}

type attachment struct {
	container dom.Element
	observer  *dom.Observer
	debouncer *debounce.Debouncer

	once         sync.Once
	disconnected bool
}

// Watcher keeps containers decorated as they change.
type Watcher struct {
	decorator *Decorator
	source    settings.Provider
	schedule  func(func())
	logger    *logging.Logger

	mu       sync.Mutex
	attached map[dom.Element]*attachment
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithScheduler sets where observer deliveries and debounced passes run,
// normally an event loop. Without it they run synchronously on whichever
// goroutine produced them.
func WithScheduler(schedule func(func())) WatcherOption {
	return func(w *Watcher) {
		if schedule != nil {
			w.schedule = schedule
		}
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l *logging.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher running d with settings read from source
// at the start of every pass.
func NewWatcher(d *Decorator, source settings.Provider, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		decorator: d,
		source:    source,
		schedule:  func(f func()) { f() },
		logger:    logging.NullLogger,
		attached:  make(map[dom.Element]*attachment),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Attach hooks container: it observes the subtree, runs one pass now and
// registers its teardown with lc. It returns false, doing nothing, if the
// container was attached before, even if it has since been detached.
func (w *Watcher) Attach(container dom.Element, lc Lifecycle) bool {
	a := &attachment{container: container}
	a.debouncer = debounce.New(
		func() { w.pass(container) },
		settings.DefaultDebounce*time.Millisecond,
		debounce.WithDelayFunc(func() time.Duration { return w.source.Settings().Debounce() }),
		debounce.WithScheduler(w.schedule),
	)
	a.observer = dom.NewObserver(func(records []dom.Record, _ *dom.Observer) {
		if len(records) > 0 {
			a.debouncer.Trigger()
		}
	}, dom.WithScheduler(w.schedule))

	w.mu.Lock()
	if _, ok := w.attached[container]; ok {
		w.mu.Unlock()
		return false
	}
	w.attached[container] = a
	w.mu.Unlock()

	s := w.source.Settings()
	if err := a.observer.Observe(container, observeOptions(s)); err != nil {
		w.logger.Warn("cannot observe container: %v", err)
	}

	w.decorator.Decorate(container, s)

	if lc != nil {
		lc.Register(func() { w.teardown(a) })
	}
	w.logger.Debug("attached container <%s>", container.Tag())
	return true
}

// Detach tears container down: the observer is disconnected and a
// pending pass is cancelled. The container stays in the attached set.
func (w *Watcher) Detach(container dom.Element) bool {
	w.mu.Lock()
	a, ok := w.attached[container]
	w.mu.Unlock()
	if !ok {
		return false
	}
	w.teardown(a)
	return true
}

// Close tears down every attached container.
func (w *Watcher) Close() {
	w.mu.Lock()
	all := make([]*attachment, 0, len(w.attached))
	for _, a := range w.attached {
		all = append(all, a)
	}
	w.mu.Unlock()

	for _, a := range all {
		w.teardown(a)
	}
}

// State reports where container is in the watcher state machine.
func (w *Watcher) State(container dom.Element) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, ok := w.attached[container]
	switch {
	case !ok:
		return StateUnattached
	case a.disconnected:
		return StateDisconnected
	case a.debouncer.Pending():
		return StatePending
	default:
		return StateIdle
	}
}

// Attached returns the number of containers ever attached.
func (w *Watcher) Attached() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.attached)
}

// TriggerAll schedules a debounced pass for every live container, as a
// mutation would. It returns the number triggered.
func (w *Watcher) TriggerAll() int {
	live := w.live()
	for _, a := range live {
		a.debouncer.Trigger()
	}
	return len(live)
}

// Reobserve re-applies the observer options from the current settings to
// every live container, picking up a change to attribute observation.
func (w *Watcher) Reobserve() {
	opts := observeOptions(w.source.Settings())
	for _, a := range w.live() {
		if err := a.observer.Observe(a.container, opts); err != nil {
			w.logger.Warn("cannot observe container: %v", err)
		}
	}
}

// Flush runs container's pending pass now. It reports whether one ran.
func (w *Watcher) Flush(container dom.Element) bool {
	w.mu.Lock()
	a, ok := w.attached[container]
	w.mu.Unlock()
	if !ok {
		return false
	}
	return a.debouncer.Flush()
}

// live returns the attachments not yet torn down.
func (w *Watcher) live() []*attachment {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*attachment, 0, len(w.attached))
	for _, a := range w.attached {
		if !a.disconnected {
			out = append(out, a)
		}
	}
	return out
}

func observeOptions(s settings.Settings) dom.ObserveOptions {
	opts := dom.ObserveOptions{ChildList: true, CharacterData: true, Subtree: true}
	if s.ObserveAttributes {
		opts.Attributes = true
		opts.AttributeFilter = watchedAttributes
	}
	return opts
}

func (w *Watcher) pass(container dom.Element) {
	w.decorator.Decorate(container, w.source.Settings())
}

func (w *Watcher) teardown(a *attachment) {
	a.once.Do(func() {
		a.observer.Disconnect()
		a.debouncer.Stop()
		w.mu.Lock()
		a.disconnected = true
		w.mu.Unlock()
		w.logger.Debug("detached container <%s>", a.container.Tag())
	})
}
