// Package filewatch reports changes to individual files.
//
// Directories are watched rather than files, because editors and the
// settings store often replace a file by writing a new one and renaming it
// over the old; a watch on the file itself would be lost. Events for other
// entries in the directory are filtered out, and bursts of events for one
// file are debounced into a single callback.
package filewatch

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/dshills/basestyle/internal/debounce"
)

// DefaultDelay is the debounce window for file events.
const DefaultDelay = 100 * time.Millisecond

var (
	// ErrClosed is returned by Add after Close.
	ErrClosed = errors.New("file watcher closed")
	// ErrAlreadyWatching is returned when a file is added twice.
	ErrAlreadyWatching = errors.New("already watching file")
)

// Handler is called with the absolute path of a changed file.
type Handler func(path string)

// Watcher watches a set of files.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	files    map[string]*debounce.Debouncer
	dirs     map[string]int
	delay    time.Duration
	schedule debounce.Scheduler
	log      logr.Logger

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithScheduler sets where handlers run. Without it they run on a timer
// goroutine.
func WithScheduler(s debounce.Scheduler) Option {
	return func(w *Watcher) {
		w.schedule = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// New creates a Watcher and starts its event goroutine.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		files:   make(map[string]*debounce.Debouncer),
		dirs:    make(map[string]int),
		delay:   DefaultDelay,
		log:     logr.Discard(),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Add starts watching path; handler runs after each settled burst of
// writes, creates, renames or removals of that file. The file need not
// exist yet, but its directory must.
func (w *Watcher) Add(path string, handler Handler) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if _, ok := w.files[abs]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, abs)
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.dirs[dir]++

	opts := []debounce.Option{}
	if w.schedule != nil {
		opts = append(opts, debounce.WithScheduler(w.schedule))
	}
	w.files[abs] = debounce.New(func() { handler(abs) }, w.delay, opts...)
	w.log.V(1).Info("watching file", "path", abs)
	return nil
}

// Remove stops watching path. Unknown paths are ignored.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.files[abs]
	if !ok {
		return nil
	}
	d.Stop()
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if !w.closed {
			return w.fsw.Remove(dir)
		}
	}
	return nil
}

// Files returns the watched paths.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// Close stops the watcher and cancels pending handler calls.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for _, d := range w.files {
		d.Stop()
	}
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error(err, "file watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return
	}

	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	d, ok := w.files[abs]
	w.mu.Unlock()
	if !ok {
		return
	}

	w.log.V(1).Info("file event", "path", abs, "op", ev.Op.String())
	d.Trigger()
}
