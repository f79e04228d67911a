package settings

import (
	"strings"
	"sync"
)

// ChangeType is the kind of settings change.
type ChangeType int

const (
	// ChangeSet indicates a single setting was updated.
	ChangeSet ChangeType = iota

	// ChangeDelete indicates a setting (a column) was removed.
	ChangeDelete

	// ChangeReload indicates the whole file was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one settings change.
type Change struct {
	// Path is the changed setting, e.g. "cssClassPrefix" or "columns[1].snippet".
	// Empty for reloads.
	Path string

	Type ChangeType

	OldValue any
	NewValue any

	// Source identifies where the change came from ("editor", "file", ...).
	Source string
}

// Observer is called for every delivered change.
type Observer func(change Change)

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier fans settings changes out to observers. Delivery is synchronous
// on the caller's goroutine, outside the notifier's lock.
type Notifier struct {
	mu sync.RWMutex

	global map[uint64]Observer
	paths  map[string]map[uint64]Observer

	nextID uint64
	closed bool
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		global: make(map[uint64]Observer),
		paths:  make(map[string]map[uint64]Observer),
	}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.global[id] = observer
	return &Subscription{id: id, notifier: n}
}

// SubscribePath registers an observer for changes at path or below it.
// Subscribing to "columns" sees "columns[0].mode"; reloads reach everyone.
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.paths[path] == nil {
		n.paths[path] = make(map[uint64]Observer)
	}
	n.paths[path][id] = observer
	return &Subscription{id: id, notifier: n}
}

// Notify delivers change to every matching observer.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}

	var targets []Observer
	for _, obs := range n.global {
		targets = append(targets, obs)
	}
	for path, observers := range n.paths {
		if change.Type == ChangeReload || path == change.Path || isParentPath(path, change.Path) {
			for _, obs := range observers {
				targets = append(targets, obs)
			}
		}
	}
	n.mu.RUnlock()

	for _, obs := range targets {
		obs(change)
	}
}

// Close drops all subscriptions; later notifications are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	n.global = make(map[uint64]Observer)
	n.paths = make(map[string]map[uint64]Observer)
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.global, id)
	for path, observers := range n.paths {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.paths, path)
		}
	}
}

// isParentPath reports whether child lies under parent, treating both "."
// and "[" as separators.
func isParentPath(parent, child string) bool {
	if parent == "" || len(child) <= len(parent) || !strings.HasPrefix(child, parent) {
		return false
	}
	next := child[len(parent)]
	return next == '.' || next == '['
}
