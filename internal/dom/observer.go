package dom

import (
	"sync"
)

// RecordType identifies the kind of mutation.
type RecordType int

const (
	// ChildList records nodes added to or removed from the target.
	ChildList RecordType = iota
	// CharacterData records a text node's content change.
	CharacterData
	// Attributes records an attribute change on the target.
	Attributes
)

// String returns the record type name.
func (t RecordType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case CharacterData:
		return "characterData"
	case Attributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// Record describes one mutation.
type Record struct {
	Type          RecordType
	Target        Element
	AttributeName string
	OldValue      string
	Added         []Element
	Removed       []Element
}

// ObserveOptions selects which mutations an observer receives.
type ObserveOptions struct {
	ChildList     bool
	CharacterData bool
	Attributes    bool
	// AttributeFilter limits attribute records to these names. Empty means all.
	AttributeFilter []string
	// Subtree extends observation to all descendants of the target.
	Subtree bool
}

func (o ObserveOptions) valid() bool {
	return o.ChildList || o.CharacterData || o.Attributes
}

// Callback receives a batch of records.
type Callback func(records []Record, observer *Observer)

type registration struct {
	observer *Observer
	target   Element
	opts     ObserveOptions
	filter   map[string]bool
}

func (r *registration) matches(rec Record) bool {
	switch rec.Type {
	case ChildList:
		if !r.opts.ChildList {
			return false
		}
	case CharacterData:
		if !r.opts.CharacterData {
			return false
		}
	case Attributes:
		if !r.opts.Attributes {
			return false
		}
		if len(r.filter) > 0 && !r.filter[rec.AttributeName] {
			return false
		}
	default:
		return false
	}

	if rec.Target == r.target {
		return true
	}
	return r.opts.Subtree && r.target.Contains(rec.Target)
}

// Observer collects mutation records for the targets it observes.
type Observer struct {
	callback Callback
	schedule func(func())

	mu           sync.Mutex
	docs         map[*Document]bool
	pending      []Record
	scheduled    bool
	disconnected bool
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithScheduler makes the observer deliver each batch by handing a delivery
// function to schedule. Without a scheduler, records are only delivered by
// Deliver or read by TakeRecords.
func WithScheduler(schedule func(func())) ObserverOption {
	return func(o *Observer) {
		o.schedule = schedule
	}
}

// NewObserver creates an observer.
func NewObserver(cb Callback, opts ...ObserverOption) *Observer {
	o := &Observer{
		callback: cb,
		docs:     make(map[*Document]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Observe starts observing target. Observing the same target again
// replaces its options.
func (o *Observer) Observe(target Element, opts ObserveOptions) error {
	if target.IsZero() || target.doc == nil {
		return ErrNoTarget
	}
	if !opts.valid() {
		return ErrInvalidOptions
	}

	reg := &registration{observer: o, target: target, opts: opts}
	if len(opts.AttributeFilter) > 0 {
		reg.filter = make(map[string]bool, len(opts.AttributeFilter))
		for _, name := range opts.AttributeFilter {
			reg.filter[name] = true
		}
	}

	o.mu.Lock()
	o.disconnected = false
	o.docs[target.doc] = true
	o.mu.Unlock()

	target.doc.addRegistration(reg)
	return nil
}

// Disconnect stops all observation and discards undelivered records.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	docs := make([]*Document, 0, len(o.docs))
	for d := range o.docs {
		docs = append(docs, d)
	}
	o.docs = make(map[*Document]bool)
	o.pending = nil
	o.disconnected = true
	o.mu.Unlock()

	for _, d := range docs {
		d.removeObserver(o)
	}
}

// TakeRecords returns and clears undelivered records.
func (o *Observer) TakeRecords() []Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	recs := o.pending
	o.pending = nil
	return recs
}

// Deliver invokes the callback with pending records, if any.
func (o *Observer) Deliver() {
	o.mu.Lock()
	o.scheduled = false
	if o.disconnected || len(o.pending) == 0 {
		o.pending = nil
		o.mu.Unlock()
		return
	}
	recs := o.pending
	o.pending = nil
	o.mu.Unlock()

	if o.callback != nil {
		o.callback(recs, o)
	}
}

func (o *Observer) enqueue(rec Record) {
	o.mu.Lock()
	if o.disconnected {
		o.mu.Unlock()
		return
	}
	o.pending = append(o.pending, rec)
	if o.scheduled || o.schedule == nil {
		o.mu.Unlock()
		return
	}
	o.scheduled = true
	o.mu.Unlock()

	o.schedule(o.Deliver)
}
