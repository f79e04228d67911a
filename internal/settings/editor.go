package settings

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dshills/basestyle/internal/notice"
)

// Messages shown for rejected edits.
const (
	MsgInvalidNumber  = "Please enter a valid number"
	MsgEmptyPrefix    = "Class prefix cannot be empty"
	MsgInvalidClasses = "All classes must start with " + Placeholder
)

// Editor applies user edits to a Store. Every accepted edit is saved
// immediately; a rejected edit leaves the settings untouched, shows a
// notice and returns an *InputError.
type Editor struct {
	store    *Store
	notifier notice.Notifier
	engines  func(name string) bool
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithNotifier sets where rejected edits are reported.
func WithNotifier(n notice.Notifier) EditorOption {
	return func(e *Editor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithEngines sets the predicate used to validate snippet engine names.
func WithEngines(known func(name string) bool) EditorOption {
	return func(e *Editor) {
		e.engines = known
	}
}

// NewEditor creates an editor over store.
func NewEditor(store *Store, opts ...EditorOption) *Editor {
	e := &Editor{
		store:    store,
		notifier: notice.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPrefix sets the managed class prefix.
func (e *Editor) SetPrefix(prefix string) error {
	if strings.TrimSpace(prefix) == "" {
		return e.reject("cssClassPrefix", prefix, MsgEmptyPrefix, ErrEmptyPrefix)
	}
	return e.set("cssClassPrefix", func(s *Settings) (any, error) {
		old := s.CSSClassPrefix
		s.CSSClassPrefix = prefix
		return old, nil
	}, prefix)
}

// SetDebounce parses raw as a millisecond count.
func (e *Editor) SetDebounce(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return e.reject("debounceTime", raw, MsgInvalidNumber, ErrInvalidNumber)
	}
	return e.set("debounceTime", func(s *Settings) (any, error) {
		old := s.DebounceTime
		s.DebounceTime = n
		return old, nil
	}, n)
}

// SetObserveAttributes toggles observation of value and checked edits.
func (e *Editor) SetObserveAttributes(on bool) error {
	return e.set("observeAttributes", func(s *Settings) (any, error) {
		old := s.ObserveAttributes
		s.ObserveAttributes = on
		return old, nil
	}, on)
}

// SetDataProperty sets the property a column targets.
func (e *Editor) SetDataProperty(index int, property string) error {
	property = strings.TrimSpace(property)
	return e.setColumn(index, "dataProperty", property, func(r *ColumnRule) any {
		old := r.DataProperty
		r.DataProperty = property
		return old
	})
}

// SetMode switches a column between static and computed.
func (e *Editor) SetMode(index int, raw string) error {
	field := columnPath(index, "mode")
	mode, err := ParseMode(raw)
	if err != nil {
		return e.reject(field, raw, fmt.Sprintf("Unknown mode %q", raw), ErrInvalidMode)
	}
	return e.setColumn(index, "mode", mode, func(r *ColumnRule) any {
		old := r.Mode
		r.Mode = mode
		return old
	})
}

// SetClasses sets a static column's class template. Every entry must start
// with the placeholder. An entry that is still a partially typed
// placeholder, like "$PRE", is neither saved nor reported.
func (e *Editor) SetClasses(index int, template string) error {
	field := columnPath(index, "cssClasses")
	if bad, partial := firstBadClass(template); bad != "" || partial {
		if partial {
			return nil
		}
		return e.reject(field, template, MsgInvalidClasses, ErrInvalidClasses)
	}
	return e.setColumn(index, "cssClasses", template, func(r *ColumnRule) any {
		old := r.CSSClasses
		r.CSSClasses = template
		return old
	})
}

// SetSnippet sets a computed column's snippet source.
func (e *Editor) SetSnippet(index int, source string) error {
	return e.setColumn(index, "snippet", source, func(r *ColumnRule) any {
		old := r.Snippet
		r.Snippet = source
		return old
	})
}

// SetEngine selects a computed column's snippet engine.
func (e *Editor) SetEngine(index int, engine string) error {
	engine = strings.TrimSpace(engine)
	if engine == "" {
		engine = DefaultEngine
	}
	if e.engines != nil && !e.engines(engine) {
		return e.reject(columnPath(index, "engine"), engine,
			fmt.Sprintf("Unknown snippet engine %q", engine), ErrUnknownEngine)
	}
	return e.setColumn(index, "engine", engine, func(r *ColumnRule) any {
		old := r.Engine
		r.Engine = engine
		return old
	})
}

// AddColumn appends an empty static column and returns its index.
func (e *Editor) AddColumn() (int, error) {
	var index int
	err := e.store.Update(func(s *Settings) (Change, error) {
		s.Columns = append(s.Columns, ColumnRule{Mode: ModeStatic})
		index = len(s.Columns) - 1
		return Change{Path: columnPath(index, ""), Type: ChangeSet, NewValue: s.Columns[index], Source: "editor"}, nil
	})
	return index, err
}

// RemoveColumn deletes the column at index.
func (e *Editor) RemoveColumn(index int) error {
	field := columnPath(index, "")
	err := e.store.Update(func(s *Settings) (Change, error) {
		if index < 0 || index >= len(s.Columns) {
			return Change{}, ErrColumnIndex
		}
		removed := s.Columns[index]
		s.Columns = slices.Delete(s.Columns, index, index+1)
		return Change{Path: field, Type: ChangeDelete, OldValue: removed, Source: "editor"}, nil
	})
	if errors.Is(err, ErrColumnIndex) {
		return e.reject(field, strconv.Itoa(index), fmt.Sprintf("No column %d", index+1), ErrColumnIndex)
	}
	return err
}

func (e *Editor) setColumn(index int, key string, value any, apply func(*ColumnRule) any) error {
	field := columnPath(index, key)
	err := e.set(field, func(s *Settings) (any, error) {
		if index < 0 || index >= len(s.Columns) {
			return nil, ErrColumnIndex
		}
		return apply(&s.Columns[index]), nil
	}, value)
	if errors.Is(err, ErrColumnIndex) {
		return e.reject(field, fmt.Sprint(value), fmt.Sprintf("No column %d", index+1), ErrColumnIndex)
	}
	return err
}

// set runs fn under the store lock; fn returns the previous value.
func (e *Editor) set(path string, fn func(*Settings) (any, error), newValue any) error {
	return e.store.Update(func(s *Settings) (Change, error) {
		old, err := fn(s)
		if err != nil {
			return Change{}, err
		}
		return Change{Path: path, Type: ChangeSet, OldValue: old, NewValue: newValue, Source: "editor"}, nil
	})
}

func (e *Editor) reject(field, input, msg string, sentinel error) error {
	e.notifier.Notify(notice.Notice{
		Level:   notice.LevelWarning,
		Kind:    notice.KindInvalidInput,
		Message: msg,
	})
	return &InputError{Field: field, Input: input, Message: msg, Err: sentinel}
}

func columnPath(index int, key string) string {
	if key == "" {
		return fmt.Sprintf("columns[%d]", index)
	}
	return fmt.Sprintf("columns[%d].%s", index, key)
}

// firstBadClass returns the first template entry not starting with the
// placeholder. partial is true when that entry looks like the placeholder
// being typed. Empty entries are ignored.
func firstBadClass(template string) (bad string, partial bool) {
	for _, entry := range strings.Split(template, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" || strings.HasPrefix(entry, Placeholder) {
			continue
		}
		if strings.HasPrefix(entry, "$") && strings.HasPrefix(Placeholder, entry) {
			return entry, true
		}
		return entry, false
	}
	return "", false
}
