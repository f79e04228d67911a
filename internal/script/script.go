// Package script defines the snippet engines used by computed column rules.
//
// A snippet receives two inputs: el, a read-only view of the table cell,
// and value, the cell's extracted value (nil, a bool, a string or a list of
// strings). It returns a list of class names. Any other result means "no
// classes". Engines live in subpackages; the builtin package assembles the
// default registry.
package script

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Cell is the read-only view of a cell handed to snippets as el.
type Cell struct {
	// Property is the cell's data-property attribute.
	Property string
	Tag      string
	// Text is the cell's text content.
	Text string
	// Classes are the cell's classes with managed ones already stripped.
	Classes []string
	Attrs   map[string]string
}

// Map returns the cell as a plain map, the shape snippet engines expose.
func (c Cell) Map() map[string]any {
	classes := make([]string, len(c.Classes))
	copy(classes, c.Classes)
	attrs := make(map[string]string, len(c.Attrs))
	for k, v := range c.Attrs {
		attrs[k] = v
	}
	return map[string]any{
		"property": c.Property,
		"tag":      c.Tag,
		"text":     c.Text,
		"classes":  classes,
		"attrs":    attrs,
	}
}

// Program is a compiled snippet.
type Program interface {
	// Run evaluates the snippet for one cell. The result is normalised:
	// lists come back as []any.
	Run(ctx context.Context, el Cell, value any) (any, error)
}

// Engine compiles snippets of one dialect.
type Engine interface {
	Name() string
	Compile(source string) (Program, error)
}

// Registry maps engine names to engines.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates a registry holding engines.
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine)}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

// Register adds or replaces an engine.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
}

// Get returns the engine called name.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	return e, nil
}

// Has reports whether an engine called name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.engines[name]
	return ok
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every engine that holds resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for _, e := range r.engines {
		if c, ok := e.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Classes interprets a snippet result. Lists yield their elements as
// class names: nil elements are skipped and other non-strings are
// formatted. Anything that is not a list yields ok == false.
func Classes(result any) (classes []string, ok bool) {
	switch v := result.(type) {
	case []string:
		out := make([]string, 0, len(v))
		return append(out, v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case nil:
			case string:
				out = append(out, s)
			default:
				out = append(out, fmt.Sprint(s))
			}
		}
		return out, true
	default:
		return nil, false
	}
}
