package decorate

import (
	"context"
	"strings"
	"sync"

	"github.com/dshills/basestyle/internal/script"
	"github.com/dshills/basestyle/internal/settings"
)

// maxCachedPrograms bounds the compiled-snippet cache. Editing a snippet
// compiles every intermediate version, so the cache is dropped when full.
const maxCachedPrograms = 256

// Resolution is the outcome of resolving one rule for one cell.
type Resolution struct {
	// Classes are the candidate names, not yet checked against the prefix.
	Classes []string
	// Fault is set when a snippet failed; Classes is then empty.
	Fault *ComputationFault
}

type cacheKey struct {
	engine string
	source string
}

type cached struct {
	prog script.Program
	err  error
}

// Resolver computes candidate classes for a rule.
type Resolver struct {
	engines *script.Registry

	mu    sync.Mutex
	cache map[cacheKey]cached
}

// NewResolver creates a resolver using the given engines.
func NewResolver(engines *script.Registry) *Resolver {
	return &Resolver{
		engines: engines,
		cache:   make(map[cacheKey]cached),
	}
}

// Resolve returns the candidate classes rule produces for a cell. Faults
// are reported in the result, never returned or panicked.
func (r *Resolver) Resolve(ctx context.Context, rule settings.ColumnRule, el script.Cell, value Value, prefix string) Resolution {
	switch rule.Mode {
	case settings.ModeComputed:
		return r.computed(ctx, rule, el, value, prefix)
	default:
		return Resolution{Classes: StaticClasses(rule.CSSClasses, prefix)}
	}
}

// StaticClasses splits a comma-separated template, trims the entries,
// substitutes the placeholder and drops empty entries.
func StaticClasses(template, prefix string) []string {
	if strings.TrimSpace(template) == "" {
		return nil
	}
	parts := strings.Split(template, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := settings.ExpandPlaceholder(strings.TrimSpace(p), prefix); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (r *Resolver) computed(ctx context.Context, rule settings.ColumnRule, el script.Cell, value Value, prefix string) Resolution {
	if strings.TrimSpace(rule.Snippet) == "" {
		return Resolution{}
	}

	engine := rule.EngineName()
	fault := func(err error) Resolution {
		return Resolution{Fault: &ComputationFault{Property: rule.DataProperty, Engine: engine, Err: err}}
	}

	prog, err := r.program(engine, settings.ExpandPlaceholder(rule.Snippet, prefix))
	if err != nil {
		return fault(err)
	}

	result, err := prog.Run(ctx, el, value.Native())
	if err != nil {
		return fault(err)
	}

	classes, ok := script.Classes(result)
	if !ok {
		return Resolution{}
	}
	return Resolution{Classes: classes}
}

// program returns the compiled snippet, compiling it on first use.
// Compile failures are cached too, so a broken snippet is compiled once.
func (r *Resolver) program(engine, source string) (script.Program, error) {
	key := cacheKey{engine: engine, source: source}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[key]; ok {
		return c.prog, c.err
	}

	var c cached
	if r.engines == nil {
		c.err = ErrNoEngine
	} else if e, err := r.engines.Get(engine); err != nil {
		c.err = err
	} else {
		c.prog, c.err = e.Compile(source)
	}

	if len(r.cache) >= maxCachedPrograms {
		r.cache = make(map[cacheKey]cached)
	}
	r.cache[key] = c
	return c.prog, c.err
}

// CachedPrograms returns the number of cached compilations.
func (r *Resolver) CachedPrograms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
