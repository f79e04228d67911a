// Package expr runs computed-column snippets written in expr-lang.
//
// A snippet is a single expression over el and value, for example
//
//	value == nil ? [] : ["$PREFIX-status-" + lower(value)]
package expr

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dshills/basestyle/internal/script"
)

// Name is the engine's registry name.
const Name = "expr"

// Engine compiles expr-lang snippets. It holds no state of its own and is
// safe for concurrent use.
type Engine struct{}

// New creates an engine.
func New() *Engine {
	return &Engine{}
}

// Name returns "expr".
func (e *Engine) Name() string {
	return Name
}

// Compile parses source. el and value are left untyped at compile time
// because a value's shape depends on the cell's widget.
func (e *Engine) Compile(source string) (script.Program, error) {
	compiled, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, script.CompileError(Name, err)
	}
	return &program{prog: compiled}, nil
}

type program struct {
	prog *vm.Program
}

func (p *program) Run(ctx context.Context, el script.Cell, value any) (result any, err error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, script.RunError(Name, err)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			err = script.RunError(Name, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err := expr.Run(p.prog, map[string]any{
		"el":    el.Map(),
		"value": value,
	})
	if err != nil {
		return nil, script.RunError(Name, err)
	}
	return normalize(out), nil
}

// normalize turns typed slices into []any.
func normalize(v any) any {
	switch val := v.(type) {
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

var _ script.Engine = (*Engine)(nil)
