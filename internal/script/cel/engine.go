// Package cel runs computed-column snippets written in the Common
// Expression Language.
//
// el is a map(string, dyn) and value is dyn:
//
//	value == null ? [] : ["$PREFIX-owner-" + value.lowerAscii()]
package cel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	celext "github.com/google/cel-go/ext"

	"github.com/dshills/basestyle/internal/script"
)

// Name is the engine's registry name.
const Name = "cel"

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = time.Second

// Engine compiles CEL snippets against a shared environment.
type Engine struct {
	env     *cel.Env
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-run timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates an engine with the string, list and math extensions.
func New(opts ...Option) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("el", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("value", cel.DynType),
		celext.Strings(),
		celext.Lists(),
		celext.Math(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}

	e := &Engine{env: env, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name returns "cel".
func (e *Engine) Name() string {
	return Name
}

// Compile parses, checks and plans source.
func (e *Engine) Compile(source string) (script.Program, error) {
	ast, issues := e.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, script.CompileError(Name, issues.Err())
	}
	prg, err := e.env.Program(ast, cel.InterruptCheckFrequency(100))
	if err != nil {
		return nil, script.CompileError(Name, err)
	}
	return &program{prg: prg, timeout: e.timeout}, nil
}

type program struct {
	prg     cel.Program
	timeout time.Duration
}

func (p *program) Run(ctx context.Context, el script.Cell, value any) (result any, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = script.RunError(Name, fmt.Errorf("panic: %v", r))
		}
	}()

	out, _, err := p.prg.ContextEval(ctx, map[string]any{
		"el":    el.Map(),
		"value": value,
	})
	if err != nil {
		return nil, script.RunErrorCtx(ctx, Name, err)
	}
	return toGo(out), nil
}

// toGo converts a CEL value to plain Go values. Lists become []any.
func toGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case traits.Lister:
		size, ok := v.Size().(types.Int)
		if !ok {
			return nil
		}
		out := make([]any, 0, int(size))
		for i := types.Int(0); i < size; i++ {
			out = append(out, toGo(v.Get(i)))
		}
		return out
	case traits.Mapper:
		out := map[string]any{}
		it := v.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()
			out[fmt.Sprint(key.Value())] = toGo(v.Get(key))
		}
		return out
	default:
		return val.Value()
	}
}

var _ script.Engine = (*Engine)(nil)
