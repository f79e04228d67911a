// Package lua runs computed-column snippets in a sandboxed gopher-lua state.
//
// A snippet is the body of a function taking el and value:
//
//	local n = tonumber(value)
//	if n == nil then return {} end
//	return { "$PREFIX-rank-" .. n }
//
// Only the base, table, string and math libraries are available. Every
// compiled snippet gets its own environment holding copies of the library
// tables, with _G pointing at it. Nothing reachable from a snippet is shared
// with another snippet except the library functions themselves, which are
// immutable.
package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/basestyle/internal/script"
)

// Name is the engine's registry name.
const Name = "lua"

// DefaultTimeout bounds a single snippet run.
const DefaultTimeout = time.Second

// Engine owns one Lua state shared by all of its programs. gopher-lua
// states are not goroutine-safe, so every use holds mu.
type Engine struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	closed  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-run timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates an engine with a fresh sandboxed state.
func New(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	installSandbox(e.L)
	return e
}

// Name returns "lua".
func (e *Engine) Name() string {
	return Name
}

// Compile wraps source in a function taking el and value.
func (e *Engine) Compile(source string) (script.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, script.ErrEngineClosed
	}

	chunk, err := e.L.LoadString("return function(el, value)\n" + source + "\nend")
	if err != nil {
		return nil, script.CompileError(Name, err)
	}
	chunk.Env = newEnv(e.L)

	var fn *lua.LFunction
	err = protect(func() error {
		if err := e.L.CallByParam(lua.P{Fn: chunk, NRet: 1, Protect: true}); err != nil {
			return err
		}
		ret := e.L.Get(-1)
		e.L.Pop(1)
		f, ok := ret.(*lua.LFunction)
		if !ok {
			return fmt.Errorf("snippet did not compile to a function")
		}
		fn = f
		return nil
	})
	if err != nil {
		return nil, script.CompileError(Name, err)
	}
	return &program{engine: e, fn: fn}, nil
}

// Close releases the Lua state.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.L.Close()
	return nil
}

type program struct {
	engine *Engine
	fn     *lua.LFunction
}

func (p *program) Run(ctx context.Context, el script.Cell, value any) (any, error) {
	e := p.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, script.RunError(Name, script.ErrEngineClosed)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	top := e.L.GetTop()
	var result any
	err := protect(func() error {
		err := e.L.CallByParam(lua.P{Fn: p.fn, NRet: 1, Protect: true},
			cellTable(e.L, el), toLua(e.L, value))
		if err != nil {
			return err
		}
		result = toGo(e.L.Get(-1))
		return nil
	})
	e.L.SetTop(top)
	if err != nil {
		return nil, script.RunErrorCtx(ctx, Name, err)
	}
	return result, nil
}

// protect turns a Go panic raised inside the VM into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

var _ script.Engine = (*Engine)(nil)
