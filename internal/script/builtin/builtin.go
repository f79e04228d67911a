// Package builtin assembles the registry of bundled snippet engines.
package builtin

import (
	"fmt"
	"time"

	"github.com/dshills/basestyle/internal/script"
	"github.com/dshills/basestyle/internal/script/cel"
	"github.com/dshills/basestyle/internal/script/expr"
	"github.com/dshills/basestyle/internal/script/lua"
)

// Registry returns a registry with the lua, expr and cel engines. timeout
// bounds each snippet run for the engines that support it; zero keeps
// their defaults.
func Registry(timeout time.Duration) (*script.Registry, error) {
	luaOpts := []lua.Option{}
	celOpts := []cel.Option{}
	if timeout > 0 {
		luaOpts = append(luaOpts, lua.WithTimeout(timeout))
		celOpts = append(celOpts, cel.WithTimeout(timeout))
	}

	celEngine, err := cel.New(celOpts...)
	if err != nil {
		return nil, fmt.Errorf("cel engine: %w", err)
	}

	return script.NewRegistry(
		lua.New(luaOpts...),
		expr.New(),
		celEngine,
	), nil
}
