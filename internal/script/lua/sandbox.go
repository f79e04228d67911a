package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// openSafeLibraries opens only the libraries snippets may use. io, os and
// debug are never opened.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// safeModules may be required by snippets.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// hiddenGlobals are left out of snippet environments. They load code or
// hand out shared tables: getfenv(0) returns the real globals and
// getmetatable("") the string library behind every string.
var hiddenGlobals = map[string]bool{
	"_G":           true,
	"dofile":       true,
	"loadfile":     true,
	"load":         true,
	"loadstring":   true,
	"module":       true,
	"require":      true,
	"package":      true,
	"print":        true,
	"getfenv":      true,
	"setfenv":      true,
	"getmetatable": true,
}

// installSandbox strips the shared globals down to what environments copy.
func installSandbox(L *lua.LState) {
	for name := range hiddenGlobals {
		if name != "_G" {
			L.SetGlobal(name, lua.LNil)
		}
	}
}

// newEnv returns a fresh environment for one program: the safe globals
// with every library table copied, _G pointing at the environment and a
// require that hands out those copies.
func newEnv(L *lua.LState) *lua.LTable {
	globals := L.Get(lua.GlobalsIndex).(*lua.LTable)
	env := L.NewTable()
	globals.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok || hiddenGlobals[string(name)] {
			return
		}
		if lib, ok := v.(*lua.LTable); ok {
			v = copyTable(L, lib)
		}
		env.RawSet(k, v)
	})
	env.RawSetString("_G", env)
	env.RawSetString("require", L.NewFunction(func(L *lua.LState) int {
		mod := L.CheckString(1)
		if !safeModules[mod] {
			L.RaiseError("module %q is not available", mod)
			return 0
		}
		L.Push(env.RawGetString(mod))
		return 1
	}))
	return env
}

func copyTable(L *lua.LState, src *lua.LTable) *lua.LTable {
	dst := L.NewTable()
	src.ForEach(func(k, v lua.LValue) {
		dst.RawSet(k, v)
	})
	return dst
}
