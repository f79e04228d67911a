package lua

import (
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/basestyle/internal/script"
)

// cellTable builds the el table.
func cellTable(L *lua.LState, el script.Cell) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("property", lua.LString(el.Property))
	t.RawSetString("tag", lua.LString(el.Tag))
	t.RawSetString("text", lua.LString(el.Text))
	t.RawSetString("classes", toLua(L, el.Classes))

	attrs := L.NewTable()
	keys := make([]string, 0, len(el.Attrs))
	for k := range el.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs.RawSetString(k, lua.LString(el.Attrs[k]))
	}
	t.RawSetString("attrs", attrs)
	return t
}

// toLua converts the value shapes a cell can produce.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []string:
		t := L.NewTable()
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(toLua(L, item))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LNil
	}
}

// toGo converts a snippet result. Tables whose keys are exactly 1..n,
// including the empty table, become []any; other tables become
// map[string]any.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	count := 0
	isArray := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if n, ok := k.(lua.LNumber); !ok || float64(n) != float64(int(n)) || n < 1 {
			isArray = false
		}
	})

	if isArray && t.MaxN() == count {
		arr := make([]any, count)
		for i := 1; i <= count; i++ {
			arr[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGoVisited(v, visited)
	})
	return m
}
