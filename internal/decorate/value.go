package decorate

import (
	"fmt"
	"strings"
)

// Kind is the shape of an extracted value.
type Kind int

const (
	// KindAbsent means no recognised widget was found.
	KindAbsent Kind = iota
	// KindBool is a checkbox state.
	KindBool
	// KindString is a text value.
	KindString
	// KindList is the ordered texts of multi-select pills.
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is what a cell displays. The zero Value is absent.
type Value struct {
	kind Kind
	b    bool
	s    string
	list []string
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list value. The slice is copied.
func List(items []string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether nothing was recognised.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Native returns the value as snippets see it: nil, bool, string or []string.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	default:
		return nil
	}
}

// String formats the value for logs.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprint(v.b)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		return "[" + strings.Join(v.list, ", ") + "]"
	default:
		return "<absent>"
	}
}
