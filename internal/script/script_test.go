package script

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name   string
	closed bool
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Compile(string) (Program, error) { return nil, errors.New("unused") }

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func TestClasses(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   []string
		wantOK bool
	}{
		{"strings", []string{"a", "b"}, []string{"a", "b"}, true},
		{"any list", []any{"a", nil, int64(3), true}, []string{"a", "3", "true"}, true},
		{"empty list", []any{}, []string{}, true},
		{"string", "a", nil, false},
		{"nil", nil, nil, false},
		{"map", map[string]any{"a": "b"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classes(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry(t *testing.T) {
	a := &fakeEngine{name: "a"}
	reg := NewRegistry(a)
	reg.Register(&fakeEngine{name: "b"})

	assert.Equal(t, []string{"a", "b"}, reg.Names())
	got, err := reg.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = reg.Get("c")
	assert.ErrorIs(t, err, ErrUnknownEngine)

	require.NoError(t, reg.Close())
	assert.True(t, a.closed)
}

func TestCellMapCopies(t *testing.T) {
	c := Cell{Property: "p", Classes: []string{"x"}, Attrs: map[string]string{"k": "v"}}
	m := c.Map()
	m["classes"].([]string)[0] = "changed"
	m["attrs"].(map[string]string)["k"] = "changed"

	assert.Equal(t, "x", c.Classes[0])
	assert.Equal(t, "v", c.Attrs["k"])
	assert.Equal(t, "p", m["property"])
}

func TestError(t *testing.T) {
	err := RunError("lua", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "lua run error: context deadline exceeded", err.Error())
}
