package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/basestyle/internal/script"
)

func TestRun(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	el := script.Cell{Property: "note.owner", Text: "Ada", Attrs: map[string]string{"data-property": "note.owner"}}

	tests := []struct {
		name   string
		source string
		value  any
		want   any
	}{
		{"string", `["x-" + value.lowerAscii()]`, "Ada", []any{"x-ada"}},
		{"null guard", `value == null ? [] : ["x-" + string(value)]`, nil, []any{}},
		{"bool", `value ? ["x-checked"] : []`, true, []any{"x-checked"}},
		{"list", `value.map(v, "x-" + v)`, []string{"a", "b"}, []any{"x-a", "x-b"}},
		{"cell", `[el.property, el.attrs["data-property"]]`, nil, []any{"note.owner", "note.owner"}},
		{"not a list", `"x-a"`, nil, "x-a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := e.Compile(tt.source)
			require.NoError(t, err)
			got, err := prog.Run(context.Background(), el, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrors(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	_, err = e.Compile(`[1,`)
	var se *script.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, script.PhaseCompile, se.Phase)

	_, err = e.Compile(`missing + 1`)
	require.ErrorAs(t, err, &se)

	prog, err := e.Compile(`["x-" + value]`)
	require.NoError(t, err)
	_, err = prog.Run(context.Background(), script.Cell{}, int64(3))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, script.PhaseRun, se.Phase)
}
