package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/basestyle/internal/script"
)

func TestRegistry(t *testing.T) {
	reg, err := Registry(0)
	require.NoError(t, err)
	defer reg.Close()

	assert.Equal(t, []string{"cel", "expr", "lua"}, reg.Names())
	assert.True(t, reg.Has("lua"))
	assert.False(t, reg.Has("js"))

	_, err = reg.Get("js")
	assert.ErrorIs(t, err, script.ErrUnknownEngine)

	sources := map[string]string{
		"lua":  `return { "x-" .. value }`,
		"expr": `["x-" + value]`,
		"cel":  `["x-" + value]`,
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			engine, err := reg.Get(name)
			require.NoError(t, err)
			prog, err := engine.Compile(src)
			require.NoError(t, err)
			got, err := prog.Run(context.Background(), script.Cell{}, "a")
			require.NoError(t, err)
			classes, ok := script.Classes(got)
			require.True(t, ok)
			assert.Equal(t, []string{"x-a"}, classes)
		})
	}
}
