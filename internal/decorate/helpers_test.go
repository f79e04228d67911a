package decorate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/basestyle/internal/dom"
	"github.com/dshills/basestyle/internal/notice"
	"github.com/dshills/basestyle/internal/script/builtin"
)

const baseViewHTML = `<div class="bases-view">
  <div class="bases-tr">
    <div class="bases-td" data-property="note.priority"><div class="metadata-input-longtext">47</div></div>
    <div class="bases-td" data-property="note.status"><div class="metadata-input-longtext">open</div></div>
  </div>
  <div class="bases-tr">
    <div class="bases-td" data-property="note.priority"><div class="metadata-input-longtext"></div></div>
    <div class="bases-td" data-property="note.status"><div class="metadata-input-longtext">done</div></div>
  </div>
  <div class="bases-tr">
    <div class="bases-td theme-accent" data-property="note.priority"><div class="metadata-input-longtext">9</div></div>
    <div class="bases-td" data-property="note.priority.extra"><div class="metadata-input-longtext">99</div></div>
  </div>
</div>`

// parseView parses markup and returns its first div.bases-view.
func parseView(t *testing.T, markup string) dom.Element {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	view, ok := doc.Root().QueryFirst(dom.MustCompile("div.bases-view"))
	require.True(t, ok)
	return view
}

// parseCell wraps inner in a cell for property and returns the cell.
func parseCell(t *testing.T, property, inner string) dom.Element {
	t.Helper()
	view := parseView(t, `<div class="bases-view"><div class="bases-td" data-property="`+property+`">`+inner+`</div></div>`)
	cells := Cells(view, property)
	require.Len(t, cells, 1)
	return cells[0]
}

func newTestDecorator(t *testing.T, opts ...Option) (*Decorator, *notice.Recorder) {
	t.Helper()
	return newTimedDecorator(t, 0, opts...)
}

// newTimedDecorator is newTestDecorator with a snippet time limit.
func newTimedDecorator(t *testing.T, timeout time.Duration, opts ...Option) (*Decorator, *notice.Recorder) {
	t.Helper()
	reg, err := builtin.Registry(timeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	rec := notice.NewRecorder()
	opts = append([]Option{WithNotifier(rec)}, opts...)
	return NewDecorator(NewResolver(reg), opts...), rec
}

func classesOf(cells []dom.Element) [][]string {
	out := make([][]string, len(cells))
	for i, c := range cells {
		out[i] = c.Classes()
	}
	return out
}
