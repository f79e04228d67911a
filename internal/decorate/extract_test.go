package decorate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		property string
		inner    string
		want     Value
	}{
		{"checked checkbox", "note.done", `<input type="checkbox" checked>`, Bool(true)},
		{"unchecked checkbox", "note.done", `<input type="CheckBox">`, Bool(false)},
		{"checkbox beats pills", "note.done",
			`<input type="checkbox"><div class="multi-select-pill-content">a</div>`, Bool(false)},
		{"text input", "note.rank", `<input type="text" value=" 12 ">`, String(" 12 ")},
		{"input without value", "note.rank", `<input type="number">`, String("")},
		{"textarea", "note.body", `<textarea>hello</textarea>`, String("hello")},
		{"input beats long text", "note.rank",
			`<div class="metadata-input-longtext">x</div><input value="y">`, String("y")},
		{"pills", "note.tags",
			`<div class="multi-select-pill-content"> a </div><div class="multi-select-pill-content">  </div><div class="multi-select-pill-content">b</div>`,
			List([]string{"a", "b"})},
		{"empty pills", "note.tags", `<div class="multi-select-pill-content"> </div>`, List(nil)},
		{"pills beat long text", "note.tags",
			`<div class="metadata-input-longtext">x</div><div class="multi-select-pill-content">a</div>`,
			List([]string{"a"})},
		{"long text", "note.priority", `<div class="metadata-input-longtext">  47 </div>`, String("47")},
		{"nothing", "note.priority", `<span>47</span>`, Absent()},
		{"formula", "formula.score",
			`<input value="x"><div class="bases-rendered-value"> 12 </div>`, String("12")},
		{"formula without rendered value", "formula.score", `<input value="x">`, Absent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := parseCell(t, tt.property, tt.inner)
			got := Extract(cell, tt.property)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.Equal(t, tt.want.Native(), got.Native())
		})
	}
}

func TestExtractHasNoSideEffects(t *testing.T) {
	cell := parseCell(t, "note.tags", `<div class="multi-select-pill-content"> a </div>`)
	before := cell.Document().String()
	Extract(cell, "note.tags")
	assert.Equal(t, before, cell.Document().String())
}

func TestValue(t *testing.T) {
	assert.True(t, Value{}.IsAbsent())
	assert.Nil(t, Absent().Native())
	assert.Equal(t, true, Bool(true).Native())
	assert.Equal(t, "x", String("x").Native())
	assert.Equal(t, []string{}, List(nil).Native())

	items := []string{"a"}
	v := List(items)
	items[0] = "changed"
	assert.Equal(t, []string{"a"}, v.Native())

	assert.Equal(t, "<absent>", Absent().String())
	assert.Equal(t, `"x"`, String("x").String())
	assert.Equal(t, "[a, b]", List([]string{"a", "b"}).String())
	assert.Equal(t, "list", KindList.String())
}
