package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const viewHTML = `<div class="view">
  <div class="bases-td theme-x" data-property="status"><span>done</span></div>
  <div class="bases-td" data-property="status.extra">x</div>
  <div class="bases-td" data-property="note.priority">47</div>
</div>`

func parseView(t *testing.T) (*Document, Element) {
	t.Helper()
	doc, err := ParseString(viewHTML)
	require.NoError(t, err)
	view, ok := doc.Root().QueryFirst(MustCompile("div.view"))
	require.True(t, ok)
	return doc, view
}

func TestQueryAll_DescendantsOnly(t *testing.T) {
	_, view := parseView(t)

	divs := view.QueryAll(MustCompile("div"))
	assert.Len(t, divs, 3)
	for _, d := range divs {
		assert.NotEqual(t, view, d)
	}

	cells, err := view.Select(`div.bases-td[data-property="status"]`)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "done", cells[0].Text())
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("div[")
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("div[") })
}

func TestElement_Classes(t *testing.T) {
	doc, view := parseView(t)
	cell := view.Children()[0]

	assert.Equal(t, []string{"bases-td", "theme-x"}, cell.Classes())
	assert.True(t, cell.HasClass("theme-x"))

	cell.AddClass("base-styled-done")
	cell.AddClass("base-styled-done")
	assert.Equal(t, []string{"bases-td", "theme-x", "base-styled-done"}, cell.Classes())

	cell.RemoveClass("theme-x")
	assert.Equal(t, []string{"bases-td", "base-styled-done"}, cell.Classes())

	cell.SetClasses([]string{"a", "b", "a", ""})
	assert.Equal(t, []string{"a", "b"}, cell.Classes())
	assert.Contains(t, doc.String(), `class="a b"`)
}

func TestElement_Attrs(t *testing.T) {
	_, view := parseView(t)
	cell := view.Children()[2]

	v, ok := cell.Attr("data-property")
	assert.True(t, ok)
	assert.Equal(t, "note.priority", v)
	assert.Equal(t, "fallback", cell.AttrOr("missing", "fallback"))

	cell.SetAttr("value", "1")
	assert.True(t, cell.HasAttr("value"))
	cell.RemoveAttr("value")
	assert.False(t, cell.HasAttr("value"))
	assert.Equal(t, "note.priority", cell.Attrs()["data-property"])
}

func TestElement_TextAndStructure(t *testing.T) {
	doc, view := parseView(t)
	cell := view.Children()[0]

	cell.SetText("archived")
	assert.Equal(t, "archived", cell.Text())

	span := doc.CreateElement("span")
	require.NoError(t, cell.AppendChild(span))
	assert.ErrorIs(t, cell.AppendChild(span), ErrAttached)
	assert.True(t, view.Contains(span))
	assert.Equal(t, cell, span.Parent())

	require.NoError(t, cell.RemoveChild(span))
	assert.ErrorIs(t, cell.RemoveChild(span), ErrNotChild)

	other, err := ParseString("<p>x</p>")
	require.NoError(t, err)
	assert.ErrorIs(t, cell.AppendChild(other.CreateElement("b")), ErrForeignNode)

	require.NoError(t, cell.SetInnerHTML(`<input type="checkbox" checked>`))
	input, ok := cell.QueryFirst(MustCompile("input"))
	require.True(t, ok)
	assert.True(t, input.HasAttr("checked"))

	require.NoError(t, cell.AppendHTML(`<em>tail</em>`))
	assert.Len(t, cell.Children(), 2)
}

func TestElement_InnerHTML(t *testing.T) {
	_, view := parseView(t)
	cell := view.Children()[0]
	assert.Equal(t, "<span>done</span>", cell.InnerHTML())
	assert.Equal(t, "", Element{}.InnerHTML())

	other := view.Children()[1]
	require.NoError(t, other.SetInnerHTML(cell.InnerHTML()))
	assert.Equal(t, "done", other.Text())
}

func TestObserver_SubtreeChildList(t *testing.T) {
	_, view := parseView(t)

	var batches [][]Record
	obs := NewObserver(func(recs []Record, _ *Observer) {
		batches = append(batches, recs)
	})
	require.NoError(t, obs.Observe(view, ObserveOptions{ChildList: true, Subtree: true}))

	cell := view.Children()[0]
	cell.SetText("a")
	cell.SetText("b")
	cell.AddClass("ignored") // attributes not observed

	obs.Deliver()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
	assert.Equal(t, ChildList, batches[0][0].Type)
	assert.Equal(t, cell, batches[0][0].Target)
}

func TestObserver_NoSubtree(t *testing.T) {
	_, view := parseView(t)

	obs := NewObserver(nil)
	require.NoError(t, obs.Observe(view, ObserveOptions{ChildList: true}))

	view.Children()[0].SetText("deep")
	assert.Empty(t, obs.TakeRecords())

	require.NoError(t, view.AppendHTML("<div>new</div>"))
	assert.Len(t, obs.TakeRecords(), 1)
}

func TestObserver_AttributeFilter(t *testing.T) {
	doc, view := parseView(t)
	cell := view.Children()[2]
	input := doc.CreateElement("input")
	require.NoError(t, cell.AppendChild(input))

	obs := NewObserver(nil)
	require.NoError(t, obs.Observe(view, ObserveOptions{
		Attributes:      true,
		AttributeFilter: []string{"value", "checked"},
		Subtree:         true,
	}))

	input.SetAttr("value", "12")
	input.SetAttr("value", "12") // unchanged, no record
	cell.AddClass("base-styled-x")
	input.SetAttr("checked", "")

	recs := obs.TakeRecords()
	require.Len(t, recs, 2)
	assert.Equal(t, "value", recs[0].AttributeName)
	assert.Equal(t, "checked", recs[1].AttributeName)
}

func TestObserver_CharacterData(t *testing.T) {
	_, view := parseView(t)
	cell := view.Children()[2]
	text := cell.ChildNodes()[0]
	require.True(t, text.IsText())

	obs := NewObserver(nil)
	require.NoError(t, obs.Observe(view, ObserveOptions{CharacterData: true, Subtree: true}))

	text.SetData("52")
	recs := obs.TakeRecords()
	require.Len(t, recs, 1)
	assert.Equal(t, CharacterData, recs[0].Type)
	assert.Equal(t, "47", recs[0].OldValue)
	assert.Equal(t, "52", cell.Text())
}

func TestObserver_SchedulerBatches(t *testing.T) {
	_, view := parseView(t)

	var queued []func()
	var delivered int
	obs := NewObserver(func(recs []Record, _ *Observer) {
		delivered += len(recs)
	}, WithScheduler(func(f func()) { queued = append(queued, f) }))
	require.NoError(t, obs.Observe(view, ObserveOptions{ChildList: true, Subtree: true}))

	for i := 0; i < 5; i++ {
		view.Children()[0].SetText(strings.Repeat("x", i+1))
	}
	require.Len(t, queued, 1)
	queued[0]()
	assert.Equal(t, 5, delivered)

	view.Children()[0].SetText("again")
	assert.Len(t, queued, 2)
}

func TestObserver_Disconnect(t *testing.T) {
	doc, view := parseView(t)

	var queued []func()
	called := false
	obs := NewObserver(func([]Record, *Observer) { called = true },
		WithScheduler(func(f func()) { queued = append(queued, f) }))
	require.NoError(t, obs.Observe(view, ObserveOptions{ChildList: true, Subtree: true}))
	assert.Equal(t, 1, doc.ObserverCount())

	view.Children()[0].SetText("a")
	obs.Disconnect()
	require.Len(t, queued, 1)
	queued[0]()

	assert.False(t, called)
	assert.Equal(t, 0, doc.ObserverCount())

	view.Children()[0].SetText("b")
	assert.Empty(t, obs.TakeRecords())
}

func TestObserver_InvalidOptions(t *testing.T) {
	_, view := parseView(t)
	obs := NewObserver(nil)

	assert.ErrorIs(t, obs.Observe(view, ObserveOptions{Subtree: true}), ErrInvalidOptions)
	assert.ErrorIs(t, obs.Observe(Element{}, ObserveOptions{ChildList: true}), ErrNoTarget)
}

func TestObserver_ReobserveReplacesOptions(t *testing.T) {
	doc, view := parseView(t)
	obs := NewObserver(nil)

	require.NoError(t, obs.Observe(view, ObserveOptions{ChildList: true}))
	require.NoError(t, obs.Observe(view, ObserveOptions{ChildList: true, Subtree: true}))
	assert.Equal(t, 1, doc.ObserverCount())

	view.Children()[0].SetText("deep")
	assert.Len(t, obs.TakeRecords(), 1)
}

func TestDump(t *testing.T) {
	_, view := parseView(t)
	view.Children()[0].AddClass("base-styled-done")

	out := view.Dump()
	assert.Contains(t, out, "div.view")
	assert.Contains(t, out, `div.bases-td.theme-x.base-styled-done[data-property="status"]`)
	assert.Contains(t, out, `"47"`)
	assert.Equal(t, "", Element{}.Dump())
}

func TestDocument_Body(t *testing.T) {
	doc, err := ParseString("<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "body", doc.Body().Tag())
	assert.False(t, NewDocument(nil).Body().IsZero())
}
