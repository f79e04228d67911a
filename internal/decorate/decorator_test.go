package decorate

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/basestyle/internal/dom"
	"github.com/dshills/basestyle/internal/logging"
	"github.com/dshills/basestyle/internal/notice"
	"github.com/dshills/basestyle/internal/settings"
)

func prioritySettings(prefix string) settings.Settings {
	s := settings.Defaults()
	s.CSSClassPrefix = prefix
	return s
}

func TestDecoratePriorityBuckets(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, rec := newTestDecorator(t)

	stats := d.Decorate(view, prioritySettings("p-"))

	cells := Cells(view, "note.priority")
	require.Len(t, cells, 3)
	assert.Equal(t, [][]string{
		{"bases-td", "p-note-priority-40"},
		{"bases-td"},
		{"bases-td", "theme-accent", "p-note-priority-0"},
	}, classesOf(cells))

	// Exact property match only.
	extra := Cells(view, "note.priority.extra")
	assert.Equal(t, []string{"bases-td"}, extra[0].Classes())

	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, 1, stats.Rules)
	assert.Equal(t, 3, stats.Cells)
	assert.Equal(t, 2, stats.Applied)
	assert.Equal(t, 2, stats.Changed)
	assert.Zero(t, stats.Faults)
}

func TestDecorateStaticTemplate(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, rec := newTestDecorator(t)

	s := settings.Settings{
		CSSClassPrefix: "x-",
		Columns: []settings.ColumnRule{
			{DataProperty: "note.status", Mode: settings.ModeStatic, CSSClasses: "$PREFIX-done, $PREFIX-archived"},
		},
	}
	d.Decorate(view, s)

	for _, cell := range Cells(view, "note.status") {
		assert.Equal(t, []string{"bases-td", "x-done", "x-archived"}, cell.Classes())
	}
	assert.Equal(t, 0, rec.Len())
}

func TestDecorateIsIdempotent(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, _ := newTestDecorator(t)
	s := prioritySettings("p-")

	d.Decorate(view, s)
	first := view.Document().String()

	obs := dom.NewObserver(nil)
	require.NoError(t, obs.Observe(view, dom.ObserveOptions{ChildList: true, CharacterData: true, Attributes: true, Subtree: true}))

	stats := d.Decorate(view, s)
	assert.Equal(t, 0, stats.Changed)
	assert.Empty(t, obs.TakeRecords(), "a second pass must not mutate")
	assert.Equal(t, first, view.Document().String())
}

func TestDecoratePrefixContainment(t *testing.T) {
	view := parseView(t, `<div class="bases-view">
  <div class="bases-td host-a p-stale host-b p-other" data-property="note.priority"><div class="metadata-input-longtext">31</div></div>
  <div class="bases-td p-untouched" data-property="note.unrelated">x</div>
</div>`)
	d, _ := newTestDecorator(t)

	d.Decorate(view, prioritySettings("p-"))

	cell := Cells(view, "note.priority")[0]
	assert.Equal(t, []string{"bases-td", "host-a", "host-b", "p-note-priority-30"}, cell.Classes())

	// Cells no rule targets keep everything.
	assert.Equal(t, []string{"bases-td", "p-untouched"}, Cells(view, "note.unrelated")[0].Classes())
}

func TestDecorateFaultIsolation(t *testing.T) {
	view := parseView(t, `<div class="bases-view">
  <div class="bases-td" data-property="note.state"><div class="metadata-input-longtext">a</div></div>
  <div class="bases-td" data-property="note.state"><div class="metadata-input-longtext">boom</div></div>
  <div class="bases-td" data-property="note.state"><div class="metadata-input-longtext">c</div></div>
</div>`)
	d, rec := newTestDecorator(t)

	s := settings.Settings{
		CSSClassPrefix: "s-",
		Columns: []settings.ColumnRule{{
			DataProperty: "note.state",
			Mode:         settings.ModeComputed,
			Snippet:      `if value == "boom" then error("bad value") end return { "$PREFIX-" .. value }`,
		}},
	}
	stats := d.Decorate(view, s)

	assert.Equal(t, [][]string{
		{"bases-td", "s-a"},
		{"bases-td"},
		{"bases-td", "s-c"},
	}, classesOf(Cells(view, "note.state")))

	assert.Equal(t, 1, stats.Faults)
	faults := rec.OfKind(notice.KindComputationFault)
	require.Len(t, faults, 1)
	assert.Equal(t, notice.LevelError, faults[0].Level)
	assert.Equal(t, "note.state", faults[0].Property)
	assert.Contains(t, faults[0].Message, "Error in snippet for note.state")
	assert.Equal(t, 1, rec.Len())
}

func TestDecorateOnlyLastFaultReported(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, rec := newTestDecorator(t)

	s := settings.Settings{
		CSSClassPrefix: "p-",
		Columns: []settings.ColumnRule{
			{DataProperty: "note.priority", Mode: settings.ModeComputed, Snippet: `error("first")`},
			{DataProperty: "note.status", Mode: settings.ModeComputed, Snippet: `error("second")`},
		},
	}
	stats := d.Decorate(view, s)

	assert.Equal(t, 5, stats.Faults)
	faults := rec.OfKind(notice.KindComputationFault)
	require.Len(t, faults, 1)
	assert.Equal(t, "note.status", faults[0].Property)
	assert.Contains(t, faults[0].Message, "second")
}

func TestDecorateRejectsBareClassNames(t *testing.T) {
	view := parseView(t, `<div class="bases-view">
  <div class="bases-td" data-property="note.kind"><div class="metadata-input-longtext">k</div></div>
</div>`)
	d, rec := newTestDecorator(t)

	s := settings.Settings{
		CSSClassPrefix: "k-",
		Columns: []settings.ColumnRule{
			{DataProperty: "note.kind", Mode: settings.ModeComputed, Snippet: `return { "bare", "$PREFIX-ok", "", "other" }`},
		},
	}
	stats := d.Decorate(view, s)

	assert.Equal(t, []string{"bases-td", "k-ok"}, Cells(view, "note.kind")[0].Classes())
	assert.Equal(t, 2, stats.Rejected)

	violations := rec.OfKind(notice.KindPolicyViolation)
	require.Len(t, violations, 2)
	assert.Equal(t,
		`Invalid class name "bare" for note.kind. Classes must start with "k-" (prefix can be changed in settings)`,
		violations[0].Message)
	assert.Equal(t, notice.LevelWarning, violations[0].Level)
	assert.Contains(t, violations[1].Message, `"other"`)
}

func TestDecorateStaticRejectsBareEntries(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, rec := newTestDecorator(t)

	s := settings.Settings{
		CSSClassPrefix: "x-",
		Columns: []settings.ColumnRule{
			{DataProperty: "note.status", Mode: settings.ModeStatic, CSSClasses: "done, $PREFIX-ok"},
		},
	}
	d.Decorate(view, s)

	assert.Len(t, rec.OfKind(notice.KindPolicyViolation), 2, "one per cell")
	for _, cell := range Cells(view, "note.status") {
		assert.Equal(t, []string{"bases-td", "x-ok"}, cell.Classes())
	}
}

func TestDecorateLaterRuleReplacesEarlier(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, _ := newTestDecorator(t)

	s := settings.Settings{
		CSSClassPrefix: "x-",
		Columns: []settings.ColumnRule{
			{DataProperty: "note.status", Mode: settings.ModeStatic, CSSClasses: "$PREFIX-first"},
			{DataProperty: "note.status", Mode: settings.ModeStatic, CSSClasses: "$PREFIX-second"},
		},
	}
	stats := d.Decorate(view, s)

	for _, cell := range Cells(view, "note.status") {
		assert.Equal(t, []string{"bases-td", "x-second"}, cell.Classes())
	}
	assert.Equal(t, 2, stats.Changed, "each cell is written once")
}

func TestDecorateEmptyPrefixSkips(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, rec := newTestDecorator(t)
	before := view.Document().String()

	stats := d.Decorate(view, prioritySettings(""))

	assert.True(t, stats.Skipped)
	assert.Equal(t, before, view.Document().String())
	require.Len(t, rec.OfKind(notice.KindInvalidPrefix), 1)
}

func TestDecorateHooksAndLogging(t *testing.T) {
	view := parseView(t, baseViewHTML)

	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf, Format: logging.FormatJSON})

	var got []Stats
	d, _ := newTestDecorator(t,
		WithLogger(logger),
		WithAfterPass(func(container dom.Element, s Stats) {
			assert.Equal(t, view, container)
			got = append(got, s)
		}))

	d.Decorate(view, prioritySettings("p-"))
	d.Decorate(view, prioritySettings(""))

	require.Len(t, got, 2)
	assert.False(t, got[0].Skipped)
	assert.True(t, got[1].Skipped)
	assert.Contains(t, buf.String(), "decorated 3 cells")
}

func TestDecorateSnippetSeesStrippedClasses(t *testing.T) {
	view := parseView(t, `<div class="bases-view">
  <div class="bases-td host p-old" data-property="note.x"><div class="metadata-input-longtext">v</div></div>
</div>`)
	d, _ := newTestDecorator(t)

	s := settings.Settings{
		CSSClassPrefix: "p-",
		Columns: []settings.ColumnRule{{
			DataProperty: "note.x",
			Mode:         settings.ModeComputed,
			Snippet:      `return { "$PREFIX-n" .. #el.classes, "$PREFIX-" .. el.property }`,
		}},
	}
	d.Decorate(view, s)

	assert.Equal(t, []string{"bases-td", "host", "p-n2", "p-note.x"}, Cells(view, "note.x")[0].Classes())
}

func TestDecorateRulesDoNotShareSnippetGlobals(t *testing.T) {
	view := parseView(t, baseViewHTML)
	d, rec := newTestDecorator(t)

	s := prioritySettings("p-")
	tamper := settings.ColumnRule{
		DataProperty: "note.status",
		Mode:         settings.ModeComputed,
		Snippet:      `_G.tonumber = nil; string.format = nil; math.floor = nil; return {}`,
	}
	s.Columns = append([]settings.ColumnRule{tamper}, s.Columns...)

	for i := 0; i < 2; i++ {
		stats := d.Decorate(view, s)
		assert.Zero(t, stats.Faults)
	}

	assert.Equal(t, [][]string{
		{"bases-td", "p-note-priority-40"},
		{"bases-td"},
		{"bases-td", "theme-accent", "p-note-priority-0"},
	}, classesOf(Cells(view, "note.priority")))
	assert.Empty(t, rec.OfKind(notice.KindComputationFault))
}

func TestDecorateStopsTimedOutRuleForThePass(t *testing.T) {
	const (
		timeout = 100 * time.Millisecond
		cells   = 10
	)

	var b strings.Builder
	b.WriteString(`<div class="bases-view">`)
	for i := 0; i < cells; i++ {
		fmt.Fprintf(&b, `<div class="bases-td" data-property="note.loop"><div class="metadata-input-longtext">%d</div></div>`, i)
	}
	b.WriteString(`<div class="bases-td" data-property="note.status"><div class="metadata-input-longtext">open</div></div>`)
	b.WriteString(`</div>`)
	view := parseView(t, b.String())

	d, rec := newTimedDecorator(t, timeout)
	s := settings.Settings{
		CSSClassPrefix: "p-",
		Columns: []settings.ColumnRule{
			{DataProperty: "note.loop", Mode: settings.ModeComputed, Snippet: `while true do end`},
			{DataProperty: "note.status", Mode: settings.ModeStatic, CSSClasses: "$PREFIX-status"},
		},
	}

	start := time.Now()
	stats := d.Decorate(view, s)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, cells*timeout/2)
	assert.Equal(t, cells, stats.Faults)
	for _, cell := range Cells(view, "note.loop") {
		assert.Equal(t, []string{"bases-td"}, cell.Classes())
	}
	assert.Equal(t, []string{"bases-td", "p-status"}, Cells(view, "note.status")[0].Classes())

	faults := rec.OfKind(notice.KindComputationFault)
	require.Len(t, faults, 1)
	assert.Equal(t, "note.loop", faults[0].Property)
	assert.Contains(t, faults[0].Message, "timed out")

	// The next pass runs the snippet again.
	rec.Reset()
	stats = d.Decorate(view, s)
	assert.Equal(t, cells, stats.Faults)
	assert.Len(t, rec.OfKind(notice.KindComputationFault), 1)
}
