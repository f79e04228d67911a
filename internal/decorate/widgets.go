package decorate

import "github.com/dshills/basestyle/internal/dom"

// Host markup contract. These names follow the host's rendering of base
// views and change when the host does.
const (
	// CellClass marks a table cell.
	CellClass = "bases-td"
	// PropertyAttr names the property a cell shows.
	PropertyAttr = "data-property"
	// PillClass wraps the text of one multi-select pill.
	PillClass = "multi-select-pill-content"
	// LongTextClass holds free text.
	LongTextClass = "metadata-input-longtext"
	// RenderedValueClass holds the rendered result of a formula property.
	RenderedValueClass = "bases-rendered-value"
	// FormulaPrefix marks formula properties.
	FormulaPrefix = "formula."
)

var (
	cellSel          = dom.MustCompile("div." + CellClass)
	inputSel         = dom.MustCompile("input, textarea")
	pillSel          = dom.MustCompile("." + PillClass)
	longTextSel      = dom.MustCompile("." + LongTextClass)
	renderedValueSel = dom.MustCompile("." + RenderedValueClass)
)

// Cells returns the cells under container whose data-property equals
// property exactly, in document order.
func Cells(container dom.Element, property string) []dom.Element {
	var out []dom.Element
	for _, cell := range container.QueryAll(cellSel) {
		if v, ok := cell.Attr(PropertyAttr); ok && v == property {
			out = append(out, cell)
		}
	}
	return out
}
