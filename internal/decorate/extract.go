package decorate

import (
	"strings"

	"github.com/dshills/basestyle/internal/dom"
)

// Extract reads the value cell displays for property. The first matching
// rule wins:
//
//  1. a checkbox input yields its checked state;
//  2. another input yields its value attribute, a textarea its text;
//  3. multi-select pills yield their trimmed, non-empty texts;
//  4. a long-text widget yields its trimmed text.
//
// For formula properties the rendered value's trimmed text replaces all of
// the above. Nothing recognised yields an absent value.
func Extract(cell dom.Element, property string) Value {
	if strings.HasPrefix(property, FormulaPrefix) {
		if rendered, ok := cell.QueryFirst(renderedValueSel); ok {
			return String(strings.TrimSpace(rendered.Text()))
		}
		return Absent()
	}

	if input, ok := cell.QueryFirst(inputSel); ok {
		if input.Tag() == "textarea" {
			return String(input.Text())
		}
		if strings.EqualFold(input.AttrOr("type", ""), "checkbox") {
			return Bool(input.HasAttr("checked"))
		}
		return String(input.AttrOr("value", ""))
	}

	if pills := cell.QueryAll(pillSel); len(pills) > 0 {
		items := make([]string, 0, len(pills))
		for _, pill := range pills {
			if text := strings.TrimSpace(pill.Text()); text != "" {
				items = append(items, text)
			}
		}
		return List(items)
	}

	if long, ok := cell.QueryFirst(longTextSel); ok {
		return String(strings.TrimSpace(long.Text()))
	}

	return Absent()
}
