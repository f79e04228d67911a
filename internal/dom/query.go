package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
)

// Selector is a compiled CSS selector.
type Selector = cascadia.Selector

var selectorCache sync.Map // string -> cascadia.Selector

// Compile parses a CSS selector, caching the result.
func Compile(selector string) (Selector, error) {
	if cached, ok := selectorCache.Load(selector); ok {
		return cached.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	selectorCache.Store(selector, sel)
	return sel, nil
}

// MustCompile is Compile for selectors known to be valid.
func MustCompile(selector string) Selector {
	sel, err := Compile(selector)
	if err != nil {
		panic(err)
	}
	return sel
}

// QueryAll returns the descendants matching sel in document order.
// The element itself is never part of the result.
func (e Element) QueryAll(sel Selector) []Element {
	if e.n == nil || sel == nil {
		return nil
	}
	matches := sel.MatchAll(e.n)
	out := make([]Element, 0, len(matches))
	for _, m := range matches {
		if m == e.n {
			continue
		}
		out = append(out, Element{doc: e.doc, n: m})
	}
	return out
}

// QueryFirst returns the first descendant matching sel.
func (e Element) QueryFirst(sel Selector) (Element, bool) {
	if e.n == nil || sel == nil {
		return Element{}, false
	}
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if m := sel.MatchFirst(c); m != nil {
			return Element{doc: e.doc, n: m}, true
		}
	}
	return Element{}, false
}

// Select compiles selector and returns all matching descendants.
func (e Element) Select(selector string) ([]Element, error) {
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	return e.QueryAll(sel), nil
}

// Matches reports whether the element itself matches sel.
func (e Element) Matches(sel Selector) bool {
	return e.n != nil && sel != nil && sel.Match(e.n)
}
