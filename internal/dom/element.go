package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Element is a handle to one node of a Document.
// The zero Element refers to nothing.
type Element struct {
	doc *Document
	n   *html.Node
}

// IsZero returns true for the zero Element.
func (e Element) IsZero() bool {
	return e.n == nil
}

// Node returns the underlying parse-tree node.
func (e Element) Node() *html.Node {
	return e.n
}

// Document returns the owning document.
func (e Element) Document() *Document {
	return e.doc
}

// IsElement reports whether the node is an element node.
func (e Element) IsElement() bool {
	return e.n != nil && e.n.Type == html.ElementNode
}

// IsText reports whether the node is a text node.
func (e Element) IsText() bool {
	return e.n != nil && e.n.Type == html.TextNode
}

// Tag returns the element name, or "" for non-element nodes.
func (e Element) Tag() string {
	if !e.IsElement() {
		return ""
	}
	return e.n.Data
}

// Parent returns the parent node, or the zero Element.
func (e Element) Parent() Element {
	if e.n == nil || e.n.Parent == nil {
		return Element{}
	}
	return Element{doc: e.doc, n: e.n.Parent}
}

// ChildNodes returns all children, including text nodes.
func (e Element) ChildNodes() []Element {
	if e.n == nil {
		return nil
	}
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, Element{doc: e.doc, n: c})
	}
	return out
}

// Children returns the element children.
func (e Element) Children() []Element {
	if e.n == nil {
		return nil
	}
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, Element{doc: e.doc, n: c})
		}
	}
	return out
}

// Contains reports whether other is e or one of its descendants.
func (e Element) Contains(other Element) bool {
	if e.n == nil || other.n == nil {
		return false
	}
	for n := other.n; n != nil; n = n.Parent {
		if n == e.n {
			return true
		}
	}
	return false
}

// --- Attributes ------------------------------------------------------------

// Attr returns the value of an attribute and whether it is present.
func (e Element) Attr(key string) (string, bool) {
	if e.n == nil {
		return "", false
	}
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when absent.
func (e Element) AttrOr(key, def string) string {
	if v, ok := e.Attr(key); ok {
		return v
	}
	return def
}

// HasAttr reports whether the attribute is present.
func (e Element) HasAttr(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

// Attrs returns a copy of all attributes as a map.
func (e Element) Attrs() map[string]string {
	out := make(map[string]string)
	if e.n == nil {
		return out
	}
	for _, a := range e.n.Attr {
		out[a.Key] = a.Val
	}
	return out
}

// SetAttr sets an attribute. Setting an identical value records nothing.
func (e Element) SetAttr(key, val string) {
	if !e.IsElement() {
		return
	}
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			if a.Val == val {
				return
			}
			e.n.Attr[i].Val = val
			e.notify(Record{Type: Attributes, Target: e, AttributeName: key, OldValue: a.Val})
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
	e.notify(Record{Type: Attributes, Target: e, AttributeName: key})
}

// RemoveAttr removes an attribute if present.
func (e Element) RemoveAttr(key string) {
	if !e.IsElement() {
		return
	}
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			e.n.Attr = append(e.n.Attr[:i], e.n.Attr[i+1:]...)
			e.notify(Record{Type: Attributes, Target: e, AttributeName: key, OldValue: a.Val})
			return
		}
	}
}

// --- Classes ---------------------------------------------------------------

// Classes returns the class list in attribute order.
func (e Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether the class list contains name.
func (e Element) HasClass(name string) bool {
	for _, c := range e.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends a class if it is not already present.
func (e Element) AddClass(name string) {
	name = strings.TrimSpace(name)
	if name == "" || e.HasClass(name) {
		return
	}
	e.SetClasses(append(e.Classes(), name))
}

// RemoveClass removes every occurrence of a class.
func (e Element) RemoveClass(name string) {
	classes := e.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if c != name {
			kept = append(kept, c)
		}
	}
	e.SetClasses(kept)
}

// SetClasses replaces the class list. Duplicates are dropped, keeping the
// first occurrence. An unchanged list records nothing.
func (e Element) SetClasses(classes []string) {
	seen := make(map[string]bool, len(classes))
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}

	cur, had := e.Attr("class")
	next := strings.Join(out, " ")
	if had && cur == next {
		return
	}
	if !had && next == "" {
		return
	}
	e.SetAttr("class", next)
}

// --- Text ------------------------------------------------------------------

// Text returns the concatenated text of the node and its descendants.
func (e Element) Text() string {
	if e.n == nil {
		return ""
	}
	if e.n.Type == html.TextNode {
		return e.n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				sb.WriteString(c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(e.n)
	return sb.String()
}

// SetText replaces all children with one text node.
func (e Element) SetText(text string) {
	if !e.IsElement() {
		return
	}
	e.ReplaceChildren(e.doc.CreateText(text))
}

// SetData changes the content of a text node in place.
func (e Element) SetData(text string) {
	if !e.IsText() || e.n.Data == text {
		return
	}
	old := e.n.Data
	e.n.Data = text
	e.notify(Record{Type: CharacterData, Target: e, OldValue: old})
}

// --- Structure -------------------------------------------------------------

// AppendChild appends a detached node of the same document.
func (e Element) AppendChild(child Element) error {
	if e.n == nil || child.n == nil {
		return ErrNoTarget
	}
	if child.doc != e.doc {
		return ErrForeignNode
	}
	if child.n.Parent != nil {
		return ErrAttached
	}
	e.n.AppendChild(child.n)
	e.notify(Record{Type: ChildList, Target: e, Added: []Element{child}})
	return nil
}

// RemoveChild detaches a child node.
func (e Element) RemoveChild(child Element) error {
	if e.n == nil || child.n == nil {
		return ErrNoTarget
	}
	if child.n.Parent != e.n {
		return ErrNotChild
	}
	e.n.RemoveChild(child.n)
	e.notify(Record{Type: ChildList, Target: e, Removed: []Element{child}})
	return nil
}

// ReplaceChildren removes all children and appends nodes, recording a
// single child-list mutation. Nodes that already have a parent are skipped.
func (e Element) ReplaceChildren(nodes ...Element) {
	if e.n == nil {
		return
	}
	var removed []Element
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		removed = append(removed, Element{doc: e.doc, n: c})
		c = next
	}
	var added []Element
	for _, node := range nodes {
		if node.n == nil || node.n.Parent != nil || node.doc != e.doc {
			continue
		}
		e.n.AppendChild(node.n)
		added = append(added, node)
	}
	if len(removed) == 0 && len(added) == 0 {
		return
	}
	e.notify(Record{Type: ChildList, Target: e, Added: added, Removed: removed})
}

// SetInnerHTML replaces the children with a parsed fragment.
func (e Element) SetInnerHTML(fragment string) error {
	if !e.IsElement() {
		return ErrNoTarget
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.n)
	if err != nil {
		return err
	}
	wrapped := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		wrapped = append(wrapped, Element{doc: e.doc, n: n})
	}
	e.ReplaceChildren(wrapped...)
	return nil
}

// InnerHTML renders the children as HTML.
func (e Element) InnerHTML() string {
	if e.n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// AppendHTML parses a fragment and appends its nodes.
func (e Element) AppendHTML(fragment string) error {
	if !e.IsElement() {
		return ErrNoTarget
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.n)
	if err != nil {
		return err
	}
	added := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		e.n.AppendChild(n)
		added = append(added, Element{doc: e.doc, n: n})
	}
	if len(added) > 0 {
		e.notify(Record{Type: ChildList, Target: e, Added: added})
	}
	return nil
}

func (e Element) notify(rec Record) {
	if e.doc != nil {
		e.doc.notify(rec)
	}
}
