package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns a parse tree and the observers registered on it.
type Document struct {
	root          *html.Node
	registrations []*registration
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(root), nil
}

// ParseString reads an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument wraps an existing parse tree.
func NewDocument(root *html.Node) *Document {
	if root == nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	return &Document{root: root}
}

// Root returns the document node.
func (d *Document) Root() Element {
	return Element{doc: d, n: d.root}
}

// Body returns the body element, or the root if the tree has none.
func (d *Document) Body() Element {
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if b := find(c); b != nil {
				return b
			}
		}
		return nil
	}
	if b := find(d.root); b != nil {
		return Element{doc: d, n: b}
	}
	return d.Root()
}

// Wrap returns the Element for a node of this document.
func (d *Document) Wrap(n *html.Node) Element {
	if n == nil {
		return Element{}
	}
	return Element{doc: d, n: n}
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) Element {
	a := atom.Lookup([]byte(tag))
	return Element{doc: d, n: &html.Node{Type: html.ElementNode, Data: tag, DataAtom: a}}
}

// CreateText returns a new detached text node.
func (d *Document) CreateText(text string) Element {
	return Element{doc: d, n: &html.Node{Type: html.TextNode, Data: text}}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// notify routes a record to every matching registration.
func (d *Document) notify(rec Record) {
	if len(d.registrations) == 0 {
		return
	}
	// Copy so an observer disconnecting from inside enqueue cannot shift the slice.
	regs := make([]*registration, len(d.registrations))
	copy(regs, d.registrations)
	for _, reg := range regs {
		if reg.matches(rec) {
			reg.observer.enqueue(rec)
		}
	}
}

func (d *Document) addRegistration(reg *registration) {
	for i, existing := range d.registrations {
		if existing.observer == reg.observer && existing.target == reg.target {
			d.registrations[i] = reg
			return
		}
	}
	d.registrations = append(d.registrations, reg)
}

func (d *Document) removeObserver(o *Observer) {
	kept := d.registrations[:0]
	for _, reg := range d.registrations {
		if reg.observer != o {
			kept = append(kept, reg)
		}
	}
	for i := len(kept); i < len(d.registrations); i++ {
		d.registrations[i] = nil
	}
	d.registrations = kept
}

// ObserverCount returns how many observer registrations the document holds.
func (d *Document) ObserverCount() int {
	return len(d.registrations)
}
