package dom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"
	"golang.org/x/net/html"
)

// Dump renders the element subtree as an indented tree, one line per
// element or non-blank text node. Classes and data-* attributes are shown,
// which is what a decoration diff is about.
func (e Element) Dump() string {
	if e.n == nil {
		return ""
	}
	tree := treeprint.NewWithRoot(nodeLabel(e.n))
	addBranches(tree, e.n)
	return tree.String()
}

func addBranches(tree treeprint.Tree, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if c.FirstChild == nil {
				tree.AddNode(nodeLabel(c))
				continue
			}
			addBranches(tree.AddBranch(nodeLabel(c)), c)
		case html.TextNode:
			if text := strings.TrimSpace(c.Data); text != "" {
				tree.AddNode(fmt.Sprintf("%q", text))
			}
		}
	}
}

func nodeLabel(n *html.Node) string {
	switch n.Type {
	case html.DocumentNode:
		return "#document"
	case html.TextNode:
		return fmt.Sprintf("%q", n.Data)
	case html.ElementNode:
	default:
		return fmt.Sprintf("#node(%d)", n.Type)
	}

	var sb strings.Builder
	sb.WriteString(n.Data)

	var data []string
	for _, a := range n.Attr {
		switch {
		case a.Key == "id":
			sb.WriteString("#" + a.Val)
		case a.Key == "class":
			for _, c := range strings.Fields(a.Val) {
				sb.WriteString("." + c)
			}
		case strings.HasPrefix(a.Key, "data-"):
			data = append(data, fmt.Sprintf("[%s=%q]", a.Key, a.Val))
		}
	}
	sort.Strings(data)
	for _, d := range data {
		sb.WriteString(d)
	}
	return sb.String()
}
