// Package domtree adapts golang.org/x/net/html parse trees into the
// minimal element/document surface the anchorkit engine walks: parent
// and element-children access, attribute lookup, direct text content,
// and CSS querying via github.com/andybalholm/cascadia.
//
// This is the concrete binding for the abstract "live element" and
// "document" the rest of the engine is specified against; nothing
// above this package depends on golang.org/x/net/html directly.
package domtree

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree and the base URL it was fetched
// from, used by the engine's URL normalizer.
type Document struct {
	root    *html.Node
	baseURL string
}

// Parse parses r as an HTML document.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("domtree: parse: %w", err)
	}
	return &Document{root: node, baseURL: baseURL}, nil
}

// ParseString parses s as an HTML document.
func ParseString(s string, baseURL string) (*Document, error) {
	return Parse(strings.NewReader(s), baseURL)
}

// BaseURL returns the document's base URL, used for same-origin URL
// normalization. Empty if unknown.
func (d *Document) BaseURL() string {
	return d.baseURL
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{node: n, doc: d}
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	return d.wrap(findElement(d.root, "html"))
}

// Head returns the <head> element, if present.
func (d *Document) Head() *Element {
	return d.wrap(findElement(d.root, "head"))
}

// Body returns the <body> element, if present.
func (d *Document) Body() *Element {
	return d.wrap(findElement(d.root, "body"))
}

// QuerySelectorAll runs selector against the whole document.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	return QuerySelectorAll(d.DocumentElement(), selector)
}

// Element is a navigable handle to one element node in a Document.
type Element struct {
	node *html.Node
	doc  *Document
}

// Node exposes the underlying html.Node for selector matching.
func (e *Element) Node() *html.Node {
	return e.node
}

// OwnerDocument returns the Document this element belongs to.
func (e *Element) OwnerDocument() *Document {
	return e.doc
}

// TagName returns the lowercased tag name.
func (e *Element) TagName() string {
	return e.node.Data
}

// Attr returns the named attribute's value and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns the element's attributes in source order.
func (e *Element) Attrs() []html.Attribute {
	return e.node.Attr
}

// ID returns the element's id attribute, or "" if absent.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// ClassList returns the element's class attribute split on whitespace.
func (e *Element) ClassList() []string {
	v, ok := e.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// IsSVG reports whether this element lives in the SVG namespace.
func (e *Element) IsSVG() bool {
	return e.node.Namespace == "svg"
}

// Parent returns the nearest ancestor element, or nil at the document root.
func (e *Element) Parent() *Element {
	for n := e.node.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// Children returns the element's direct element children, in document
// order. Text and comment nodes are skipped, matching CSS :nth-child
// counting semantics.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// ChildElementByTag returns the first direct child matching tag, e.g.
// <title> under <svg>.
func (e *Element) ChildElementByTag(tag string) *Element {
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return e.doc.wrap(c)
		}
	}
	return nil
}

// NthChild returns the element's 1-based position among its parent's
// element children, or nil if it has no parent.
func (e *Element) NthChild() *int {
	parent := e.Parent()
	if parent == nil {
		return nil
	}
	for i, c := range parent.Children() {
		if c.node == e.node {
			n := i + 1
			return &n
		}
	}
	return nil
}

// NthOfType returns the element's 1-based position among same-tag
// siblings under its parent.
func (e *Element) NthOfType() int {
	parent := e.Parent()
	if parent == nil {
		return 1
	}
	n := 0
	for _, c := range parent.Children() {
		if c.node.Data == e.node.Data {
			n++
			if c.node == e.node {
				return n
			}
		}
	}
	return 1
}

// DirectText returns the concatenation of direct text node children
// (not descendant text), in document order.
func (e *Element) DirectText() string {
	var b strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Descendants returns every descendant element in document order.
func (e *Element) Descendants() []*Element {
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, e.doc.wrap(c))
				walk(c)
			}
		}
	}
	walk(e.node)
	return out
}

// HasDescendantTag reports whether any descendant has the given tag.
func (e *Element) HasDescendantTag(tag string) bool {
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.Data == tag {
				return true
			}
			if e.doc.wrap(c).HasDescendantTag(tag) {
				return true
			}
		}
	}
	return false
}

// Equal reports whether two elements wrap the same underlying node.
func (e *Element) Equal(other *Element) bool {
	return other != nil && e.node == other.node
}

// IsConnected reports whether the element is still reachable from a
// document root (has a non-nil node and a reachable ancestor chain).
func (e *Element) IsConnected() bool {
	if e.node == nil || e.doc == nil {
		return false
	}
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// QuerySelectorAll evaluates selector against root's subtree (root
// inclusive), matching document.querySelectorAll semantics scoped to
// root rather than the whole document.
func QuerySelectorAll(root *Element, selector string) ([]*Element, error) {
	if root == nil {
		return nil, fmt.Errorf("domtree: nil root")
	}
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("domtree: invalid selector %q: %w", selector, err)
	}
	nodes := cascadia.QueryAll(root.node, sel)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, root.doc.wrap(n))
	}
	return out, nil
}

// Matches reports whether el itself matches selector.
func Matches(el *Element, selector string) (bool, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return false, fmt.Errorf("domtree: invalid selector %q: %w", selector, err)
	}
	return sel.Match(el.node), nil
}

// Root is either a *Document or an *Element: the resolver accepts
// either as the scope to query against.
type Root interface {
	rootElement() *Element
	document() *Document
}

func (d *Document) rootElement() *Element { return d.DocumentElement() }
func (d *Document) document() *Document   { return d }

func (e *Element) rootElement() *Element { return e }
func (e *Element) document() *Document   { return e.doc }

// Resolve normalizes a Root into its query-scope element and owning
// document.
func Resolve(root Root) (*Element, *Document, error) {
	if root == nil {
		return nil, nil, fmt.Errorf("domtree: nil root")
	}
	el := root.rootElement()
	if el == nil {
		return nil, nil, fmt.Errorf("domtree: root has no element")
	}
	return el, root.document(), nil
}
