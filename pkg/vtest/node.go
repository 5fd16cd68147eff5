package vtest

import (
	"fmt"
	"html"
	"slices"
	"sort"
	"strings"
)

// NodeKind is the Node type discriminator.
type NodeKind uint8

const (
	ElementNode NodeKind = iota + 1
	TextNode
	CommentNode
)

// Node is a node of the in-memory host tree.
type Node struct {
	Kind NodeKind
	Tag  string // elements
	Data string // text and comments

	Attrs  map[string]string
	Props  map[string]any
	Events map[string]func(any)

	Parent   *Node
	Children []*Node

	id int
}

// ID returns the node's creation sequence number within its backend.
func (n *Node) ID() int { return n.id }

func (n *Node) String() string {
	switch n.Kind {
	case ElementNode:
		return fmt.Sprintf("<%s#%d>", n.Tag, n.id)
	case TextNode:
		return fmt.Sprintf("%q#%d", n.Data, n.id)
	default:
		return fmt.Sprintf("<!--%s#%d-->", n.Data, n.id)
	}
}

// Attr returns the value of an attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Text returns the concatenated text content of n and its descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	n.walk(func(c *Node) bool {
		if c.Kind == TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first element below n with the given tag, depth first.
func (n *Node) Find(tag string) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c != n && c.Kind == ElementNode && c.Tag == tag {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every element below n with the given tag in document
// order.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		if c != n && c.Kind == ElementNode && c.Tag == tag {
			out = append(out, c)
		}
		return true
	})
	return out
}

// walk visits n and its descendants until fn returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// HTML serializes the children of n. Comments are left out, attributes are
// sorted by name.
func (n *Node) HTML() string {
	var sb strings.Builder
	for _, c := range n.Children {
		writeHTML(&sb, c)
	}
	return sb.String()
}

func writeHTML(sb *strings.Builder, n *Node) {
	switch n.Kind {
	case TextNode:
		sb.WriteString(html.EscapeString(n.Data))
	case ElementNode:
		sb.WriteByte('<')
		sb.WriteString(n.Tag)
		names := make([]string, 0, len(n.Attrs))
		for name := range n.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteByte(' ')
			sb.WriteString(name)
			if v := n.Attrs[name]; v != "" {
				sb.WriteString(`="`)
				sb.WriteString(html.EscapeString(v))
				sb.WriteByte('"')
			}
		}
		sb.WriteByte('>')
		for _, c := range n.Children {
			writeHTML(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.Tag)
		sb.WriteByte('>')
	}
}

func (n *Node) index() int {
	if n.Parent == nil {
		return -1
	}
	return slices.Index(n.Parent.Children, n)
}

// detachRun removes the sibling run [start, end] from its parent and returns
// it. A detached start is a run of one.
func detachRun(start, end *Node) []*Node {
	parent := start.Parent
	if parent == nil {
		if start != end {
			panic(fmt.Sprintf("vtest: detached range %s..%s", start, end))
		}
		return []*Node{start}
	}
	i, j := start.index(), end.index()
	if end.Parent != parent || j < i {
		panic(fmt.Sprintf("vtest: %s..%s is not a sibling run", start, end))
	}
	run := slices.Clone(parent.Children[i : j+1])
	parent.Children = slices.Delete(parent.Children, i, j+1)
	for _, c := range run {
		c.Parent = nil
	}
	return run
}

// insertBefore inserts run before ref in ref's parent.
func insertBefore(run []*Node, ref *Node) {
	parent := ref.Parent
	if parent == nil {
		panic(fmt.Sprintf("vtest: insert before detached %s", ref))
	}
	parent.Children = slices.Insert(parent.Children, ref.index(), run...)
	for _, c := range run {
		c.Parent = parent
	}
}
