// Package part describes insertion points in a host tree.
//
// A Part is an immutable descriptor: it names a location (a node, and for
// named slots an attribute, property or event name) but carries no behavior.
// Bindings hold a Part; a Part never refers back to a Binding.
//
// The node a Part points at is opaque to this package. Backends decide what a
// Node is (a DOM node handle, an in-memory tree node, a terminal cell range).
package part

import "fmt"

// Node is a backend-defined handle to a node in the host tree.
type Node = any

// Kind is the Part type discriminator.
type Kind uint8

const (
	KindAttribute  Kind = iota + 1 // named attribute on an element
	KindChildRange                 // run of child nodes ending at an anchor
	KindElement                    // a whole element (spread of attributes)
	KindEvent                      // named event listener slot
	KindProperty                   // named property on an element
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindAttribute:
		return "Attribute"
	case KindChildRange:
		return "ChildRange"
	case KindElement:
		return "Element"
	case KindEvent:
		return "Event"
	case KindProperty:
		return "Property"
	default:
		return "Unknown"
	}
}

// Part is one addressable insertion point.
type Part interface {
	// Kind reports which variant this Part is.
	Kind() Kind

	// Node returns the host node the Part is anchored to.
	Node() Node

	fmt.Stringer

	isPart()
}

// Attribute is a named attribute slot on an element node.
type Attribute struct {
	Target Node
	Name   string
}

func (p Attribute) Kind() Kind     { return KindAttribute }
func (p Attribute) Node() Node     { return p.Target }
func (p Attribute) String() string { return fmt.Sprintf("Attribute(%s)", p.Name) }
func (Attribute) isPart()          {}

// ChildRange is a run of sibling nodes that always ends at Anchor.
// Content rendered into the range is inserted immediately before Anchor.
type ChildRange struct {
	Anchor Node
}

func (p ChildRange) Kind() Kind     { return KindChildRange }
func (p ChildRange) Node() Node     { return p.Anchor }
func (p ChildRange) String() string { return "ChildRange" }
func (ChildRange) isPart()          {}

// Element is a whole element slot, used for spreading several attributes or
// properties onto one node.
type Element struct {
	Target Node
}

func (p Element) Kind() Kind     { return KindElement }
func (p Element) Node() Node     { return p.Target }
func (p Element) String() string { return "Element" }
func (Element) isPart()          {}

// Event is a named event listener slot on an element node.
type Event struct {
	Target Node
	Name   string
}

func (p Event) Kind() Kind     { return KindEvent }
func (p Event) Node() Node     { return p.Target }
func (p Event) String() string { return fmt.Sprintf("Event(%s)", p.Name) }
func (Event) isPart()          {}

// Property is a named property slot on an element node.
// DefaultValue is restored when a binding at this Part is rolled back.
type Property struct {
	Target       Node
	Name         string
	DefaultValue any
}

func (p Property) Kind() Kind     { return KindProperty }
func (p Property) Node() Node     { return p.Target }
func (p Property) String() string { return fmt.Sprintf("Property(%s)", p.Name) }
func (Property) isPart()          {}

// Describe formats a Part for diagnostics, including the node it targets.
func Describe(p Part) string {
	if p == nil {
		return "<nil part>"
	}
	return fmt.Sprintf("%s on %v", p.String(), p.Node())
}
