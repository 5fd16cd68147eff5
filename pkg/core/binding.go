package core

import "github.com/vango-dev/weft/pkg/part"

// Binding is the stateful adapter between one part and the values bound to
// it over time.
//
// Lifecycle: a new binding is unattached. Bind and Connect make it pending;
// Commit applies the pending state to the host tree; Disconnect and Rollback
// detach it. Commit is a no-op unless the binding is dirty, and Rollback is a
// no-op unless it is committed, so both are safe to call more than once.
//
// Bindings never enqueue their own commit. The owner of a binding (a slot, a
// collection, a coroutine) commits it from inside its own Commit.
type Binding interface {
	// Directive returns the directive that created the binding.
	Directive() Directive

	// Value returns the most recently bound value.
	Value() any

	// Part returns the part the binding was resolved for.
	Part() part.Part

	// ShouldBind reports whether value differs from the bound value enough
	// to warrant Bind and Connect.
	ShouldBind(value any) bool

	// Bind replaces the pending value. The last value bound before a
	// commit wins.
	Bind(value any)

	// Connect computes pending state from the bound value without touching
	// the host tree and marks the binding dirty.
	Connect(ctx *UpdateContext) error

	// Disconnect releases retained state (hooks, subscriptions, children).
	// Cleanups are queued on ctx; the host tree is untouched until Rollback.
	Disconnect(ctx *UpdateContext)

	// Commit applies pending state to the host tree.
	Commit()

	// Rollback reverses the committed mutation, leaving the part unbound.
	Rollback()
}

// Detacher is implemented by bindings that keep their state while parked in
// a loose slot's cache. Detach queues the same cleanups as Disconnect but
// keeps what a later Bind and Connect need to resume where the binding left
// off. Disconnect after Detach releases the rest.
type Detacher interface {
	Detach(ctx *UpdateContext)
}

// Extent is implemented by bindings that place nodes in a child range. The
// committed extent runs from StartNode to the range's anchor.
type Extent interface {
	// StartNode returns the first committed node, or nil when the binding
	// has nothing in the tree.
	StartNode() part.Node
}

// StartNode returns the first node of b's committed extent, falling back to
// the node of b's part (the anchor, for child ranges).
func StartNode(b Binding) part.Node {
	if b == nil {
		return nil
	}
	if e, ok := b.(Extent); ok {
		if n := e.StartNode(); n != nil {
			return n
		}
	}
	return b.Part().Node()
}
