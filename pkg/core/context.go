package core

import (
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/part"
)

// UpdateContext is handed to every Connect, Disconnect and Resume call. It
// carries the frame being rendered, the enclosing scope and the nearest
// render unit, and is the only way bindings reach the runtime.
type UpdateContext struct {
	rt    *Runtime
	frame *Frame
	scope *Scope
	owner Coroutine
}

// Runtime returns the runtime rendering the frame.
func (c *UpdateContext) Runtime() *Runtime { return c.rt }

// Frame returns the frame being rendered.
func (c *UpdateContext) Frame() *Frame { return c.frame }

// Lanes returns the lanes of the frame being rendered.
func (c *UpdateContext) Lanes() lane.Lanes { return c.frame.lanes }

// Scope returns the enclosing scope.
func (c *UpdateContext) Scope() *Scope { return c.scope }

// Owner returns the nearest enclosing render unit, or nil at the top of a
// root.
func (c *UpdateContext) Owner() Coroutine { return c.owner }

// OwnerName returns the name of the nearest enclosing render unit.
func (c *UpdateContext) OwnerName() string {
	if c == nil || c.owner == nil {
		return "<root>"
	}
	return c.owner.Name()
}

// WithScope returns a context for rendering below owner in scope s.
func (c *UpdateContext) WithScope(s *Scope, owner Coroutine) *UpdateContext {
	return &UpdateContext{rt: c.rt, frame: c.frame, scope: s, owner: owner}
}

// Enqueue queues e in the frame's phase queue. Failures of e are routed to
// the context's scope.
func (c *UpdateContext) Enqueue(phase Phase, e Effect) {
	c.frame.enqueue(phase, c.guard(phase, e, c.scope))
}

// EnqueueMutation queues a mutation-phase effect.
func (c *UpdateContext) EnqueueMutation(e Effect) { c.Enqueue(PhaseMutation, e) }

// EnqueueLayout queues a layout-phase effect.
func (c *UpdateContext) EnqueueLayout(e Effect) { c.Enqueue(PhaseLayout, e) }

// EnqueuePassive queues a passive-phase effect.
func (c *UpdateContext) EnqueuePassive(e Effect) { c.Enqueue(PhasePassive, e) }

// EnqueueTeardown queues a cleanup that must run before phase's other
// effects in this frame.
func (c *UpdateContext) EnqueueTeardown(phase Phase, e Effect) {
	c.frame.enqueueTeardown(phase, c.guard(phase, e, c.scope))
}

func (c *UpdateContext) enqueueIn(phase Phase, e Effect, s *Scope) {
	c.frame.enqueue(phase, c.guard(phase, e, s))
}

func (c *UpdateContext) teardownIn(phase Phase, e Effect, s *Scope) {
	c.frame.enqueueTeardown(phase, c.guard(phase, e, s))
}

func (c *UpdateContext) guard(phase Phase, e Effect, s *Scope) Effect {
	return &guardedEffect{rt: c.rt, frame: c.frame, scope: s, phase: phase, effect: e}
}

// EnqueueCoroutine adds co to the frame's pending queue. It is resumed in
// the next fixpoint iteration if it still has pending lanes.
func (c *UpdateContext) EnqueueCoroutine(co Coroutine) {
	c.frame.pending = append(c.frame.pending, co)
}

// ScheduleUpdate schedules co on the runtime.
func (c *UpdateContext) ScheduleUpdate(co Coroutine, opts lane.Options) *Task {
	return c.rt.ScheduleUpdate(co, opts)
}

// ResolveDirective returns the directive and payload for value at p.
func (c *UpdateContext) ResolveDirective(value any, p part.Part) (Directive, any, error) {
	return c.resolveDirective(value, p)
}

// Tree returns the host tree.
func (c *UpdateContext) Tree() Tree { return c.rt.backend }

// CreateChildRange creates a detached insertion point for a child of
// container.
func (c *UpdateContext) CreateChildRange(container part.ChildRange) part.ChildRange {
	return c.rt.backend.CreateChildRange(container)
}
