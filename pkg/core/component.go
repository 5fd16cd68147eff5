package core

import (
	"runtime/debug"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/part"
)

// Component is a directive that renders props through a function with hooks.
// A component is its own directive: two Render values of the same
// *Component share one binding.
type Component[P any] struct {
	name   string
	render func(props P, rc *RenderContext) any
}

// Define creates a component. fn returns the value to render in the
// component's child range; it may call hooks on rc.
func Define[P any](name string, fn func(props P, rc *RenderContext) any) *Component[P] {
	return &Component[P]{name: name, render: fn}
}

// Render returns a value that renders c with props.
func Render[P any](c *Component[P], props P) Bindable {
	return Direct(c, props)
}

// Name implements Directive.
func (c *Component[P]) Name() string { return c.name }

// ResolveBinding implements Directive. Components only render into child
// ranges.
func (c *Component[P]) ResolveBinding(value any, p part.Part, ctx *UpdateContext) (Binding, error) {
	cr, ok := p.(part.ChildRange)
	if !ok {
		return nil, PartMismatch(ctx, c, part.KindChildRange, p)
	}
	return &componentBinding[P]{comp: c, part: cr, value: value}, nil
}

// componentBinding is both the binding of a component at its part and the
// coroutine that re-renders it on its own schedule.
type componentBinding[P any] struct {
	comp  *Component[P]
	part  part.ChildRange
	value any

	rt          *Runtime
	parentScope *Scope
	scope       *Scope
	hooks       HookState
	slot        *Slot
	pending     lane.Lanes

	connected bool
	detached  bool
	dirty     bool
	committed bool
}

func (b *componentBinding[P]) Name() string                 { return b.comp.name }
func (b *componentBinding[P]) Directive() Directive         { return b.comp }
func (b *componentBinding[P]) Value() any                   { return b.value }
func (b *componentBinding[P]) Part() part.Part              { return b.part }
func (b *componentBinding[P]) PendingLanes() lane.Lanes     { return b.pending }
func (b *componentBinding[P]) AddPendingLanes(l lane.Lanes) { b.pending |= l }
func (b *componentBinding[P]) ShouldBind(value any) bool    { return !Identical(value, b.value) }
func (b *componentBinding[P]) Bind(value any)               { b.value = value }

func (b *componentBinding[P]) StartNode() part.Node {
	if b.slot == nil {
		return nil
	}
	return b.slot.StartNode()
}

func (b *componentBinding[P]) Connect(ctx *UpdateContext) error {
	if !b.connected {
		b.rt = ctx.rt
		b.parentScope = ctx.scope
		b.scope = NewScope(ctx.scope)
		b.connected = true
		b.detached = false
	}
	return b.render(ctx)
}

// Resume re-renders the component when it was scheduled by one of its own
// hooks, and queues its commit.
func (b *componentBinding[P]) Resume(ctx *UpdateContext) error {
	if !b.connected {
		b.pending = lane.NoLanes
		return nil
	}
	if err := b.render(ctx); err != nil {
		return err
	}
	ctx.enqueueIn(PhaseMutation, EffectFunc(b.Commit), b.parentScope)
	return nil
}

func (b *componentBinding[P]) render(ctx *UpdateContext) error {
	// Work this render consumes keeps its lanes, view transitions included.
	ctx.frame.lanes |= b.pending
	b.pending = lane.NoLanes

	var props P
	if b.value != nil {
		p, ok := b.value.(P)
		if !ok {
			return werrors.New(werrors.CodeUnresolvedValue).
				WithDetailf("%s expects props of type %T, got %T", b.comp.name, props, b.value).
				WithUnit(ctx.OwnerName())
		}
		props = p
	}

	child := ctx.WithScope(b.scope, b)
	rc := &RenderContext{ctx: child, rt: ctx.rt, unit: b, scope: b.scope, hooks: &b.hooks, rendering: true}
	out, err := b.invoke(rc, props)
	rc.rendering = false

	if err != nil {
		rc.staged = nil
		if !b.hooks.finalized() {
			b.disposeHooks()
		}
		if werrors.IsProtocol(err) {
			return err
		}
		// A handled failure keeps the previous output.
		return b.parentScope.HandleError(err)
	}
	rc.apply()

	if b.slot == nil {
		s, err := child.ResolveSlot(out, b.part)
		if err != nil {
			return err
		}
		b.slot = s
	} else if _, err := b.slot.Reconcile(out, child); err != nil {
		return err
	}
	b.dirty = true
	return nil
}

func (b *componentBinding[P]) invoke(rc *RenderContext, props P) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e := werrors.FromPanic(r, werrors.CodeRenderPanic)
			if e.Unit == "" {
				e.Unit = b.comp.name
			}
			if !e.IsProtocol() {
				if e.Stack == "" {
					e = e.WithStack(debug.Stack())
				}
				b.rt.logger.Error("render panic", "unit", b.comp.name, "panic", r)
			}
			out, err = nil, e
		}
	}()
	b.hooks.begin(b.comp.name)
	out = b.comp.render(props, rc)
	b.hooks.finish()
	return out, nil
}

func (b *componentBinding[P]) Disconnect(ctx *UpdateContext) {
	if b.detached {
		// Cleanups already ran when the binding was detached.
		b.detached = false
		b.disposeHooks()
		if b.slot != nil {
			b.slot.Disconnect(ctx.WithScope(b.scope, b))
		}
		return
	}
	if !b.connected {
		return
	}
	b.connected = false
	b.pending = lane.NoLanes
	for _, h := range b.hooks.hooks {
		if e, ok := h.(*EffectHook); ok {
			ctx.teardownIn(e.Phase, EffectFunc(e.dispose), b.parentScope)
		}
	}
	b.hooks.reset()
	if b.slot != nil {
		b.slot.Disconnect(ctx.WithScope(b.scope, b))
	}
}

// Detach parks the binding in a slot cache. Effect cleanups are queued as
// in Disconnect, but hook state survives and the effects run again when
// the binding is reconnected.
func (b *componentBinding[P]) Detach(ctx *UpdateContext) {
	if !b.connected {
		return
	}
	b.connected = false
	b.detached = true
	b.pending = lane.NoLanes
	for _, h := range b.hooks.hooks {
		if e, ok := h.(*EffectHook); ok {
			e.rearm = true
			ctx.teardownIn(e.Phase, EffectFunc(e.runCleanup), b.parentScope)
		}
	}
	if b.slot != nil {
		b.slot.Detach(ctx.WithScope(b.scope, b))
	}
}

func (b *componentBinding[P]) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	if b.slot != nil {
		b.slot.Commit()
	}
	b.committed = true
}

func (b *componentBinding[P]) Rollback() {
	if !b.committed {
		return
	}
	b.committed = false
	if b.slot != nil {
		b.slot.Rollback()
	}
}

// disposeHooks drops the hooks of a failed first render. Effects it queued
// will find their hook disposed and skip.
func (b *componentBinding[P]) disposeHooks() {
	for _, h := range b.hooks.hooks {
		if e, ok := h.(*EffectHook); ok {
			e.disposed = true
		}
	}
	b.hooks.reset()
}
