package core

import (
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/part"
)

// Root is a mounted tree: the coroutine that renders a value into a host
// container.
type Root struct {
	rt        *Runtime
	container part.ChildRange
	scope     *Scope
	slot      *Slot
	pending   lane.Lanes

	value      any
	hasValue   bool
	unmounting bool
}

func newRoot(rt *Runtime, container part.ChildRange) *Root {
	return &Root{rt: rt, container: container, scope: NewScope(nil)}
}

// Name implements Coroutine.
func (r *Root) Name() string { return "Root" }

// PendingLanes implements Coroutine.
func (r *Root) PendingLanes() lane.Lanes { return r.pending }

// AddPendingLanes implements Coroutine.
func (r *Root) AddPendingLanes(l lane.Lanes) { r.pending |= l }

// Container returns the part the root renders into.
func (r *Root) Container() part.ChildRange { return r.container }

// Scope returns the root scope. Values and error handlers set on it are
// visible to the whole tree.
func (r *Root) Scope() *Scope { return r.scope }

// Slot returns the root slot, or nil before the first render.
func (r *Root) Slot() *Slot { return r.slot }

// Update schedules rendering value into the container. Updates queued
// before a flush coalesce; the last value wins.
func (r *Root) Update(value any, opts lane.Options) *Task {
	r.value = value
	r.hasValue = true
	r.unmounting = false
	return r.rt.ScheduleUpdate(r, opts)
}

// Unmount schedules removal of everything the root rendered.
func (r *Root) Unmount(opts lane.Options) *Task {
	r.unmounting = true
	r.hasValue = false
	r.value = nil
	return r.rt.ScheduleUpdate(r, opts)
}

// Resume implements Coroutine.
func (r *Root) Resume(ctx *UpdateContext) error {
	r.pending = lane.NoLanes
	ctx = ctx.WithScope(r.scope, r)

	if r.unmounting {
		r.unmounting = false
		if s := r.slot; s != nil {
			r.slot = nil
			s.Disconnect(ctx)
			ctx.EnqueueMutation(EffectFunc(s.Rollback))
		}
		return nil
	}
	if !r.hasValue {
		return nil
	}
	r.hasValue = false

	if r.slot == nil {
		s, err := ctx.ResolveSlot(r.value, r.container)
		if err != nil {
			return err
		}
		r.slot = s
	} else if _, err := r.slot.Reconcile(r.value, ctx); err != nil {
		return err
	}
	ctx.EnqueueMutation(EffectFunc(r.slot.Commit))
	return nil
}
