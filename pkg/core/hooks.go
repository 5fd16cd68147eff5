package core

import (
	"fmt"
	"runtime/debug"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/lane"
)

// RenderContext is passed to a component's render function. Hooks take it
// as their first argument and are only valid while the render runs.
type RenderContext struct {
	ctx       *UpdateContext
	rt        *Runtime
	unit      Coroutine
	scope     *Scope
	hooks     *HookState
	rendering bool

	// staged holds hook writes and effect enqueues that only take effect
	// once the render completes.
	staged []func()
}

// Name returns the name of the component being rendered.
func (rc *RenderContext) Name() string { return rc.unit.Name() }

// Lanes returns the lanes of the frame being rendered.
func (rc *RenderContext) Lanes() lane.Lanes { return rc.ctx.Lanes() }

// SetContextValue makes value visible to descendants under key.
func (rc *RenderContext) SetContextValue(key, value any) {
	rc.mustRender("SetContextValue")
	rc.scope.Set(key, value)
}

// ContextValue looks up the nearest value for key set by this component or
// an ancestor.
func (rc *RenderContext) ContextValue(key any) (any, bool) {
	rc.mustRender("ContextValue")
	return rc.scope.Lookup(key)
}

// CatchError registers h for render and effect failures of descendants.
// h returns nil to mark the error handled.
func (rc *RenderContext) CatchError(h func(error) error) {
	rc.mustRender("CatchError")
	rc.scope.SetErrorHandler(h)
}

// ForceUpdate schedules a re-render of the component.
func (rc *RenderContext) ForceUpdate(opts lane.Options) *Task {
	return rc.rt.ScheduleUpdate(rc.unit, opts)
}

func (rc *RenderContext) stage(fn func()) {
	rc.staged = append(rc.staged, fn)
}

// apply runs the staged writes of a completed render.
func (rc *RenderContext) apply() {
	for _, fn := range rc.staged {
		fn()
	}
	rc.staged = nil
}

func (rc *RenderContext) mustRender(hook string) {
	if rc == nil || !rc.rendering {
		panic(werrors.New(werrors.CodeHookOutsideRender).
			WithDetailf("%s called after render returned", hook).
			WithSuggestion("Call hooks directly from the component's render function"))
	}
}

// ContextKey is a typed key for context values.
type ContextKey[T any] struct {
	name string
}

// NewContextKey creates a context key. name is only used in String.
func NewContextKey[T any](name string) *ContextKey[T] {
	return &ContextKey[T]{name: name}
}

func (k *ContextKey[T]) String() string { return "context " + k.name }

// Provide sets a typed context value for descendants of the component.
func Provide[T any](rc *RenderContext, key *ContextKey[T], value T) {
	rc.SetContextValue(key, value)
}

// UseContext returns the nearest value provided for key.
func UseContext[T any](rc *RenderContext, key *ContextKey[T]) (T, bool) {
	v, ok := rc.ContextValue(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

// UseMemo returns factory's result, recomputed only when deps change.
// Nil deps recompute on every render; empty deps compute once. The new
// value is only stored if the render completes.
func UseMemo[T any](rc *RenderContext, factory func() T, deps []any) T {
	rc.mustRender("UseMemo")
	if h, ok := rc.hooks.next(HookMemo); ok {
		m := h.(*MemoHook)
		if !depsChanged(m.Deps, deps) {
			return as[T](m.Value)
		}
		v := factory()
		rc.stage(func() {
			m.Value = v
			m.Deps = deps
		})
		return v
	}
	v := factory()
	rc.hooks.push(&MemoHook{Value: v, Deps: deps})
	return v
}

// UseCallback returns fn as it was when deps last changed.
func UseCallback[F any](rc *RenderContext, fn F, deps []any) F {
	return UseMemo(rc, func() F { return fn }, deps)
}

// Ref is a mutable box that survives re-renders.
type Ref[T any] struct {
	Current T
}

// UseRef returns the same *Ref on every render.
func UseRef[T any](rc *RenderContext, initial T) *Ref[T] {
	return UseMemo(rc, func() *Ref[T] { return &Ref[T]{Current: initial} }, []any{})
}

// UseID returns an identifier that is unique within the runtime and stable
// for the component's lifetime.
func UseID(rc *RenderContext) string {
	rc.mustRender("UseID")
	if h, ok := rc.hooks.next(HookIdentifier); ok {
		return h.(*IdentifierHook).ID
	}
	id := fmt.Sprintf("w%d", rc.rt.nextID())
	rc.hooks.push(&IdentifierHook{ID: id})
	return id
}

// Dispatcher applies actions to reducer state. It stays valid after render
// and may be called from event handlers and effects.
type Dispatcher[A any] struct {
	hook   *ReducerHook
	reduce func(state any, action A) any
	rt     *Runtime
	unit   Coroutine
	scope  *Scope
}

// Dispatch applies action at the runtime's default priority.
func (d *Dispatcher[A]) Dispatch(action A) *Task {
	return d.DispatchWith(action, lane.Options{})
}

// DispatchWith applies action synchronously and schedules a re-render if
// the new state is not identical to the old one. It returns nil when nothing
// changed. A panicking reducer is routed to the component's error handlers;
// if none handles it the returned task carries the error.
func (d *Dispatcher[A]) DispatchWith(action A, opts lane.Options) *Task {
	next, err := d.apply(action)
	if err != nil {
		rest := d.scope.HandleError(err)
		if rest == nil {
			return nil
		}
		d.rt.taskSeq++
		t := newTask(d.rt.taskSeq, d.unit, lane.NoLanes)
		t.settle(rest)
		return t
	}
	if Identical(next, d.hook.State) {
		return nil
	}
	d.hook.State = next
	return d.rt.ScheduleUpdate(d.unit, opts)
}

func (d *Dispatcher[A]) apply(action A) (next any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e := werrors.FromPanic(r, werrors.CodeReducerPanic)
			if e.Unit == "" {
				e.Unit = d.unit.Name()
			}
			if e.Stack == "" {
				e = e.WithStack(debug.Stack())
			}
			d.rt.logger.Error("reducer panic", "unit", d.unit.Name(), "panic", r)
			err = e
		}
	}()
	return d.reduce(d.hook.State, action), nil
}

// UseReducer returns the current state and a dispatcher for it. initial is
// only used on the first render; the latest reducer is used by dispatches.
func UseReducer[S, A any](rc *RenderContext, reducer func(S, A) S, initial S) (S, *Dispatcher[A]) {
	rc.mustRender("UseReducer")
	reduce := func(state any, action A) any { return reducer(as[S](state), action) }
	errScope := rc.scope.Parent()

	if h, ok := rc.hooks.next(HookReducer); ok {
		r := h.(*ReducerHook)
		d := r.Dispatcher.(*Dispatcher[A])
		rc.stage(func() {
			d.reduce = reduce
			d.scope = errScope
		})
		return as[S](r.State), d
	}
	r := &ReducerHook{State: initial}
	d := &Dispatcher[A]{hook: r, reduce: reduce, rt: rc.rt, unit: rc.unit, scope: errScope}
	r.Dispatcher = d
	rc.hooks.push(r)
	return initial, d
}

// UseState is UseReducer with a reducer that replaces the state.
func UseState[S any](rc *RenderContext, initial S) (S, *Dispatcher[S]) {
	return UseReducer(rc, func(_ S, next S) S { return next }, initial)
}

// UseEffect runs fn after commit, at background priority, whenever deps
// change. fn may return a cleanup that runs before the next invocation and
// when the component is removed.
func UseEffect(rc *RenderContext, fn func() func(), deps []any) {
	useEffect(rc, "UseEffect", PhasePassive, fn, deps)
}

// UseLayoutEffect is UseEffect committed together with the host mutations.
func UseLayoutEffect(rc *RenderContext, fn func() func(), deps []any) {
	useEffect(rc, "UseLayoutEffect", PhaseLayout, fn, deps)
}

// UseInsertionEffect is UseEffect committed in the mutation phase, before
// any layout effect.
func UseInsertionEffect(rc *RenderContext, fn func() func(), deps []any) {
	useEffect(rc, "UseInsertionEffect", PhaseMutation, fn, deps)
}

func useEffect(rc *RenderContext, name string, phase Phase, fn func() func(), deps []any) {
	rc.mustRender(name)
	var e *EffectHook
	if h, ok := rc.hooks.next(HookEffect); ok {
		e = h.(*EffectHook)
		if e.Phase != phase {
			panic(rc.hooks.orderError(name, "an effect of the "+e.Phase.String()+" phase"))
		}
		if !e.rearm && !depsChanged(e.Deps, deps) {
			return
		}
	} else {
		e = &EffectHook{Phase: phase}
		rc.hooks.push(e)
	}
	ctx, scope := rc.ctx, rc.scope.Parent()
	rc.stage(func() {
		e.Deps = deps
		e.rearm = false
		ctx.enqueueIn(phase, EffectFunc(func() { e.invoke(fn) }), scope)
	})
}
