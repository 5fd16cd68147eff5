package core

import "github.com/vango-dev/weft/pkg/lane"

// Store is an external value source a component can subscribe to.
type Store[T any] interface {
	// Snapshot returns the current value. Repeated calls without an
	// intervening change must return identical values.
	Snapshot() T

	// Subscribe registers fn to be called after every change and returns
	// a function that removes it.
	Subscribe(fn func()) (unsubscribe func())
}

// UseStore returns store's current snapshot and re-renders the component
// whenever the snapshot changes. The subscription is made in the mutation
// phase and dropped when the store changes identity or the component is
// removed.
func UseStore[T any](rc *RenderContext, store Store[T]) T {
	snap := store.Snapshot()
	last := UseRef(rc, snap)
	last.Current = snap

	rt, unit := rc.rt, rc.unit
	UseInsertionEffect(rc, func() func() {
		check := func() {
			if !Identical(store.Snapshot(), last.Current) {
				rt.ScheduleUpdate(unit, lane.Options{})
			}
		}
		unsubscribe := store.Subscribe(check)
		// The store may have changed between render and subscribe.
		check()
		return unsubscribe
	}, []any{store})
	return snap
}

// ValueStore is a minimal Store holding one value. Like the rest of the
// runtime it is not safe for concurrent use.
type ValueStore[T any] struct {
	value T
	subs  map[int]func()
	seq   int
}

// NewValueStore creates a store holding v.
func NewValueStore[T any](v T) *ValueStore[T] {
	return &ValueStore[T]{value: v, subs: make(map[int]func())}
}

// Snapshot implements Store.
func (s *ValueStore[T]) Snapshot() T { return s.value }

// Set replaces the value and notifies subscribers.
func (s *ValueStore[T]) Set(v T) {
	s.value = v
	for _, fn := range s.subs {
		fn()
	}
}

// Subscribe implements Store.
func (s *ValueStore[T]) Subscribe(fn func()) func() {
	s.seq++
	id := s.seq
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}
