package core

import (
	werrors "github.com/vango-dev/weft/internal/errors"
)

// HookKind discriminates the Hook variants.
type HookKind uint8

const (
	HookIdentifier HookKind = iota + 1
	HookMemo
	HookReducer
	HookEffect
	HookFinalizer
)

// String returns the string representation of the HookKind.
func (k HookKind) String() string {
	switch k {
	case HookIdentifier:
		return "Identifier"
	case HookMemo:
		return "Memo"
	case HookReducer:
		return "Reducer"
	case HookEffect:
		return "Effect"
	case HookFinalizer:
		return "Finalizer"
	default:
		return "Unknown"
	}
}

// Hook is one retained state record of a render unit. The concrete types
// are IdentifierHook, MemoHook, ReducerHook, EffectHook and FinalizerHook.
type Hook interface {
	Kind() HookKind
}

// IdentifierHook holds a stable identifier from UseID.
type IdentifierHook struct {
	ID string
}

// MemoHook holds a memoized value and the deps it was computed with.
type MemoHook struct {
	Value any
	Deps  []any
}

// ReducerHook holds reducer state and its dispatcher.
type ReducerHook struct {
	State      any
	Dispatcher any
}

// EffectHook holds an effect's phase, deps and current cleanup.
type EffectHook struct {
	Phase    Phase
	Deps     []any
	Cleanup  func()
	disposed bool
	rearm    bool // cleaned up by a detach; runs again on the next render
}

// FinalizerHook terminates the hook list of a rendered unit.
type FinalizerHook struct{}

func (*IdentifierHook) Kind() HookKind { return HookIdentifier }
func (*MemoHook) Kind() HookKind       { return HookMemo }
func (*ReducerHook) Kind() HookKind    { return HookReducer }
func (*EffectHook) Kind() HookKind     { return HookEffect }
func (*FinalizerHook) Kind() HookKind  { return HookFinalizer }

// invoke runs the previous cleanup, then fn, and keeps fn's cleanup.
func (h *EffectHook) invoke(fn func() func()) {
	if h.disposed {
		return
	}
	h.runCleanup()
	h.Cleanup = fn()
}

func (h *EffectHook) runCleanup() {
	if c := h.Cleanup; c != nil {
		h.Cleanup = nil
		c()
	}
}

func (h *EffectHook) dispose() {
	h.disposed = true
	h.runCleanup()
}

// HookState is the call-order-indexed hook list of one render unit and the
// cursor of the render in progress.
type HookState struct {
	unit   string
	hooks  []Hook
	cursor int
}

// Len returns the number of hooks, the finalizer included.
func (s *HookState) Len() int { return len(s.hooks) }

// Hooks returns the hook list.
func (s *HookState) Hooks() []Hook { return s.hooks }

func (s *HookState) begin(unit string) {
	s.unit = unit
	s.cursor = 0
}

func (s *HookState) finalized() bool {
	n := len(s.hooks)
	return n > 0 && s.hooks[n-1].Kind() == HookFinalizer
}

// next returns the hook at the cursor and advances. On a first render it
// returns false and the caller must push the new hook.
func (s *HookState) next(kind HookKind) (Hook, bool) {
	if s.cursor < len(s.hooks) {
		h := s.hooks[s.cursor]
		if h.Kind() != kind {
			panic(s.orderError(kind.String(), h.Kind().String()))
		}
		s.cursor++
		return h, true
	}
	return nil, false
}

func (s *HookState) push(h Hook) {
	s.hooks = append(s.hooks, h)
	s.cursor++
}

// finish checks that the render used exactly the hooks of the first render.
func (s *HookState) finish() {
	if !s.finalized() {
		s.push(&FinalizerHook{})
		return
	}
	if s.cursor < len(s.hooks) && s.hooks[s.cursor].Kind() == HookFinalizer {
		s.cursor++
		return
	}
	previous := "nothing"
	if s.cursor < len(s.hooks) {
		previous = s.hooks[s.cursor].Kind().String()
	}
	panic(s.orderError("no more hooks", previous))
}

// reset drops all hooks after a failed first render or a disconnect.
func (s *HookState) reset() {
	s.hooks = nil
	s.cursor = 0
}

func (s *HookState) orderError(called, previous string) *werrors.Error {
	return werrors.New(werrors.CodeHookOrder).
		WithDetailf("hook %d: called %s, previous render called %s", s.cursor, called, previous).
		WithUnit(s.unit).
		WithSuggestion("Call hooks unconditionally and in the same order on every render")
}
