package core

import (
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/part"
)

// Phase is an effect commit phase. Phases always commit in declaration order.
type Phase uint8

const (
	PhaseMutation Phase = iota + 1 // host tree mutations and insertion effects
	PhaseLayout                    // effects that read the mutated tree
	PhasePassive                   // everything else, committed at background priority
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseMutation:
		return "mutation"
	case PhaseLayout:
		return "layout"
	case PhasePassive:
		return "passive"
	default:
		return "unknown"
	}
}

// Effect is a unit of committed work.
type Effect interface {
	Commit()
}

// EffectFunc adapts a function to Effect.
type EffectFunc func()

// Commit implements Effect.
func (f EffectFunc) Commit() { f() }

// SlotPolicy selects how a Slot treats a change of directive.
type SlotPolicy uint8

const (
	// SlotStrict rejects a directive change as a protocol violation.
	SlotStrict SlotPolicy = iota
	// SlotLoose swaps bindings and caches the previous ones per directive.
	SlotLoose
)

// String returns the string representation of the SlotPolicy.
func (p SlotPolicy) String() string {
	if p == SlotLoose {
		return "loose"
	}
	return "strict"
}

// Tree is the part of the backend the core uses to place child ranges.
//
// A range is a run of siblings from start to end inclusive. Bindings rendered
// into a part.ChildRange always end at the range's anchor.
type Tree interface {
	// CreateChildRange creates a new, detached insertion point for a child
	// of container.
	CreateChildRange(container part.ChildRange) part.ChildRange

	// InsertRange inserts or moves the sibling run [start, end] so that it
	// sits immediately before the node before.
	InsertRange(start, end, before part.Node)

	// RemoveRange detaches the sibling run [start, end].
	RemoveRange(start, end part.Node)
}

// Backend is the target-medium half of the host contract.
type Backend interface {
	Tree

	// ResolveDirective returns the fallback directive for a raw value
	// (one that is not a Bindable) at p.
	ResolveDirective(value any, p part.Part) (Directive, error)

	// SlotPolicy reports which slot policy applies at p.
	SlotPolicy(p part.Part) SlotPolicy

	// CommitEffects runs a batch of effects for one phase. The effects are
	// already guarded: a failing effect reports its error and returns.
	CommitEffects(effects []Effect, phase Phase)

	// StartViewTransition runs fn inside a host view transition, or
	// immediately when the host has none. fn must have run by the time
	// StartViewTransition returns.
	StartViewTransition(fn func())
}

// Executor is the scheduling half of the host contract.
type Executor interface {
	// QueueMicrotask runs fn after the current callback, before any other
	// queued callback.
	QueueMicrotask(fn func())

	// RequestCallback runs fn at the given priority. The returned function
	// cancels the callback if it has not started.
	RequestCallback(fn func(), priority lane.Priority) (cancel func())

	// Yield runs fn as the continuation of a yielded task, after pending
	// user-blocking work.
	Yield(fn func())
}

// CommitEffects runs effects in order. Backends without special batching
// needs can delegate to it.
func CommitEffects(effects []Effect) {
	for _, e := range effects {
		e.Commit()
	}
}
