package core

import "github.com/vango-dev/weft/pkg/lane"

// Coroutine is a resumable render unit: a mounted root, a component
// instance, or any binding that renders children on its own schedule.
//
// Implementations must be pointer types; the runtime compares coroutines by
// identity.
type Coroutine interface {
	// Name identifies the unit in errors and traces.
	Name() string

	// PendingLanes returns the union of lanes the unit still has to render.
	PendingLanes() lane.Lanes

	// AddPendingLanes marks the unit pending. The runtime calls it from
	// ScheduleUpdate.
	AddPendingLanes(l lane.Lanes)

	// Resume performs one render pass. It must clear all pending lanes
	// before rendering, queue its own commit (and any effects) on ctx, and
	// run to completion without yielding.
	Resume(ctx *UpdateContext) error
}
