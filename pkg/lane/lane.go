// Package lane defines the priority bits used by the scheduler.
//
// A Lanes value is a bitset of reasons a coroutine needs to re-render.
// Priority lanes are cumulative: a background update carries the
// user-visible and user-blocking lanes too, so a frame opened for a lower
// priority also satisfies pending higher-priority work on the same coroutine.
package lane

import "strings"

// Lanes is a bitset of pending-work classes.
type Lanes uint32

const (
	NoLanes Lanes = 0

	DefaultLane Lanes = 1 << iota
	SyncLane
	UserBlockingLane
	UserVisibleLane
	BackgroundLane
	ViewTransitionLane
)

// AllLanes has every lane bit set.
const AllLanes = DefaultLane | SyncLane | UserBlockingLane | UserVisibleLane | BackgroundLane | ViewTransitionLane

// Has reports whether every bit of x is set in l.
func (l Lanes) Has(x Lanes) bool {
	return l&x == x && x != NoLanes
}

// Intersects reports whether l and x share at least one bit.
func (l Lanes) Intersects(x Lanes) bool {
	return l&x != NoLanes
}

// Priority returns the most urgent host priority represented by l.
func (l Lanes) Priority() Priority {
	switch {
	case l&BackgroundLane != 0:
		return PriorityBackground
	case l&UserVisibleLane != 0:
		return PriorityUserVisible
	default:
		return PriorityUserBlocking
	}
}

// String returns a "|"-joined list of lane names.
func (l Lanes) String() string {
	if l == NoLanes {
		return "NoLanes"
	}
	names := []struct {
		lane Lanes
		name string
	}{
		{DefaultLane, "Default"},
		{SyncLane, "Sync"},
		{UserBlockingLane, "UserBlocking"},
		{UserVisibleLane, "UserVisible"},
		{BackgroundLane, "Background"},
		{ViewTransitionLane, "ViewTransition"},
	}
	var parts []string
	for _, n := range names {
		if l&n.lane != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Priority is a host scheduling class.
type Priority uint8

const (
	PriorityUserBlocking Priority = iota + 1
	PriorityUserVisible
	PriorityBackground
)

// String returns the string representation of the Priority.
func (p Priority) String() string {
	switch p {
	case PriorityUserBlocking:
		return "user-blocking"
	case PriorityUserVisible:
		return "user-visible"
	case PriorityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// ParsePriority parses the names produced by Priority.String.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user-blocking", "userblocking":
		return PriorityUserBlocking, true
	case "user-visible", "uservisible":
		return PriorityUserVisible, true
	case "background":
		return PriorityBackground, true
	default:
		return 0, false
	}
}

// Lanes returns the cumulative lane mask for a priority.
func (p Priority) Lanes() Lanes {
	switch p {
	case PriorityUserBlocking:
		return UserBlockingLane
	case PriorityUserVisible:
		return UserBlockingLane | UserVisibleLane
	case PriorityBackground:
		return UserBlockingLane | UserVisibleLane | BackgroundLane
	default:
		return NoLanes
	}
}

// Options describes how an update should be scheduled.
type Options struct {
	// Priority is the host priority class. Zero means the runtime default.
	Priority Priority

	// Immediate flushes from a microtask and renders without yielding.
	Immediate bool

	// Silent queues the update without requesting a flush; it is picked up
	// by the next flush requested for any reason.
	Silent bool

	// ViewTransition wraps the mutation and layout commit in a host view
	// transition.
	ViewTransition bool
}

// FromOptions computes the lane mask for an update.
func FromOptions(opts Options) Lanes {
	lanes := DefaultLane | opts.Priority.Lanes()
	if opts.Immediate {
		lanes |= SyncLane
	}
	if opts.ViewTransition {
		lanes |= ViewTransitionLane
	}
	return lanes
}
