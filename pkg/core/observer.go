package core

import (
	"time"

	"github.com/vango-dev/weft/pkg/lane"
)

// EventKind identifies a scheduler event.
type EventKind uint8

const (
	EventTaskScheduled EventKind = iota + 1
	EventTaskCoalesced           // resolved without rendering
	EventTaskAbsorbed            // joined an in-flight frame
	EventFrameStarted
	EventResume
	EventCommit
	EventTaskDone
)

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	switch k {
	case EventTaskScheduled:
		return "task_scheduled"
	case EventTaskCoalesced:
		return "task_coalesced"
	case EventTaskAbsorbed:
		return "task_absorbed"
	case EventFrameStarted:
		return "frame_started"
	case EventResume:
		return "resume"
	case EventCommit:
		return "commit"
	case EventTaskDone:
		return "task_done"
	default:
		return "unknown"
	}
}

// Event describes one step of scheduler activity.
type Event struct {
	Kind  EventKind
	Time  time.Time
	Task  uint64
	Frame uint64
	Lanes lane.Lanes

	// Unit is the coroutine name for task and resume events.
	Unit string

	// Phase and Effects are set on commit events.
	Phase   Phase
	Effects int

	// Iterations is the fixpoint iteration count on task_done events.
	Iterations int

	// Duration is the resume, commit or task duration.
	Duration time.Duration

	// Err is the task failure on task_done events.
	Err error
}

// Observer receives scheduler events on the executor goroutine. Observers
// must not block.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev Event) { f(ev) }

func (rt *Runtime) emit(ev Event) {
	if rt.cfg.Debug {
		rt.logger.Debug("scheduler event", "kind", ev.Kind, "task", ev.Task, "frame", ev.Frame,
			"unit", ev.Unit, "lanes", ev.Lanes)
	}
	if len(rt.observers) == 0 {
		return
	}
	ev.Time = time.Now()
	for _, o := range rt.observers {
		o.Observe(ev)
	}
}
