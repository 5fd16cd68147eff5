package devtools

import (
	"time"

	"github.com/vango-dev/weft/pkg/core"
)

// EventRecord is the JSON form of a core.Event.
type EventRecord struct {
	Kind       string    `json:"kind"`
	Time       time.Time `json:"time"`
	Task       uint64    `json:"task,omitempty"`
	Frame      uint64    `json:"frame,omitempty"`
	Lanes      string    `json:"lanes,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Effects    int       `json:"effects,omitempty"`
	Iterations int       `json:"iterations,omitempty"`
	DurationNS int64     `json:"durationNs,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewEventRecord converts ev.
func NewEventRecord(ev core.Event) EventRecord {
	r := EventRecord{
		Kind:       ev.Kind.String(),
		Time:       ev.Time,
		Task:       ev.Task,
		Frame:      ev.Frame,
		Unit:       ev.Unit,
		Effects:    ev.Effects,
		Iterations: ev.Iterations,
		DurationNS: ev.Duration.Nanoseconds(),
	}
	if ev.Lanes != 0 {
		r.Lanes = ev.Lanes.String()
	}
	if ev.Kind == core.EventCommit {
		r.Phase = ev.Phase.String()
	}
	if ev.Err != nil {
		r.Error = ev.Err.Error()
	}
	return r
}
