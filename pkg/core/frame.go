package core

import (
	"runtime/debug"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/lane"
)

// phaseQueue holds one phase's effects. Teardown effects of disconnected
// units commit before the phase's other effects.
type phaseQueue struct {
	teardown []Effect
	effects  []Effect
}

// Frame is the scratch state of one update pass: coroutines still to resume
// and the three effect queues. A frame belongs to one task and is discarded
// after its effects commit.
type Frame struct {
	id         uint64
	lanes      lane.Lanes
	task       *Task
	pending    []Coroutine
	queues     [3]phaseQueue
	iterations int
	resumes    int
	errs       []error
}

func newFrame(id uint64, t *Task) *Frame {
	return &Frame{
		id:      id,
		lanes:   t.lanes,
		task:    t,
		pending: []Coroutine{t.coroutine},
	}
}

// ID returns the frame's sequence number within its runtime.
func (f *Frame) ID() uint64 { return f.id }

// Lanes returns the lanes the frame renders.
func (f *Frame) Lanes() lane.Lanes { return f.lanes }

// Iterations returns the number of fixpoint iterations run so far.
func (f *Frame) Iterations() int { return f.iterations }

// Len returns the number of effects queued for phase, teardowns included.
func (f *Frame) Len(phase Phase) int {
	q := &f.queues[phase-1]
	return len(q.teardown) + len(q.effects)
}

func (f *Frame) enqueue(phase Phase, e Effect) {
	q := &f.queues[phase-1]
	q.effects = append(q.effects, e)
}

func (f *Frame) enqueueTeardown(phase Phase, e Effect) {
	q := &f.queues[phase-1]
	q.teardown = append(q.teardown, e)
}

// take drains phase's queue in commit order.
func (f *Frame) take(phase Phase) []Effect {
	q := &f.queues[phase-1]
	out := make([]Effect, 0, len(q.teardown)+len(q.effects))
	out = append(out, q.teardown...)
	out = append(out, q.effects...)
	*q = phaseQueue{}
	return out
}

// guardedEffect recovers a panicking effect and routes the failure to the
// scope it was enqueued from. Unhandled failures fail the frame's task.
type guardedEffect struct {
	rt     *Runtime
	frame  *Frame
	scope  *Scope
	phase  Phase
	effect Effect
}

func (g *guardedEffect) Commit() {
	defer func() {
		if r := recover(); r != nil {
			err := werrors.FromPanic(r, werrors.CodeEffectPanic)
			if err.Stack == "" {
				err = err.WithStack(debug.Stack())
			}
			g.rt.logger.Error("effect panic",
				"phase", g.phase.String(),
				"panic", r,
				"stack", err.Stack,
			)
			if rest := g.scope.HandleError(err); rest != nil {
				g.frame.errs = append(g.frame.errs, rest)
			}
		}
	}()
	g.effect.Commit()
}
