package core

import (
	"errors"
	"runtime/debug"
	"time"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/lane"
)

// passiveBatch is a frame whose passive effects are waiting for their
// background callback.
type passiveBatch struct {
	task  *Task
	frame *Frame
	done  bool
}

// flush is the executor callback that drains the task queue.
func (rt *Runtime) flush() {
	if rt.flushing || rt.closed {
		return
	}
	rt.flushing = true
	rt.drain()
}

// drain runs queued tasks in order. Sync-lane tasks render and commit
// inline; the first other task continues asynchronously and calls drain
// again when its layout commit is done.
func (rt *Runtime) drain() {
	for len(rt.queue) > 0 && !rt.closed {
		t := rt.queue[0]
		rt.queue[0] = nil
		rt.queue = rt.queue[1:]

		if rt.coalesce(t) {
			continue
		}
		if t.lanes.Has(lane.SyncLane) {
			rt.runTask(t, true, nil)
			continue
		}
		rt.runTask(t, false, rt.drain)
		return
	}
	rt.flushing = false
}

// FlushSync drains every queued task on the calling goroutine, passive
// effects included, and returns the joined task errors.
func (rt *Runtime) FlushSync() error {
	if rt.closed {
		return ErrRuntimeClosed
	}
	if rt.flushing {
		return ErrFlushInProgress
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()

	var errs []error
	rt.drainPassive()
	for len(rt.queue) > 0 && !rt.closed {
		t := rt.queue[0]
		rt.queue[0] = nil
		rt.queue = rt.queue[1:]

		if rt.coalesce(t) {
			continue
		}
		rt.runTask(t, true, nil)
		rt.drainPassive()
		if err := t.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// coalesce resolves t without rendering when an earlier resume already
// consumed its coroutine's pending lanes.
func (rt *Runtime) coalesce(t *Task) bool {
	if t.coroutine.PendingLanes().Intersects(t.lanes) {
		return false
	}
	rt.emit(Event{Kind: EventTaskCoalesced, Task: t.id, Lanes: t.lanes, Unit: t.coroutine.Name()})
	if rt.last != nil && !rt.last.settled {
		rt.last.follow(t)
	} else {
		t.settle(nil)
	}
	return true
}

// runTask renders t's frame to a fixpoint and commits it. With sync set
// everything up to the passive request happens before runTask returns and
// next is not called.
func (rt *Runtime) runTask(t *Task, sync bool, next func()) {
	rt.frameSeq++
	f := newFrame(rt.frameSeq, t)
	rt.frame = f
	rt.emit(Event{Kind: EventFrameStarted, Task: t.id, Frame: f.id, Lanes: f.lanes, Unit: t.coroutine.Name()})

	rt.render(f, sync, func(err error) {
		rt.frame = nil
		if err != nil {
			rt.finish(f, err)
			if next != nil {
				next()
			}
			return
		}
		rt.last = t

		if sync || f.lanes.Has(lane.SyncLane) {
			rt.commitLayout(f)
			rt.afterLayout(f)
			if next != nil {
				next()
			}
			return
		}
		rt.exec.RequestCallback(func() {
			if rt.closed {
				t.settle(ErrTaskCancelled)
				return
			}
			rt.commitLayout(f)
			rt.afterLayout(f)
			next()
		}, lane.PriorityUserBlocking)
	})
}

// render runs fixpoint iterations until no coroutine in f is pending, then
// calls k. The async path yields to the executor between iterations.
func (rt *Runtime) render(f *Frame, sync bool, k func(error)) {
	for {
		if f.iterations >= rt.cfg.MaxFrameIterations {
			k(werrors.New(werrors.CodeRenderLoop).
				WithDetailf("frame %d still had %d pending units after %d iterations", f.id, len(f.pending), f.iterations).
				WithUnit(f.task.coroutine.Name()).
				WithSuggestion("Check for state updates that run on every render"))
			return
		}
		f.iterations++

		batch := f.pending
		f.pending = nil
		rt.resuming = true
		for _, co := range batch {
			if !co.PendingLanes().Intersects(f.lanes) {
				continue
			}
			if err := rt.resume(f, co); err != nil {
				rt.resuming = false
				k(err)
				return
			}
		}
		rt.resuming = false

		if len(f.pending) == 0 {
			k(nil)
			return
		}
		// An absorbed sync update finishes the frame without yielding.
		if !sync && !f.lanes.Has(lane.SyncLane) {
			rt.exec.Yield(func() {
				if rt.closed {
					k(ErrTaskCancelled)
					return
				}
				rt.render(f, false, k)
			})
			return
		}
	}
}

// resume runs one coroutine pass, converting a panic that escaped the
// coroutine into an error.
func (rt *Runtime) resume(f *Frame, co Coroutine) (err error) {
	start := time.Now()
	ctx := &UpdateContext{rt: rt, frame: f, owner: co}
	f.lanes |= co.PendingLanes()
	defer func() {
		if r := recover(); r != nil {
			e := werrors.FromPanic(r, werrors.CodeRenderPanic)
			if e.Stack == "" {
				e = e.WithStack(debug.Stack())
			}
			if e.Unit == "" {
				e.Unit = co.Name()
			}
			rt.logger.Error("resume panic", "unit", co.Name(), "panic", r, "stack", e.Stack)
			err = e
		}
		f.resumes++
		rt.emit(Event{Kind: EventResume, Task: f.task.id, Frame: f.id, Lanes: f.lanes, Unit: co.Name(), Duration: time.Since(start)})
	}()
	return co.Resume(ctx)
}

// commitLayout commits the mutation and layout phases together, inside a
// view transition when the frame carries the view-transition lane.
func (rt *Runtime) commitLayout(f *Frame) {
	commit := func() {
		rt.commitPhase(f, PhaseMutation)
		rt.commitPhase(f, PhaseLayout)
	}
	if f.lanes.Has(lane.ViewTransitionLane) {
		rt.backend.StartViewTransition(commit)
		return
	}
	commit()
}

// afterLayout resolves f's task, or requests the background callback that
// commits its passive effects first.
func (rt *Runtime) afterLayout(f *Frame) {
	if f.Len(PhasePassive) == 0 {
		rt.finish(f, nil)
		return
	}
	b := &passiveBatch{task: f.task, frame: f}
	rt.passive = append(rt.passive, b)
	rt.exec.RequestCallback(func() { rt.commitPassive(b) }, lane.PriorityBackground)
}

// commitPassive commits b and every batch queued before it.
func (rt *Runtime) commitPassive(b *passiveBatch) {
	if b.done || rt.closed {
		return
	}
	for len(rt.passive) > 0 {
		head := rt.passive[0]
		rt.passive[0] = nil
		rt.passive = rt.passive[1:]
		head.done = true
		rt.commitPhase(head.frame, PhasePassive)
		rt.finish(head.frame, nil)
		if head == b {
			return
		}
	}
}

func (rt *Runtime) drainPassive() {
	if n := len(rt.passive); n > 0 {
		rt.commitPassive(rt.passive[n-1])
	}
}

func (rt *Runtime) commitPhase(f *Frame, phase Phase) {
	effects := f.take(phase)
	if len(effects) == 0 {
		return
	}
	start := time.Now()
	rt.backend.CommitEffects(effects, phase)
	rt.emit(Event{
		Kind:     EventCommit,
		Task:     f.task.id,
		Frame:    f.id,
		Lanes:    f.lanes,
		Phase:    phase,
		Effects:  len(effects),
		Duration: time.Since(start),
	})
}

// finish resolves f's task with err joined with any effect failures.
func (rt *Runtime) finish(f *Frame, err error) {
	t := f.task
	if err != nil {
		f.errs = append([]error{err}, f.errs...)
	}
	joined := errors.Join(f.errs...)
	if joined != nil {
		rt.logger.Warn("task failed", "task", t.id, "unit", t.coroutine.Name(), "error", joined)
	} else {
		rt.logger.Debug("task done", "task", t.id, "unit", t.coroutine.Name(),
			"iterations", f.iterations, "resumes", f.resumes)
	}
	rt.emit(Event{
		Kind:       EventTaskDone,
		Task:       t.id,
		Frame:      f.id,
		Lanes:      t.lanes,
		Unit:       t.coroutine.Name(),
		Iterations: f.iterations,
		Duration:   time.Since(t.scheduled),
		Err:        joined,
	})
	t.settle(joined)
}
