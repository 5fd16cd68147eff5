package core

import (
	"context"
	"time"

	"github.com/vango-dev/weft/pkg/lane"
)

// Task is the completion handle of one scheduled update. It resolves after
// the update's passive effects commit, or after its layout commit when there
// are none. Done, Err and Wait are safe to call from any goroutine.
type Task struct {
	id        uint64
	coroutine Coroutine
	lanes     lane.Lanes
	scheduled time.Time

	done      chan struct{}
	err       error
	settled   bool
	followers []*Task
}

func newTask(id uint64, co Coroutine, lanes lane.Lanes) *Task {
	return &Task{
		id:        id,
		coroutine: co,
		lanes:     lanes,
		scheduled: time.Now(),
		done:      make(chan struct{}),
	}
}

// ID returns the task's sequence number within its runtime.
func (t *Task) ID() uint64 { return t.id }

// Lanes returns the lanes the task was scheduled with.
func (t *Task) Lanes() lane.Lanes { return t.lanes }

// Done returns a channel closed when the task resolves.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's failure, or nil while pending or on success.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Settled reports whether the task has resolved.
func (t *Task) Settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task resolves or ctx is done. It must not be
// called from the executor goroutine, which would never get to resolve it.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// follow makes f resolve together with t.
func (t *Task) follow(f *Task) {
	if t.settled {
		f.settle(t.err)
		return
	}
	t.followers = append(t.followers, f)
}

func (t *Task) settle(err error) {
	if t.settled {
		return
	}
	t.settled = true
	t.err = err
	close(t.done)
	for _, f := range t.followers {
		f.settle(err)
	}
	t.followers = nil
}
