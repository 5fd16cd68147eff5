package core_test

import (
	"testing"

	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/vtest"
)

// unit is a bare coroutine whose resume runs fn.
type unit struct {
	name    string
	pending lane.Lanes
	resumes int
	fn      func(ctx *core.UpdateContext) error
}

func (u *unit) Name() string                 { return u.name }
func (u *unit) PendingLanes() lane.Lanes     { return u.pending }
func (u *unit) AddPendingLanes(l lane.Lanes) { u.pending |= l }

func (u *unit) Resume(ctx *core.UpdateContext) error {
	u.pending = lane.NoLanes
	u.resumes++
	if u.fn != nil {
		return u.fn(ctx)
	}
	return nil
}

// runInFrame resumes fn once inside a frame and returns the task error.
func runInFrame(t *testing.T, h *vtest.Harness, fn func(ctx *core.UpdateContext) error) error {
	t.Helper()
	u := &unit{name: "probe", fn: fn}
	return vtest.Settle(t, h, h.Runtime.ScheduleUpdate(u, lane.Options{}))
}
