package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/vtest"
)

func TestCoalescedTasksResumeOnce(t *testing.T) {
	h := vtest.NewHarness()
	var order []string
	u := &unit{name: "u", fn: func(*core.UpdateContext) error {
		order = append(order, "resume")
		return nil
	}}

	h.Loop.RequestCallback(func() { order = append(order, "visible") }, lane.PriorityUserVisible)
	bg := h.Runtime.ScheduleUpdate(u, lane.Options{Priority: lane.PriorityBackground})
	ub := h.Runtime.ScheduleUpdate(u, lane.Options{Priority: lane.PriorityUserBlocking})
	h.Drain()

	if u.resumes != 1 {
		t.Errorf("resumes = %d, want 1", u.resumes)
	}
	if !bg.Settled() || !ub.Settled() {
		t.Fatal("both tasks should have settled")
	}
	if bg.Err() != nil || ub.Err() != nil {
		t.Errorf("errors = %v, %v", bg.Err(), ub.Err())
	}
	// The user-blocking request flushes before the user-visible callback.
	if diff := cmp.Diff([]string{"resume", "visible"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCoalescedTasksResolveTogether(t *testing.T) {
	h := vtest.NewHarness()
	u := &unit{name: "u"}
	first := h.Runtime.ScheduleUpdate(u, lane.Options{})
	second := h.Runtime.ScheduleUpdate(u, lane.Options{})

	h.Loop.Step()
	if first.Settled() || second.Settled() {
		t.Fatal("tasks settled before commit")
	}
	h.Drain()
	if !first.Settled() || !second.Settled() {
		t.Fatal("tasks did not settle")
	}
	if u.resumes != 1 {
		t.Errorf("resumes = %d, want 1", u.resumes)
	}
}

func TestSilentUpdateWaitsForFlush(t *testing.T) {
	h := vtest.NewHarness()
	quiet := &unit{name: "quiet"}
	loud := &unit{name: "loud"}

	silent := h.Runtime.ScheduleUpdate(quiet, lane.Options{Silent: true, Immediate: true})
	h.Drain()
	if quiet.resumes != 0 || silent.Settled() {
		t.Fatal("silent update flushed on its own")
	}
	if h.Runtime.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", h.Runtime.Pending())
	}

	h.Runtime.ScheduleUpdate(loud, lane.Options{})
	h.Drain()
	if quiet.resumes != 1 || loud.resumes != 1 {
		t.Errorf("resumes = %d, %d, want 1, 1", quiet.resumes, loud.resumes)
	}
	if !silent.Settled() {
		t.Error("silent task did not settle")
	}
}

func TestImmediateFlushesInMicrotask(t *testing.T) {
	h := vtest.NewHarness()
	var order []string
	u := &unit{name: "u", fn: func(*core.UpdateContext) error {
		order = append(order, "resume")
		return nil
	}}
	h.Loop.RequestCallback(func() { order = append(order, "blocking") }, lane.PriorityUserBlocking)

	task := h.Runtime.ScheduleUpdate(u, lane.Options{Immediate: true})
	h.Loop.Step()

	if !task.Settled() {
		t.Fatal("immediate task should settle within one step")
	}
	if diff := cmp.Diff([]string{"resume", "blocking"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFlushSync(t *testing.T) {
	h := vtest.NewHarness()
	passive := 0
	a := &unit{name: "a", fn: func(ctx *core.UpdateContext) error {
		ctx.EnqueuePassive(core.EffectFunc(func() { passive++ }))
		return nil
	}}
	b := &unit{name: "b"}
	ta := h.Runtime.ScheduleUpdate(a, lane.Options{})
	tb := h.Runtime.ScheduleUpdate(b, lane.Options{Priority: lane.PriorityBackground})

	if err := h.Runtime.FlushSync(); err != nil {
		t.Fatalf("FlushSync: %v", err)
	}
	if !ta.Settled() || !tb.Settled() {
		t.Error("FlushSync left tasks pending")
	}
	if passive != 1 {
		t.Errorf("passive effects = %d, want 1", passive)
	}

	// Leftover flush and passive callbacks are no-ops.
	h.Drain()
	if passive != 1 || a.resumes != 1 {
		t.Errorf("passive = %d, resumes = %d after drain", passive, a.resumes)
	}
}

func TestFlushSyncReturnsErrors(t *testing.T) {
	h := vtest.NewHarness()
	boom := errors.New("boom")
	h.Runtime.ScheduleUpdate(&unit{name: "bad", fn: func(*core.UpdateContext) error { return boom }}, lane.Options{})
	h.Runtime.ScheduleUpdate(&unit{name: "good"}, lane.Options{})

	err := h.Runtime.FlushSync()
	if !errors.Is(err, boom) {
		t.Fatalf("FlushSync() = %v, want boom", err)
	}
}

func TestFlushSyncInsideRender(t *testing.T) {
	h := vtest.NewHarness()
	var inner error
	err := runInFrame(t, h, func(ctx *core.UpdateContext) error {
		inner = ctx.Runtime().FlushSync()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(inner, core.ErrFlushInProgress) {
		t.Errorf("FlushSync() = %v, want ErrFlushInProgress", inner)
	}
}

func TestRuntimeUsableAfterFailure(t *testing.T) {
	h := vtest.NewHarness()
	boom := errors.New("boom")
	bad := h.Runtime.ScheduleUpdate(&unit{name: "bad", fn: func(*core.UpdateContext) error { return boom }}, lane.Options{})
	good := h.Runtime.ScheduleUpdate(&unit{name: "good"}, lane.Options{})
	h.Drain()

	if !errors.Is(bad.Err(), boom) {
		t.Errorf("bad.Err() = %v, want boom", bad.Err())
	}
	if !good.Settled() || good.Err() != nil {
		t.Errorf("good task: settled=%v err=%v", good.Settled(), good.Err())
	}
}

func TestReentrantUpdatesJoinFrame(t *testing.T) {
	frames := 0
	h := vtest.NewHarness(core.WithObserver(core.ObserverFunc(func(ev core.Event) {
		if ev.Kind == core.EventFrameStarted {
			frames++
		}
	})))

	child := &unit{name: "child"}
	var childTask *core.Task
	parent := &unit{name: "parent"}
	parent.fn = func(ctx *core.UpdateContext) error {
		if parent.resumes == 1 {
			childTask = ctx.ScheduleUpdate(child, lane.Options{})
			ctx.ScheduleUpdate(parent, lane.Options{})
		}
		return nil
	}

	task := h.Runtime.ScheduleUpdate(parent, lane.Options{})
	h.Drain()

	if parent.resumes != 2 || child.resumes != 1 {
		t.Errorf("resumes = %d, %d, want 2, 1", parent.resumes, child.resumes)
	}
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
	if !task.Settled() || !childTask.Settled() {
		t.Error("absorbed task did not settle with its frame")
	}
}

func TestRenderLoopLimit(t *testing.T) {
	h := vtest.NewHarness(core.WithConfig(core.Config{MaxFrameIterations: 5}))
	u := &unit{name: "spin"}
	u.fn = func(ctx *core.UpdateContext) error {
		ctx.ScheduleUpdate(u, lane.Options{})
		return nil
	}

	err := vtest.Settle(t, h, h.Runtime.ScheduleUpdate(u, lane.Options{}))
	if !werrors.HasCode(err, werrors.CodeRenderLoop) {
		t.Fatalf("err = %v, want %s", err, werrors.CodeRenderLoop)
	}
	if u.resumes != 5 {
		t.Errorf("resumes = %d, want 5", u.resumes)
	}
}

func TestClose(t *testing.T) {
	h := vtest.NewHarness()
	queued := h.Runtime.ScheduleUpdate(&unit{name: "u"}, lane.Options{})
	h.Runtime.Close()

	if !errors.Is(queued.Err(), core.ErrTaskCancelled) {
		t.Errorf("queued.Err() = %v, want ErrTaskCancelled", queued.Err())
	}
	late := h.Runtime.ScheduleUpdate(&unit{name: "u"}, lane.Options{})
	if !errors.Is(late.Err(), core.ErrRuntimeClosed) {
		t.Errorf("late.Err() = %v, want ErrRuntimeClosed", late.Err())
	}
	if err := h.Runtime.FlushSync(); !errors.Is(err, core.ErrRuntimeClosed) {
		t.Errorf("FlushSync() = %v, want ErrRuntimeClosed", err)
	}
	h.Drain()
}

func TestObserverEvents(t *testing.T) {
	var kinds []string
	h := vtest.NewHarness(core.WithObserver(core.ObserverFunc(func(ev core.Event) {
		kinds = append(kinds, ev.Kind.String())
	})))
	u := &unit{name: "u", fn: func(ctx *core.UpdateContext) error {
		ctx.EnqueueMutation(core.EffectFunc(func() {}))
		return nil
	}}
	h.Runtime.ScheduleUpdate(u, lane.Options{})
	h.Drain()

	want := []string{"task_scheduled", "frame_started", "resume", "commit", "task_done"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskWait(t *testing.T) {
	h := vtest.NewHarness()
	task := h.Render("x")
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	pending := h.Runtime.ScheduleUpdate(&unit{name: "u"}, lane.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pending.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
	h.Drain()
}

func TestDefaultPriorityFromConfig(t *testing.T) {
	h := vtest.NewHarness(core.WithConfig(core.Config{DefaultPriority: lane.PriorityBackground}))
	task := h.Runtime.ScheduleUpdate(&unit{name: "u"}, lane.Options{})
	if !task.Lanes().Has(lane.BackgroundLane) {
		t.Errorf("lanes = %v, want background", task.Lanes())
	}
	h.Drain()
}
