package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/vtest"
)

func TestEffectPhaseOrder(t *testing.T) {
	h := vtest.NewHarness()
	var log []string
	var htmlAtLayout string

	phases := core.Define("Phases", func(_ int, rc *core.RenderContext) any {
		core.UseEffect(rc, func() func() {
			log = append(log, "passive")
			return nil
		}, []any{})
		core.UseLayoutEffect(rc, func() func() {
			log = append(log, "layout")
			htmlAtLayout = h.HTML()
			return nil
		}, []any{})
		core.UseInsertionEffect(rc, func() func() {
			log = append(log, "insertion")
			return nil
		}, []any{})
		return "x"
	})

	task := h.Render(core.Render(phases, 0))
	if err := vtest.Settle(t, h, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"insertion", "layout", "passive"}, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if htmlAtLayout != "x" {
		t.Errorf("layout effect saw %q, want mutations applied", htmlAtLayout)
	}

	var got []core.Phase
	for _, c := range h.Backend.Commits() {
		got = append(got, c.Phase)
	}
	want := []core.Phase{core.PhaseMutation, core.PhaseLayout, core.PhasePassive}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("commit phases mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectsRunEnclosingFirst(t *testing.T) {
	h := vtest.NewHarness()
	var log []string

	child := core.Define("Child", func(_ int, rc *core.RenderContext) any {
		core.UseLayoutEffect(rc, func() func() {
			log = append(log, "child")
			return nil
		}, []any{})
		return "c"
	})
	parent := core.Define("Parent", func(_ int, rc *core.RenderContext) any {
		core.UseLayoutEffect(rc, func() func() {
			log = append(log, "parent")
			return nil
		}, []any{})
		return vtest.H("div", core.Render(child, 0))
	})

	h.Render(core.Render(parent, 0))
	if diff := cmp.Diff([]string{"parent", "child"}, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	vtest.ExpectHTML(t, h, "<div>c</div>")
}

type memoProps struct {
	N   int
	Dep int
}

func TestHookStability(t *testing.T) {
	h := vtest.NewHarness()
	factory, effects, cleanups := 0, 0, 0

	comp := core.Define("Stable", func(p memoProps, rc *core.RenderContext) any {
		v := core.UseMemo(rc, func() int {
			factory++
			return p.Dep * 2
		}, []any{p.Dep})
		core.UseEffect(rc, func() func() {
			effects++
			return func() { cleanups++ }
		}, []any{p.Dep})
		return fmt.Sprintf("%d:%d", p.N, v)
	})

	h.Render(core.Render(comp, memoProps{N: 1, Dep: 5}))
	h.Render(core.Render(comp, memoProps{N: 2, Dep: 5}))
	vtest.ExpectHTML(t, h, "2:10")
	if factory != 1 || effects != 1 || cleanups != 0 {
		t.Errorf("unchanged deps: factory=%d effects=%d cleanups=%d", factory, effects, cleanups)
	}

	h.Render(core.Render(comp, memoProps{N: 3, Dep: 6}))
	vtest.ExpectHTML(t, h, "3:12")
	if factory != 2 || effects != 2 || cleanups != 1 {
		t.Errorf("changed deps: factory=%d effects=%d cleanups=%d", factory, effects, cleanups)
	}

	h.Root.Unmount(lane.Options{})
	h.Drain()
	if cleanups != 2 {
		t.Errorf("cleanups after unmount = %d, want 2", cleanups)
	}
}

func TestNilDepsRunEveryRender(t *testing.T) {
	h := vtest.NewHarness()
	runs := 0
	comp := core.Define("Always", func(n int, rc *core.RenderContext) any {
		core.UseLayoutEffect(rc, func() func() {
			runs++
			return nil
		}, nil)
		return n
	})

	h.Render(core.Render(comp, 1))
	h.Render(core.Render(comp, 2))
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestTeardownBeforeMount(t *testing.T) {
	h := vtest.NewHarness()
	var log []string
	effect := func(name string) *core.Component[int] {
		return core.Define(name, func(_ int, rc *core.RenderContext) any {
			core.UseLayoutEffect(rc, func() func() {
				log = append(log, "mount "+name)
				return func() { log = append(log, "cleanup "+name) }
			}, []any{})
			return name
		})
	}
	a, b := effect("A"), effect("B")

	h.Render(core.Render(a, 0))
	h.Render(core.Render(b, 0))

	want := []string{"mount A", "cleanup A", "mount B"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	vtest.ExpectHTML(t, h, "B")
}

func TestHookOrderViolation(t *testing.T) {
	comp := core.Define("Conditional", func(withMemo bool, rc *core.RenderContext) any {
		if withMemo {
			core.UseMemo(rc, func() int { return 1 }, nil)
		}
		return "x"
	})

	for _, first := range []bool{true, false} {
		h := vtest.NewHarness()
		if err := vtest.Settle(t, h, h.Render(core.Render(comp, first))); err != nil {
			t.Fatalf("first render: %v", err)
		}
		err := vtest.Settle(t, h, h.Render(core.Render(comp, !first)))
		if !werrors.HasCode(err, werrors.CodeHookOrder) {
			t.Errorf("first=%v: err = %v, want %s", first, err, werrors.CodeHookOrder)
		}
		if !werrors.IsProtocol(err) {
			t.Errorf("first=%v: hook order errors are protocol errors", first)
		}
	}
}

func TestHookOutsideRender(t *testing.T) {
	h := vtest.NewHarness()
	var saved *core.RenderContext
	comp := core.Define("Leaky", func(_ int, rc *core.RenderContext) any {
		saved = rc
		return nil
	})
	h.Render(core.Render(comp, 0))

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !werrors.HasCode(err, werrors.CodeHookOutsideRender) {
			t.Errorf("recovered %v, want %s", r, werrors.CodeHookOutsideRender)
		}
	}()
	core.UseMemo(saved, func() int { return 1 }, nil)
}

func TestUseID(t *testing.T) {
	h := vtest.NewHarness()
	comp := core.Define("Labelled", func(n int, rc *core.RenderContext) any {
		return vtest.H("span", vtest.A("id", core.UseID(rc)), n)
	})
	ids := func() []string {
		var out []string
		for _, n := range h.Backend.FindAll("span") {
			id, _ := n.Attr("id")
			out = append(out, id)
		}
		return out
	}

	h.Render([]any{core.Render(comp, 1), core.Render(comp, 2)})
	first := ids()
	if len(first) != 2 || first[0] == first[1] || first[0] == "" {
		t.Fatalf("ids = %v, want two distinct ids", first)
	}

	h.Render([]any{core.Render(comp, 3), core.Render(comp, 4)})
	if diff := cmp.Diff(first, ids()); diff != "" {
		t.Errorf("ids changed across renders (-want +got):\n%s", diff)
	}
}

var themeKey = core.NewContextKey[string]("theme")

func TestContextValues(t *testing.T) {
	h := vtest.NewHarness()
	leaf := core.Define("Leaf", func(_ int, rc *core.RenderContext) any {
		theme, ok := core.UseContext(rc, themeKey)
		if !ok {
			return "none"
		}
		return theme
	})
	provider := core.Define("Provider", func(theme string, rc *core.RenderContext) any {
		core.Provide(rc, themeKey, theme)
		return core.Render(leaf, 0)
	})

	h.Render(core.Render(leaf, 0))
	vtest.ExpectHTML(t, h, "none")

	h.Render(core.Render(provider, "dark"))
	vtest.ExpectHTML(t, h, "dark")
}

func TestUseReducer(t *testing.T) {
	h := vtest.NewHarness()
	var dispatch *core.Dispatcher[string]
	renders := 0
	comp := core.Define("Counter", func(_ int, rc *core.RenderContext) any {
		renders++
		n, d := core.UseReducer(rc, func(n int, action string) int {
			switch action {
			case "inc":
				return n + 1
			default:
				return n
			}
		}, 0)
		dispatch = d
		return n
	})

	h.Render(core.Render(comp, 0))
	if task := dispatch.Dispatch("noop"); task != nil {
		t.Error("unchanged state should not schedule")
	}
	task := dispatch.Dispatch("inc")
	if err := vtest.Settle(t, h, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vtest.ExpectHTML(t, h, "1")
	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
}

func TestReducerPanic(t *testing.T) {
	h := vtest.NewHarness()
	var dispatch *core.Dispatcher[int]
	comp := core.Define("Fragile", func(_ int, rc *core.RenderContext) any {
		n, d := core.UseReducer(rc, func(n, by int) int {
			if by < 0 {
				panic("negative step")
			}
			return n + by
		}, 0)
		dispatch = d
		return n
	})
	h.Render(core.Render(comp, 0))

	task := dispatch.Dispatch(-1)
	if task == nil || !werrors.HasCode(task.Err(), werrors.CodeReducerPanic) {
		t.Fatalf("task = %v, want a %s failure", task, werrors.CodeReducerPanic)
	}

	var caught error
	h.Root.Scope().SetErrorHandler(func(err error) error {
		caught = err
		return nil
	})
	if task := dispatch.Dispatch(-1); task != nil {
		t.Error("handled reducer panic should not return a task")
	}
	if !werrors.HasCode(caught, werrors.CodeReducerPanic) {
		t.Errorf("caught = %v", caught)
	}
	vtest.ExpectHTML(t, h, "0")
}

func TestUseStore(t *testing.T) {
	h := vtest.NewHarness()
	store := core.NewValueStore("a")
	comp := core.Define("Reader", func(_ int, rc *core.RenderContext) any {
		return core.UseStore[string](rc, store)
	})

	h.Render(core.Render(comp, 0))
	vtest.ExpectHTML(t, h, "a")

	store.Set("b")
	h.Drain()
	vtest.ExpectHTML(t, h, "b")

	h.Root.Unmount(lane.Options{})
	h.Drain()
	store.Set("c")
	if h.Runtime.Pending() != 0 {
		t.Error("unmounted reader is still subscribed")
	}
}

func TestForceUpdate(t *testing.T) {
	h := vtest.NewHarness()
	var rc0 *core.RenderContext
	renders := 0
	comp := core.Define("Forced", func(_ int, rc *core.RenderContext) any {
		renders++
		rc0 = rc
		return renders
	})
	h.Render(core.Render(comp, 0))

	task := rc0.ForceUpdate(lane.Options{Priority: lane.PriorityUserBlocking})
	if err := vtest.Settle(t, h, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vtest.ExpectHTML(t, h, "2")
}

func TestCatchErrorHandlesRenderPanic(t *testing.T) {
	h := vtest.NewHarness()
	var caught error
	bad := core.Define("Bad", func(_ int, rc *core.RenderContext) any {
		panic("broken")
	})
	boundary := core.Define("Boundary", func(_ int, rc *core.RenderContext) any {
		rc.CatchError(func(err error) error {
			caught = err
			return nil
		})
		return vtest.H("div", "before", core.Render(bad, 0))
	})

	err := vtest.Settle(t, h, h.Render(core.Render(boundary, 0)))
	if err != nil {
		t.Fatalf("handled error failed the task: %v", err)
	}
	if !werrors.HasCode(caught, werrors.CodeRenderPanic) {
		t.Errorf("caught = %v, want %s", caught, werrors.CodeRenderPanic)
	}
	vtest.ExpectHTML(t, h, "<div>before</div>")
}

type stepProps struct {
	N    int
	Fail bool
}

func TestFailedRenderDiscardsHookWrites(t *testing.T) {
	h := vtest.NewHarness()
	var effects []int
	computed := 0

	step := core.Define("Step", func(p stepProps, rc *core.RenderContext) any {
		label := core.UseMemo(rc, func() string {
			computed++
			return fmt.Sprintf("n%d", p.N)
		}, []any{p.N})
		core.UseLayoutEffect(rc, func() func() {
			effects = append(effects, p.N)
			return nil
		}, []any{p.N})
		if p.Fail {
			panic("step failed")
		}
		return label
	})
	boundary := core.Define("Boundary", func(p stepProps, rc *core.RenderContext) any {
		rc.CatchError(func(error) error { return nil })
		return vtest.H("div", core.Render(step, p))
	})

	for _, p := range []stepProps{{N: 1}, {N: 2, Fail: true}} {
		if err := vtest.Settle(t, h, h.Render(core.Render(boundary, p))); err != nil {
			t.Fatalf("render %+v: %v", p, err)
		}
	}
	if diff := cmp.Diff([]int{1}, effects); diff != "" {
		t.Errorf("effects of the failed render committed (-want +got):\n%s", diff)
	}
	vtest.ExpectHTML(t, h, "<div>n1</div>")

	// The retry sees the deps of the last completed render.
	if err := vtest.Settle(t, h, h.Render(core.Render(boundary, stepProps{N: 2}))); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, effects); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
	vtest.ExpectHTML(t, h, "<div>n2</div>")
	if computed != 3 {
		t.Errorf("memo computed %d times, want 3", computed)
	}
}

func TestUnhandledRenderPanicFailsTask(t *testing.T) {
	h := vtest.NewHarness()
	bad := core.Define("Bad", func(_ int, rc *core.RenderContext) any {
		panic(errors.New("broken"))
	})

	err := vtest.Settle(t, h, h.Render(core.Render(bad, 0)))
	if !werrors.HasCode(err, werrors.CodeRenderPanic) {
		t.Fatalf("err = %v, want %s", err, werrors.CodeRenderPanic)
	}

	if err := vtest.Settle(t, h, h.Render("recovered")); err != nil {
		t.Fatalf("runtime unusable after failure: %v", err)
	}
	vtest.ExpectHTML(t, h, "recovered")
}

func TestEffectPanicDoesNotStopSiblings(t *testing.T) {
	h := vtest.NewHarness()
	ran := false
	comp := core.Define("Effects", func(_ int, rc *core.RenderContext) any {
		core.UseLayoutEffect(rc, func() func() { panic("first") }, []any{})
		core.UseLayoutEffect(rc, func() func() {
			ran = true
			return nil
		}, []any{})
		return "x"
	})

	err := vtest.Settle(t, h, h.Render(core.Render(comp, 0)))
	if !ran {
		t.Error("sibling effect did not run")
	}
	if !werrors.HasCode(err, werrors.CodeEffectPanic) {
		t.Errorf("err = %v, want %s", err, werrors.CodeEffectPanic)
	}
	vtest.ExpectHTML(t, h, "x")
}

func TestEffectPanicRoutedToRootHandler(t *testing.T) {
	h := vtest.NewHarness()
	var caught error
	h.Root.Scope().SetErrorHandler(func(err error) error {
		caught = err
		return nil
	})
	comp := core.Define("Effects", func(_ int, rc *core.RenderContext) any {
		core.UseEffect(rc, func() func() { panic("passive") }, []any{})
		return "x"
	})

	if err := vtest.Settle(t, h, h.Render(core.Render(comp, 0))); err != nil {
		t.Fatalf("handled effect panic failed the task: %v", err)
	}
	if !werrors.HasCode(caught, werrors.CodeEffectPanic) {
		t.Errorf("caught = %v, want %s", caught, werrors.CodeEffectPanic)
	}
}
