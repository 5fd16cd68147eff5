package vtest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/loop"
)

// Harness wires a Backend, a Loop and a Runtime with one mounted root.
// Tests drive it from the test goroutine with Drain.
type Harness struct {
	Backend *Backend
	Loop    *loop.Loop
	Runtime *core.Runtime
	Root    *core.Root
}

// NewHarness creates a harness. Logs are discarded unless an option sets a
// logger.
func NewHarness(opts ...core.Option) *Harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := New()
	lp := loop.New(loop.WithLogger(logger))
	rt := core.New(b, lp, append([]core.Option{core.WithLogger(logger)}, opts...)...)
	return &Harness{
		Backend: b,
		Loop:    lp,
		Runtime: rt,
		Root:    rt.Mount(b.Container()),
	}
}

// Render updates the root with value at default priority and drains the
// loop.
func (h *Harness) Render(value any) *core.Task {
	return h.RenderWith(value, lane.Options{})
}

// RenderWith updates the root with value and drains the loop.
func (h *Harness) RenderWith(value any, opts lane.Options) *core.Task {
	t := h.Root.Update(value, opts)
	h.Drain()
	return t
}

// Drain runs the loop until it is idle.
func (h *Harness) Drain() int { return h.Loop.Drain() }

// HTML serializes the rendered tree.
func (h *Harness) HTML() string { return h.Backend.HTML() }

// Find returns the first rendered element with the given tag.
func (h *Harness) Find(tag string) *Node { return h.Backend.Find(tag) }

// Click dispatches a click on the first element with the given tag and
// drains the loop.
func (h *Harness) Click(tag string) bool {
	ok := h.Backend.Dispatch(h.Find(tag), "click", nil)
	h.Drain()
	return ok
}

// Settle drains the loop and fails the test if t has not settled.
func Settle(tb testing.TB, h *Harness, t *core.Task) error {
	tb.Helper()
	h.Drain()
	if !t.Settled() {
		tb.Fatalf("task %d did not settle", t.ID())
	}
	return t.Err()
}
