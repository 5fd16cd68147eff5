package telemetry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/vtest"
)

func newTracerHarness(t *testing.T, opts ...TracerOption) (*Tracer, *tracetest.SpanRecorder, *vtest.Harness) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := NewTracer(append([]TracerOption{WithTracerProvider(tp)}, opts...)...)
	return tr, sr, vtest.NewHarness(core.WithObserver(tr))
}

func attr(attrs []attribute.KeyValue, key string) string {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestTracerSpanPerTask(t *testing.T) {
	tr, sr, h := newTracerHarness(t)

	if err := vtest.Settle(t, h, h.Render("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "weft.task Root" {
		t.Errorf("Name = %q", span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("Status = %v, want Ok", span.Status())
	}
	if got := attr(span.Attributes(), "weft.outcome"); got != "rendered" {
		t.Errorf("outcome = %q, want rendered", got)
	}

	var events []string
	for _, e := range span.Events() {
		events = append(events, e.Name)
	}
	if diff := cmp.Diff([]string{"frame", "resume", "commit"}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if tr.Active() != 0 {
		t.Errorf("Active = %d, want 0", tr.Active())
	}
}

func TestTracerRecordsFailure(t *testing.T) {
	_, sr, h := newTracerHarness(t)
	bad := core.Define("Bad", func(_ int, _ *core.RenderContext) any {
		panic("broken")
	})

	vtest.Settle(t, h, h.Render(core.Render(bad, 0)))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("Status = %v, want Error", spans[0].Status())
	}
}

func TestTracerEndsCoalescedSpans(t *testing.T) {
	tr, sr, h := newTracerHarness(t, WithResumeEvents(false))

	h.Root.Update("a", lane.Options{})
	h.Root.Update("b", lane.Options{})
	if tr.Active() != 2 {
		t.Errorf("Active before flush = %d, want 2", tr.Active())
	}
	h.Drain()

	outcomes := map[string]int{}
	for _, s := range sr.Ended() {
		outcomes[attr(s.Attributes(), "weft.outcome")]++
		for _, e := range s.Events() {
			if e.Name == "resume" {
				t.Error("resume events were disabled")
			}
		}
	}
	want := map[string]int{"rendered": 1, "task_coalesced": 1}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if tr.Active() != 0 {
		t.Errorf("Active = %d, want 0", tr.Active())
	}
}

func TestTracerFilter(t *testing.T) {
	tr, sr, h := newTracerHarness(t, WithUnitFilter(func(unit string) bool { return unit != "Root" }))

	h.Render("hello")
	if n := len(sr.Ended()); n != 0 {
		t.Errorf("ended spans = %d, want 0", n)
	}
	if tr.Active() != 0 {
		t.Errorf("Active = %d, want 0", tr.Active())
	}
}
