package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/weft/pkg/core"
)

// Default tracer name for weft runtimes.
const defaultTracerName = "weft"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "weft").
	TracerName string

	// Provider supplies the tracer. Default: otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Resumes records every coroutine resume as a span event.
	// Enabled by default.
	Resumes bool

	// Filter determines which tasks to trace by coroutine name.
	// If nil, all tasks are traced.
	Filter func(unit string) bool
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// WithResumeEvents enables or disables resume span events.
func WithResumeEvents(enabled bool) TracerOption {
	return func(c *TracerConfig) {
		c.Resumes = enabled
	}
}

// WithUnitFilter sets a filter on the scheduled coroutine's name.
func WithUnitFilter(filter func(unit string) bool) TracerOption {
	return func(c *TracerConfig) {
		c.Filter = filter
	}
}

// Tracer is a core.Observer that opens one span per task.
type Tracer struct {
	config TracerConfig
	tracer trace.Tracer
	spans  map[uint64]trace.Span
}

// NewTracer creates a tracing observer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName, Resumes: true}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &Tracer{
		config: config,
		tracer: config.Provider.Tracer(config.TracerName),
		spans:  make(map[uint64]trace.Span),
	}
}

// Active returns the number of open task spans.
func (t *Tracer) Active() int { return len(t.spans) }

// Observe implements core.Observer.
func (t *Tracer) Observe(ev core.Event) {
	if ev.Kind == core.EventTaskScheduled {
		t.start(ev)
		return
	}
	span, ok := t.spans[ev.Task]
	if !ok {
		return
	}

	switch ev.Kind {
	case core.EventTaskCoalesced, core.EventTaskAbsorbed:
		attrs := []attribute.KeyValue{attribute.String("weft.outcome", ev.Kind.String())}
		if ev.Frame != 0 {
			attrs = append(attrs, attribute.Int64("weft.frame", int64(ev.Frame)))
		}
		span.SetAttributes(attrs...)
		span.SetStatus(codes.Ok, "")
		t.end(ev, span)

	case core.EventFrameStarted:
		span.AddEvent("frame", trace.WithTimestamp(ev.Time), trace.WithAttributes(
			attribute.Int64("weft.frame", int64(ev.Frame)),
			attribute.String("weft.lanes", ev.Lanes.String()),
		))

	case core.EventResume:
		if !t.config.Resumes {
			return
		}
		span.AddEvent("resume", trace.WithTimestamp(ev.Time), trace.WithAttributes(
			attribute.String("weft.unit", ev.Unit),
			attribute.Int64("weft.duration_ns", ev.Duration.Nanoseconds()),
		))

	case core.EventCommit:
		span.AddEvent("commit", trace.WithTimestamp(ev.Time), trace.WithAttributes(
			attribute.String("weft.phase", ev.Phase.String()),
			attribute.Int("weft.effects", ev.Effects),
		))

	case core.EventTaskDone:
		span.SetAttributes(
			attribute.String("weft.outcome", "rendered"),
			attribute.Int("weft.iterations", ev.Iterations),
		)
		if ev.Err != nil {
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, ev.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		t.end(ev, span)
	}
}

func (t *Tracer) start(ev core.Event) {
	if t.config.Filter != nil && !t.config.Filter(ev.Unit) {
		return
	}
	_, span := t.tracer.Start(context.Background(), "weft.task "+ev.Unit,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(ev.Time),
		trace.WithAttributes(
			attribute.Int64("weft.task", int64(ev.Task)),
			attribute.String("weft.unit", ev.Unit),
			attribute.String("weft.lanes", ev.Lanes.String()),
		),
	)
	t.spans[ev.Task] = span
}

func (t *Tracer) end(ev core.Event, span trace.Span) {
	delete(t.spans, ev.Task)
	span.End(trace.WithTimestamp(ev.Time))
}
