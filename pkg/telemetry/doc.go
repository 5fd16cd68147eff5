// Package telemetry turns scheduler events into Prometheus metrics and
// OpenTelemetry spans.
//
// Both exporters are core.Observer values and attach with core.WithObserver:
//
//	reg := prometheus.NewRegistry()
//	rt := core.New(backend, exec,
//	    core.WithObserver(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
//	    core.WithObserver(telemetry.NewTracer()),
//	)
//
// Metrics collected (namespace "weft" by default):
//   - tasks_scheduled_total: tasks created by ScheduleUpdate
//   - tasks_merged_total{kind}: tasks resolved by another task's frame
//     (kind is "coalesced" or "absorbed")
//   - tasks_total{status}: tasks that ran their own frame
//   - task_errors_total{code}: failed tasks by error code
//   - tasks_pending: tasks scheduled but not resolved
//   - task_duration_seconds: time from scheduling to resolution
//   - frames_total, frame_iterations: frames started and fixpoint passes
//   - resumes_total, resume_duration_seconds: coroutine passes
//   - commit_effects_total{phase}, commit_duration_seconds{phase}
//
// The tracer opens one span per task. Frame starts, resumes and commits
// are recorded as span events; the span ends when the task resolves.
// Spans use the global tracer provider unless WithTracerProvider is given.
package telemetry
