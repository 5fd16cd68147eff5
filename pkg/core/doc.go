// Package core is the incremental update runtime.
//
// It turns a stream of value trees into the minimal set of mutations on a
// persistent host tree and commits them in priority order. The package has
// four parts:
//
//   - The binding protocol. A Directive resolves a value at a part.Part into a
//     Binding, the stateful adapter for that insertion point. A Slot wraps a
//     Binding and decides whether its directive may change (strict or loose).
//   - The scheduler. ScheduleUpdate marks a Coroutine pending with a set of
//     lanes and queues a Task. The Runtime drains tasks: for each one it opens
//     a Frame, resumes coroutines until none are pending, then commits the
//     frame's mutation, layout and passive effects in that order.
//   - Hooks. Component render functions keep state across renders through
//     call-order-indexed hooks: UseMemo, UseReducer, UseEffect and friends.
//   - Reconciliation of keyed sequences lives in package reconcile and is used
//     by the collection directives in package directive.
//
// # Host contract
//
// The runtime does not know how to touch a real tree. A Backend resolves
// fallback directives, creates insertion points, places node ranges and runs
// committed effects. An Executor provides microtasks, priority callbacks and
// yield points. Package loop implements an Executor; package vtest implements
// an in-memory Backend.
//
// # Threading
//
// The runtime is single threaded. Every method of Runtime, every Binding and
// every hook must be called on the goroutine that runs the Executor. Tasks
// are the exception: Task.Wait and Task.Done may be used from any goroutine.
//
//	rt := core.New(backend, executor)
//	root := rt.Mount(container)
//	task := root.Update(core.Render(App, props), lane.Options{})
//	err := task.Wait(ctx)
package core
