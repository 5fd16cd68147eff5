// Package loop is a single-goroutine event loop that implements the
// executor half of the core host contract.
//
// Callbacks run one at a time in this order: microtasks (drained after every
// callback), user-blocking callbacks and dispatched functions, yield
// continuations, user-visible callbacks, background callbacks. Queue methods
// are safe to call from any goroutine; callbacks always run on the goroutine
// inside Run, Drain or Step.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/vango-dev/weft/pkg/lane"
)

// ErrClosed is returned by Dispatch and Run after Close.
var ErrClosed = errors.New("loop: closed")

// maxMicrotasks bounds one microtask drain; the rest run after the next
// callback.
const maxMicrotasks = 10000

type callback struct {
	fn        func()
	cancelled bool
}

// Loop is a cooperative, priority-ordered callback queue.
type Loop struct {
	mu     sync.Mutex
	micro  []func()
	yields []func()
	queues [3][]*callback // user-blocking, user-visible, background
	wake   chan struct{}
	closed bool

	logger *slog.Logger
	ran    uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report panicking callbacks.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "loop")
	return l
}

// QueueMicrotask implements core.Executor.
func (l *Loop) QueueMicrotask(fn func()) {
	l.mu.Lock()
	l.micro = append(l.micro, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestCallback implements core.Executor.
func (l *Loop) RequestCallback(fn func(), p lane.Priority) func() {
	cb := &callback{fn: fn}
	l.mu.Lock()
	i := queueIndex(p)
	l.queues[i] = append(l.queues[i], cb)
	l.mu.Unlock()
	l.signal()
	return func() {
		l.mu.Lock()
		cb.cancelled = true
		l.mu.Unlock()
	}
}

// Yield implements core.Executor.
func (l *Loop) Yield(fn func()) {
	l.mu.Lock()
	l.yields = append(l.yields, fn)
	l.mu.Unlock()
	l.signal()
}

// Dispatch queues fn from any goroutine as a user-blocking callback.
func (l *Loop) Dispatch(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queues[0] = append(l.queues[0], &callback{fn: fn})
	l.mu.Unlock()
	l.signal()
	return nil
}

// Call runs fn on the loop and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Dispatch(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func queueIndex(p lane.Priority) int {
	switch p {
	case lane.PriorityUserBlocking:
		return 0
	case lane.PriorityBackground:
		return 2
	default:
		return 1
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued callbacks, microtasks included.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.micro) + len(l.yields)
	for _, q := range l.queues {
		n += len(q)
	}
	return n
}

// Ran returns the number of callbacks run so far.
func (l *Loop) Ran() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ran
}

// Step runs pending microtasks, then at most one callback and the
// microtasks it queued. It reports whether anything ran.
func (l *Loop) Step() bool {
	ran := l.drainMicrotasks()
	fn := l.pop()
	if fn == nil {
		return ran
	}
	l.execute(fn)
	l.drainMicrotasks()
	return true
}

// Drain runs callbacks until every queue is empty and returns the number of
// steps taken.
func (l *Loop) Drain() int {
	n := 0
	for l.Step() {
		n++
	}
	return n
}

// Run processes callbacks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return ErrClosed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Close stops Run and rejects further Dispatch calls. Queued callbacks are
// dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.micro = nil
	l.yields = nil
	l.queues = [3][]*callback{}
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fn := l.popQueue(0); fn != nil {
		return fn
	}
	if len(l.yields) > 0 {
		fn := l.yields[0]
		l.yields[0] = nil
		l.yields = l.yields[1:]
		return fn
	}
	if fn := l.popQueue(1); fn != nil {
		return fn
	}
	return l.popQueue(2)
}

// popQueue returns the first live callback of queue i. Called with mu held.
func (l *Loop) popQueue(i int) func() {
	for len(l.queues[i]) > 0 {
		cb := l.queues[i][0]
		l.queues[i][0] = nil
		l.queues[i] = l.queues[i][1:]
		if !cb.cancelled {
			return cb.fn
		}
	}
	return nil
}

func (l *Loop) drainMicrotasks() bool {
	ran := false
	for executed := 0; executed < maxMicrotasks; executed++ {
		l.mu.Lock()
		if len(l.micro) == 0 {
			l.mu.Unlock()
			return ran
		}
		fn := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		l.mu.Unlock()

		l.execute(fn)
		ran = true
	}
	l.logger.Warn("microtask budget exhausted", "budget", maxMicrotasks)
	return ran
}

// execute runs fn, isolating panics so the loop survives.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("callback panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	l.mu.Lock()
	l.ran++
	l.mu.Unlock()
	fn()
}
