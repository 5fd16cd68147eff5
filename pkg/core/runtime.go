package core

import (
	"log/slog"

	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/part"
)

// Config holds scheduler settings.
type Config struct {
	// DefaultPriority is used for updates scheduled without a priority.
	DefaultPriority lane.Priority

	// MaxFrameIterations bounds the fixpoint render loop of one frame.
	MaxFrameIterations int

	// Debug logs every scheduler event at debug level.
	Debug bool
}

// DefaultConfig returns the default scheduler settings.
func DefaultConfig() Config {
	return Config{
		DefaultPriority:    lane.PriorityUserVisible,
		MaxFrameIterations: 100,
	}
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithConfig sets scheduler settings. Zero fields keep their defaults.
func WithConfig(c Config) Option {
	return func(rt *Runtime) {
		if c.DefaultPriority != 0 {
			rt.cfg.DefaultPriority = c.DefaultPriority
		}
		if c.MaxFrameIterations > 0 {
			rt.cfg.MaxFrameIterations = c.MaxFrameIterations
		}
		rt.cfg.Debug = c.Debug
	}
}

// WithObserver adds an observer of scheduler events.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		if o != nil {
			rt.observers = append(rt.observers, o)
		}
	}
}

// Runtime owns the task queue, lane bookkeeping and the flush loop for one
// host tree. All methods must be called on the executor goroutine.
type Runtime struct {
	backend   Backend
	exec      Executor
	logger    *slog.Logger
	cfg       Config
	observers []Observer

	queue     []*Task
	requested [lane.PriorityBackground + 1]bool
	microtask bool
	flushing  bool

	// frame is the frame in its render phase, if any. Updates scheduled
	// while it is set join it.
	frame    *Frame
	resuming bool // frame is inside a fixpoint iteration, not yielded

	// last is the most recently rendered task; coalesced tasks follow it.
	last *Task

	passive []*passiveBatch

	taskSeq  uint64
	frameSeq uint64
	idSeq    uint64
	closed   bool
}

// New creates a runtime over a backend and an executor.
func New(backend Backend, exec Executor, opts ...Option) *Runtime {
	rt := &Runtime{
		backend: backend,
		exec:    exec,
		logger:  slog.Default(),
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.logger = rt.logger.With("component", "runtime")
	return rt
}

// Config returns the scheduler settings in effect.
func (rt *Runtime) Config() Config { return rt.cfg }

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Backend returns the host backend.
func (rt *Runtime) Backend() Backend { return rt.backend }

// Pending returns the number of queued tasks.
func (rt *Runtime) Pending() int { return len(rt.queue) }

// Mount creates a root that renders into container.
func (rt *Runtime) Mount(container part.ChildRange) *Root {
	return newRoot(rt, container)
}

// ScheduleUpdate marks co pending and returns the task that resolves once
// the update is committed.
//
// Lanes are computed with lane.FromOptions. Unless opts.Silent is set a
// flush is requested: from a microtask when opts.Immediate is set, otherwise
// through the executor at opts.Priority. A silent update is picked up by the
// next flush requested for any reason; Silent wins over Immediate.
//
// An update scheduled while a frame is resuming coroutines joins that frame:
// its lanes are added to the frame's and its task resolves with the frame's
// task. Updates that arrive while the frame is yielded are queued as usual.
func (rt *Runtime) ScheduleUpdate(co Coroutine, opts lane.Options) *Task {
	if opts.Priority == 0 || opts.Priority > lane.PriorityBackground {
		opts.Priority = rt.cfg.DefaultPriority
	}
	lanes := lane.FromOptions(opts)

	rt.taskSeq++
	t := newTask(rt.taskSeq, co, lanes)
	if rt.closed {
		t.settle(ErrRuntimeClosed)
		return t
	}

	co.AddPendingLanes(lanes)
	rt.emit(Event{Kind: EventTaskScheduled, Task: t.id, Lanes: lanes, Unit: co.Name()})

	if f := rt.frame; f != nil && rt.resuming {
		f.lanes |= lanes
		f.pending = append(f.pending, co)
		f.task.follow(t)
		rt.emit(Event{Kind: EventTaskAbsorbed, Task: t.id, Frame: f.id, Lanes: lanes, Unit: co.Name()})
		return t
	}

	rt.queue = append(rt.queue, t)
	if !opts.Silent {
		rt.requestFlush(opts)
	}
	return t
}

func (rt *Runtime) requestFlush(opts lane.Options) {
	if opts.Immediate {
		if rt.microtask {
			return
		}
		rt.microtask = true
		rt.exec.QueueMicrotask(func() {
			rt.microtask = false
			rt.flush()
		})
		return
	}

	p := opts.Priority
	if rt.requested[p] {
		return
	}
	rt.requested[p] = true
	rt.exec.RequestCallback(func() {
		rt.requested[p] = false
		rt.flush()
	}, p)
}

// nextID returns a runtime-unique identifier for UseID.
func (rt *Runtime) nextID() uint64 {
	rt.idSeq++
	return rt.idSeq
}

// Close stops the runtime. Queued and in-flight tasks resolve with
// ErrTaskCancelled; later updates resolve with ErrRuntimeClosed.
func (rt *Runtime) Close() {
	if rt.closed {
		return
	}
	rt.closed = true
	for _, t := range rt.queue {
		t.settle(ErrTaskCancelled)
	}
	rt.queue = nil
	if rt.frame != nil {
		rt.frame.task.settle(ErrTaskCancelled)
		rt.frame = nil
	}
	for _, b := range rt.passive {
		b.task.settle(ErrTaskCancelled)
	}
	rt.passive = nil
	rt.flushing = false
	rt.logger.Debug("runtime closed")
}
