// Package loop runs tasks one at a time on a single goroutine.
//
// Tasks may be submitted from any goroutine without blocking. Blocking work
// is moved off the loop with Offload, whose continuation is submitted back
// onto the loop, so a task never waits on the network while holding it.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 8
)

// Errors returned by Submit and Run.
var (
	ErrQueueFull = errors.New("loop: queue full")
	ErrClosed    = errors.New("loop: closed")
	ErrRunning   = errors.New("loop: already running")
)

// Task is a unit of work run on the loop goroutine.
type Task func(ctx context.Context)

// Handle tracks a submitted task.
type Handle struct {
	done chan struct{}
	ID   string
}

// Done is closed once the task has finished running on the loop.
// A task still queued when the loop stops never finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

type job struct {
	task   Task
	handle *Handle
}

// Loop is a single-goroutine task scheduler with an off-loading worker pool.
type Loop struct {
	logger  *slog.Logger
	queue   chan job
	closed  chan struct{}
	sem     *semaphore.Weighted
	workers sync.WaitGroup
	running atomic.Bool
	once    sync.Once
}

// Option configures a Loop.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	queueSize int
	workers   int
}

// WithQueueSize sets how many tasks may wait before Submit fails.
func WithQueueSize(n int) Option {
	return func(c *config) { c.queueSize = n }
}

// WithWorkers sets the maximum number of concurrently off-loaded functions.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// New creates a Loop. It does nothing until Run is called.
func New(opts ...Option) *Loop {
	cfg := &config{logger: slog.Default(), queueSize: defaultQueueSize, workers: defaultWorkers}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.queueSize <= 0 {
		cfg.queueSize = defaultQueueSize
	}
	if cfg.workers <= 0 {
		cfg.workers = defaultWorkers
	}
	return &Loop{
		logger: cfg.logger,
		queue:  make(chan job, cfg.queueSize),
		closed: make(chan struct{}),
		sem:    semaphore.NewWeighted(int64(cfg.workers)),
	}
}

// Run executes submitted tasks in order until ctx is done. When it returns,
// in-flight off-loaded functions have finished and Submit reports ErrClosed.
// Tasks still queued are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	l.logger.InfoContext(ctx, "event loop started", "queue", cap(l.queue))
	defer func() { l.logger.InfoContext(ctx, "event loop stopped", "dropped", len(l.queue)) }()

	for {
		select {
		case <-ctx.Done():
			l.close()
			l.workers.Wait()
			return nil
		case j := <-l.queue:
			l.run(ctx, j)
		}
	}
}

// Submit queues task to run on the loop. It is safe to call from any
// goroutine and never blocks. The returned Handle may be ignored.
func (l *Loop) Submit(task Task) (*Handle, error) {
	select {
	case <-l.closed:
		return nil, ErrClosed
	default:
	}

	h := &Handle{ID: uuid.NewString(), done: make(chan struct{})}
	select {
	case l.queue <- job{task: task, handle: h}:
		return h, nil
	default:
		return nil, ErrQueueFull
	}
}

// Offload runs fn on the worker pool and then submits then(result) back onto
// the loop. It returns immediately and must be called from a loop task.
// If ctx ends before a worker is free, or fn panics, then is not called.
func Offload[T any](ctx context.Context, l *Loop, fn func(context.Context) T, then func(context.Context, T)) {
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		if err := l.sem.Acquire(ctx, 1); err != nil {
			l.logger.DebugContext(ctx, "offload abandoned", "error", err)
			return
		}

		var result T
		ok := l.safely(ctx, "offload", func() { result = fn(ctx) })
		l.sem.Release(1)
		if !ok || then == nil {
			return
		}

		if _, err := l.Submit(func(ctx context.Context) { then(ctx, result) }); err != nil {
			l.logger.WarnContext(ctx, "dropping offload continuation", "error", err)
		}
	}()
}

func (l *Loop) run(ctx context.Context, j job) {
	defer close(j.handle.done)
	l.safely(ctx, j.handle.ID, func() { j.task(ctx) })
}

// safely runs fn, turning a panic into a logged error.
func (l *Loop) safely(ctx context.Context, task string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.ErrorContext(ctx, "recovered panic", "task", task, "panic", r, "stack", string(debug.Stack()))
			ok = false
		}
	}()
	fn()
	return true
}

func (l *Loop) close() {
	l.once.Do(func() { close(l.closed) })
}
