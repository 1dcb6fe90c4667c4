// File: internal/concurrency/runtime.go
// Package concurrency implements worker runtimes.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime dispatches tasks across OS-thread-locked goroutines fed from an
// unbounded FIFO. The root task of a runtime runs on one extra locked thread
// so it may block on its subtasks without starving the pool.

package concurrency

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/workergroup/api"
)

// RootThread is the thread index passed to the start hook for the thread
// that runs a root task.
const RootThread = -1

// RuntimeConfig describes a runtime to build.
type RuntimeConfig struct {
	Name          string
	Threads       int // pool threads, must be >= 1
	// OnThreadStart runs on every runtime thread, after it has been locked and
	// before it takes any work.
	OnThreadStart func(thread int)
	Logger        *zap.Logger
}

// job is a queued unit of work; handle is nil for fire-and-forget submissions.
type job struct {
	fn     func()
	handle *JoinHandle
}

var (
	_ api.Executor         = (*Runtime)(nil)
	_ api.GracefulShutdown = (*Runtime)(nil)
)

// Runtime is an independent pool of locked OS threads.
type Runtime struct {
	name    string
	threads int
	onStart func(thread int)
	logger  *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  *queue.Queue
	closed bool
	wg     sync.WaitGroup
	once   sync.Once

	// statistics
	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	droppedTasks   atomic.Int64
	panics         atomic.Int64
}

// NewRuntime reserves cfg.Threads+1 OS threads and starts the pool.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Threads < 1 {
		return nil, errors.Wrapf(ErrInvalidThreadCount, "%d threads", cfg.Threads)
	}
	if !reserveThreads(cfg.Threads + 1) {
		return nil, errors.Wrapf(ErrThreadLimit, "%d requested, %d of %d held",
			cfg.Threads+1, ThreadsReserved(), threadLimit.Load())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runtime{
		name:    cfg.Name,
		threads: cfg.Threads,
		onStart: cfg.OnThreadStart,
		logger:  logger.With(zap.String("runtime", cfg.Name)),
		queue:   queue.New(),
	}
	r.cond = sync.NewCond(&r.mu)
	r.wg.Add(cfg.Threads)
	for i := 0; i < cfg.Threads; i++ {
		go r.run(i)
	}
	return r, nil
}

// Name returns the runtime name.
func (r *Runtime) Name() string { return r.name }

// NumWorkers returns the number of pool threads.
func (r *Runtime) NumWorkers() int { return r.threads }

// Submit enqueues a task, returning ErrRuntimeClosed after Shutdown.
// A panicking task is logged and does not take its thread down.
func (r *Runtime) Submit(task func()) error {
	return r.enqueue(job{fn: task})
}

// Spawn enqueues a task and returns a handle to wait for it.
func (r *Runtime) Spawn(task func()) (*JoinHandle, error) {
	h := newJoinHandle()
	if err := r.enqueue(job{fn: task, handle: h}); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *Runtime) enqueue(j job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRuntimeClosed
	}
	r.queue.Add(j)
	r.totalTasks.Add(1)
	r.cond.Signal()
	return nil
}

// RunRoot runs fn on a dedicated locked thread and blocks until it returns.
// The start hook runs first with RootThread. Panics are not recovered here.
func (r *Runtime) RunRoot(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		if r.onStart != nil {
			r.onStart(RootThread)
		}
		fn()
	}()
	<-done
}

// Shutdown stops accepting tasks, drops the ones still queued and waits for
// every pool thread to exit. Tasks already running are waited for.
func (r *Runtime) Shutdown() error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		pending := make([]job, 0, r.queue.Length())
		for r.queue.Length() > 0 {
			pending = append(pending, r.queue.Remove().(job))
		}
		r.cond.Broadcast()
		r.mu.Unlock()

		for _, j := range pending {
			r.droppedTasks.Add(1)
			if j.handle != nil {
				j.handle.finish(ErrRuntimeClosed)
			}
		}
		r.wg.Wait()
		releaseThreads(r.threads + 1)
		if n := len(pending); n > 0 {
			r.logger.Debug("dropped queued tasks on shutdown", zap.Int("tasks", n))
		}
	})
	return nil
}

// Stats returns basic runtime metrics.
func (r *Runtime) Stats() map[string]int64 {
	total := r.totalTasks.Load()
	completed := r.completedTasks.Load()
	dropped := r.droppedTasks.Load()
	return map[string]int64{
		"total_tasks":     total,
		"completed_tasks": completed,
		"dropped_tasks":   dropped,
		"pending_tasks":   total - completed - dropped,
		"panics":          r.panics.Load(),
		"num_workers":     int64(r.threads),
	}
}

// run is the main loop of a pool thread. The goroutine never unlocks its
// thread, so the thread exits with it.
func (r *Runtime) run(thread int) {
	defer r.wg.Done()
	runtime.LockOSThread()
	if r.onStart != nil {
		r.onStart(thread)
	}
	for {
		j, ok := r.next()
		if !ok {
			return
		}
		r.execute(j)
	}
}

// next blocks until a job is available or the runtime is closed.
func (r *Runtime) next() (job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.queue.Length() == 0 && !r.closed {
		r.cond.Wait()
	}
	if r.closed {
		return job{}, false
	}
	return r.queue.Remove().(job), true
}

// execute runs the job, recovering from panics.
func (r *Runtime) execute(j job) {
	defer func() {
		var err error
		if p := recover(); p != nil {
			r.panics.Add(1)
			pe := &PanicError{Value: p, Stack: debug.Stack()}
			if j.handle == nil {
				r.logger.Error("task panicked", zap.Any("panic", p), zap.ByteString("stack", pe.Stack))
			}
			err = pe
		}
		r.completedTasks.Add(1)
		if j.handle != nil {
			j.handle.finish(err)
		}
	}()
	j.fn()
}
