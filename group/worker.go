// File: group/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package group

import (
	"go.uber.org/zap"

	"github.com/momentics/workergroup/api"
	"github.com/momentics/workergroup/internal/concurrency"
)

// JoinHandle waits for a task spawned on a worker runtime.
type JoinHandle = concurrency.JoinHandle

// PanicError is returned by JoinHandle.Wait for a panicking subtask.
type PanicError = concurrency.PanicError

// Worker is the handle a root task (or the init function) receives on the
// runtime it runs on.
type Worker struct {
	index   int
	node    int
	threads int
	cpus    []int
	guard   any
	rt      *concurrency.Runtime
	logger  *zap.Logger
}

// Index returns the creation index, or api.NoWorker for the bootstrap handle.
func (w *Worker) Index() int { return w.index }

// Node returns the NUMA node, or api.NoWorker in flat mode.
func (w *Worker) Node() int { return w.node }

// Threads returns the pool size of the worker runtime.
func (w *Worker) Threads() int { return w.threads }

// CPUs returns the CPU set the runtime threads were bound to, if any.
func (w *Worker) CPUs() []int { return append([]int(nil), w.cpus...) }

// Guard returns the value produced by the init function. It is shared by all
// workers and must be treated as read-only.
func (w *Worker) Guard() any { return w.guard }

// Logger returns a logger annotated with the worker identity.
func (w *Worker) Logger() *zap.Logger { return w.logger }

// Executor exposes the runtime as an api.Executor.
func (w *Worker) Executor() api.Executor { return w.rt }

// Submit runs fn on the runtime pool. Panics are logged and recovered.
func (w *Worker) Submit(fn func()) error { return w.rt.Submit(fn) }

// Spawn runs fn on the runtime pool and returns a handle to wait for it.
// Subtasks still queued when the root task returns are dropped.
func (w *Worker) Spawn(fn func()) (*JoinHandle, error) { return w.rt.Spawn(fn) }
