// File: group/launcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Launcher drives a plan through initializing, running workers and joining.

package group

import (
	"io"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/workergroup/api"
	"github.com/momentics/workergroup/internal/concurrency"
)

type runtimeFactory func(concurrency.RuntimeConfig) (*concurrency.Runtime, error)

type outcome[T any] struct {
	value T
	err   error
}

type launcher[T any] struct {
	plan       *plan
	entry      EntryFactory[T]
	newRuntime runtimeFactory
	logger     *zap.Logger
}

func newLauncher[T any](p *plan, entry EntryFactory[T], newRuntime runtimeFactory) *launcher[T] {
	return &launcher[T]{
		plan:       p,
		entry:      entry,
		newRuntime: newRuntime,
		logger:     p.logger.With(zap.Stringer("mode", p.mode)),
	}
}

func (l *launcher[T]) run() ([]T, error) {
	start := time.Now()
	l.plan.metrics.LaunchStarted()
	defer func() { l.plan.metrics.LaunchFinished(time.Since(start)) }()

	guard, err := l.initialize()
	if err != nil {
		l.fail(err)
		l.release(guard)
		return nil, err
	}
	defer l.release(guard)

	slots, err := l.layout()
	if err != nil {
		l.fail(err)
		return nil, err
	}
	l.logger.Info("starting workers",
		zap.Int("workers", len(slots)),
		zap.Int("cpu_budget", int(l.plan.budget)))

	outcomes := l.runWorkers(slots, guard)
	return l.aggregate(outcomes)
}

// initialize runs the init function on a bootstrap runtime, which is shut
// down before returning.
func (l *launcher[T]) initialize() (any, error) {
	rt, err := l.newRuntime(concurrency.RuntimeConfig{
		Name:    "bootstrap",
		Threads: l.plan.bootstrapThreads,
		Logger:  l.logger,
	})
	if err != nil {
		return nil, api.NewError(api.KindSchedulerConstruction, errors.Wrap(err, "bootstrap runtime"))
	}
	defer rt.Shutdown()

	w := &Worker{
		index:   api.NoWorker,
		node:    api.NoWorker,
		threads: rt.NumWorkers(),
		rt:      rt,
		logger:  l.logger.With(zap.String("worker", "bootstrap")),
	}
	var (
		guard any
		ierr  error
	)
	rt.RunRoot(func() {
		defer func() {
			if p := recover(); p != nil {
				ierr = &api.Error{Kind: api.KindWorkerTask, Worker: api.NoWorker, Node: api.NoWorker,
					Panic: p, Stack: debug.Stack()}
			}
		}()
		guard, ierr = l.plan.init(w)
		if ierr != nil {
			ierr = api.NewError(api.KindWorkerTask, errors.Wrap(ierr, "init"))
		}
	})
	return guard, ierr
}

func (l *launcher[T]) layout() ([]slot, error) {
	switch m := l.plan.mode.(type) {
	case NUMAAware:
		return layoutNUMA(l.plan, m.WorkersPerNode)
	case Flat:
		return layoutFlat(l.plan.budget, m.Workers), nil
	}
	return nil, api.NewError(api.KindConfiguration, errors.Errorf("unknown mode %v", l.plan.mode))
}

// runWorkers creates runtimes in slot order and starts one root task on each.
// Creation stops at the first failure; runtimes already started are joined
// either way.
func (l *launcher[T]) runWorkers(slots []slot, guard any) []outcome[T] {
	outcomes := make([]outcome[T], len(slots))
	created := 0
	var wg sync.WaitGroup
	for _, s := range slots {
		created++
		rt, err := l.newRuntime(concurrency.RuntimeConfig{
			Name:          "worker-" + strconv.Itoa(s.index),
			Threads:       s.threads,
			OnThreadStart: l.binder(s),
			Logger:        l.logger,
		})
		if err != nil {
			outcomes[s.index].err = api.NewError(api.KindSchedulerConstruction,
				errors.Wrap(err, "worker runtime")).ForWorker(s.index, s.node)
			break
		}
		task, err := l.buildTask(s)
		if err != nil {
			rt.Shutdown()
			outcomes[s.index].err = err
			break
		}

		w := &Worker{
			index:   s.index,
			node:    s.node,
			threads: s.threads,
			cpus:    s.cpus,
			guard:   guard,
			rt:      rt,
			logger:  l.logger.With(zap.Int("worker", s.index), zap.Int("node", s.node)),
		}
		l.logger.Debug("worker started",
			zap.Int("worker", s.index), zap.Int("node", s.node),
			zap.Int("threads", s.threads), zap.Ints("cpus", s.cpus))
		l.plan.metrics.WorkerStarted(l.plan.mode.String(), s.index, s.node, s.threads)

		wg.Add(1)
		go func(out *outcome[T]) {
			defer wg.Done()
			defer l.plan.metrics.WorkerFinished()
			rt.RunRoot(func() { *out = invoke(w, task) })
			rt.Shutdown()
		}(&outcomes[s.index])
	}
	wg.Wait()
	return outcomes[:created]
}

// buildTask calls the entry factory for one slot.
func (l *launcher[T]) buildTask(s slot) (task Task[T], err error) {
	defer func() {
		if p := recover(); p != nil {
			err = (&api.Error{Kind: api.KindWorkerTask, Panic: p, Stack: debug.Stack()}).ForWorker(s.index, s.node)
		}
	}()
	if task = l.entry(); task == nil {
		return nil, api.NewError(api.KindWorkerTask, errors.New("entry factory returned nil task")).ForWorker(s.index, s.node)
	}
	return task, nil
}

// binder returns the thread start hook for a slot. Binding is best-effort.
func (l *launcher[T]) binder(s slot) func(thread int) {
	if !s.bind {
		return nil
	}
	return func(thread int) {
		if err := l.plan.affinity.BindCurrentThread(s.cpus); err != nil {
			l.plan.metrics.AffinityFailed()
			l.logger.Debug("thread affinity not applied",
				zap.Int("worker", s.index), zap.Int("node", s.node),
				zap.Int("thread", thread), zap.Error(err))
		}
	}
}

// invoke runs a root task and converts panics and errors into api.Error.
func invoke[T any](w *Worker, task Task[T]) (out outcome[T]) {
	defer func() {
		if p := recover(); p != nil {
			out = outcome[T]{err: (&api.Error{Kind: api.KindWorkerTask, Panic: p, Stack: debug.Stack()}).
				ForWorker(w.index, w.node)}
		}
	}()
	v, err := task(w)
	if err != nil {
		return outcome[T]{err: api.NewError(api.KindWorkerTask, err).ForWorker(w.index, w.node)}
	}
	return outcome[T]{value: v}
}

// aggregate returns every value in creation order, or the first error.
func (l *launcher[T]) aggregate(outcomes []outcome[T]) ([]T, error) {
	var first error
	for _, o := range outcomes {
		if o.err == nil {
			continue
		}
		l.fail(o.err)
		if first == nil {
			first = o.err
		}
	}
	if first != nil {
		return nil, first
	}
	results := make([]T, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.value
	}
	l.logger.Info("workers finished", zap.Int("workers", len(results)))
	return results, nil
}

func (l *launcher[T]) fail(err error) {
	kind := api.KindOf(err)
	l.plan.metrics.WorkerFailed(kind.String())
	l.logger.Error("launch failure", zap.Stringer("kind", kind), zap.Error(err))
}

// release drops the guard once every runtime has shut down.
func (l *launcher[T]) release(guard any) {
	c, ok := guard.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		l.logger.Warn("closing init guard", zap.Error(err))
	}
}
