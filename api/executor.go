// Package api
// Author: momentics
//
// Executor contract implemented by worker runtimes.

package api

// Executor abstracts parallel task execution on a worker runtime.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns the number of OS threads serving the executor.
	NumWorkers() int
}
