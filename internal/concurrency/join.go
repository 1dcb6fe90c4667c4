// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "fmt"

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", p.Value)
}

// JoinHandle waits for a spawned task.
type JoinHandle struct {
	done chan struct{}
	err  error
}

func newJoinHandle() *JoinHandle {
	return &JoinHandle{done: make(chan struct{})}
}

func (h *JoinHandle) finish(err error) {
	h.err = err
	close(h.done)
}

// Done is closed once the task has finished or was dropped.
func (h *JoinHandle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task finishes. It returns a *PanicError if the task
// panicked and ErrRuntimeClosed if the runtime shut down before running it.
func (h *JoinHandle) Wait() error {
	<-h.done
	return h.err
}
