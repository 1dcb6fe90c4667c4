// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error kinds and the structured launch error shared by all workergroup packages.

package api

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Common errors used across the library.
var (
	ErrNotSupported      = errors.New("operation not supported")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrAlreadyLaunched   = errors.New("group already launched")
)

// ErrorKind classifies launch failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConfiguration is fatal and reported before any worker starts.
	KindConfiguration
	// KindPlatformUnsupported is reported when NUMA mode is mandatory but the
	// topology cannot be queried.
	KindPlatformUnsupported
	// KindSchedulerConstruction is reported when a worker runtime could not be built.
	KindSchedulerConstruction
	// KindWorkerTask is reported when a root task (or the init task) panicked or
	// returned an error.
	KindWorkerTask
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindPlatformUnsupported:
		return "platform unsupported"
	case KindSchedulerConstruction:
		return "scheduler construction"
	case KindWorkerTask:
		return "worker task"
	default:
		return "unknown"
	}
}

// NoWorker marks errors that are not tied to a specific worker or node.
const NoWorker = -1

// Error is the structured error returned by a launch.
type Error struct {
	Kind   ErrorKind
	Worker int // creation index of the failed worker, NoWorker if none
	Node   int // NUMA node of the failed worker, NoWorker if flat or none
	Panic  any // recovered panic value for KindWorkerTask
	Stack  []byte
	Err    error
}

// NewError creates an Error not bound to a worker.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Worker: NoWorker, Node: NoWorker, Err: err}
}

// ForWorker returns a copy of e attributed to the given worker and node.
func (e *Error) ForWorker(worker, node int) *Error {
	out := *e
	out.Worker = worker
	out.Node = node
	return &out
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	switch {
	case e.Worker != NoWorker && e.Node != NoWorker:
		fmt.Fprintf(&b, " (worker %d, node %d)", e.Worker, e.Node)
	case e.Worker != NoWorker:
		fmt.Fprintf(&b, " (worker %d)", e.Worker)
	case e.Node != NoWorker:
		fmt.Fprintf(&b, " (node %d)", e.Node)
	}
	switch {
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Panic != nil:
		fmt.Fprintf(&b, ": panic: %v", e.Panic)
	}
	return b.String()
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Cause exposes the underlying cause to errors.Cause.
func (e *Error) Cause() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
