// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"github.com/pkg/errors"

	"github.com/momentics/workergroup/api"
)

var (
	// ErrRuntimeClosed indicates the runtime has been shut down
	ErrRuntimeClosed = errors.New("runtime is closed")

	// ErrInvalidThreadCount indicates a runtime was requested with fewer than one thread
	ErrInvalidThreadCount = errors.Wrap(api.ErrInvalidArgument, "invalid thread count")

	// ErrThreadLimit indicates the process-wide thread reservation would be exceeded
	ErrThreadLimit = errors.Wrap(api.ErrResourceExhausted, "thread limit exceeded")
)
