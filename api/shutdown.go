// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown stops a component and releases its threads.
type GracefulShutdown interface {
	// Shutdown blocks until every thread owned by the component has exited.
	Shutdown() error
}
