// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker runtimes and platform NUMA plumbing for workergroup.
//
// A Runtime owns a fixed set of goroutines, each locked to its own OS thread
// for its whole life, fed from an unbounded injection queue. Threads run a
// start hook before taking work, which is where callers bind CPU affinity.
// Because the goroutines never unlock, their threads are destroyed on exit and
// an affinity mask never leaks back into the Go scheduler's thread pool.
//
// Topology discovery reads sysfs on Linux; binding uses sched_setaffinity on
// Linux and SetThreadAffinityMask on Windows. Other platforms report
// api.ErrNotSupported.
package concurrency
