// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide accounting of OS threads held by runtimes.

package concurrency

import "sync/atomic"

// DefaultThreadLimit stays below the Go runtime's default of 10000 OS threads,
// past which the process is killed rather than failing gracefully.
const DefaultThreadLimit = 8192

var (
	threadLimit     atomic.Int64
	threadsReserved atomic.Int64
)

func init() {
	threadLimit.Store(DefaultThreadLimit)
}

// SetThreadLimit changes the number of OS threads runtimes may hold in total
// and returns the previous limit.
func SetThreadLimit(n int) int {
	return int(threadLimit.Swap(int64(n)))
}

// ThreadsReserved returns the number of OS threads currently held by runtimes.
func ThreadsReserved() int {
	return int(threadsReserved.Load())
}

func reserveThreads(n int) bool {
	for {
		cur := threadsReserved.Load()
		if cur+int64(n) > threadLimit.Load() {
			return false
		}
		if threadsReserved.CompareAndSwap(cur, cur+int64(n)) {
			return true
		}
	}
}

func releaseThreads(n int) {
	threadsReserved.Add(-int64(n))
}
