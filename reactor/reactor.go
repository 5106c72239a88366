// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral readiness waiter interface.

package reactor

import "time"

// Waiter blocks until a registered descriptor is readable or a timeout ends.
type Waiter interface {
	// Register adds a descriptor to the read-readiness set.
	Register(fd uintptr) error

	// Unregister removes a descriptor. It must be called before the
	// descriptor is closed.
	Unregister(fd uintptr) error

	// Wait blocks for up to timeout and reports whether any descriptor
	// became ready.
	Wait(timeout time.Duration) (bool, error)

	// Close releases the waiter.
	Close() error
}

// timeoutMillis rounds up so that sub-millisecond intervals still wait.
func timeoutMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := int((d + time.Millisecond - 1) / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return ms
}
