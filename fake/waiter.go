// File: fake/waiter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/hioload-echo/api"
)

// Waiter records readiness registrations and never blocks.
type Waiter struct {
	mu     sync.Mutex
	fds    map[uintptr]bool
	waits  int
	closed bool
}

// NewWaiter creates an empty fake waiter.
func NewWaiter() *Waiter {
	return &Waiter{fds: make(map[uintptr]bool)}
}

// Register implements reactor.Waiter.
func (w *Waiter) Register(fd uintptr) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fds[fd] {
		return fmt.Errorf("fd %d: %w", fd, api.ErrAlreadyExists)
	}
	w.fds[fd] = true
	return nil
}

// Unregister implements reactor.Waiter.
func (w *Waiter) Unregister(fd uintptr) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.fds[fd] {
		return fmt.Errorf("fd %d: %w", fd, api.ErrNotFound)
	}
	delete(w.fds, fd)
	return nil
}

// Wait implements reactor.Waiter; it reports ready when anything is registered.
func (w *Waiter) Wait(time.Duration) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits++
	return len(w.fds) > 0, nil
}

// Close implements reactor.Waiter.
func (w *Waiter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Registered reports whether fd is currently registered.
func (w *Waiter) Registered(fd uintptr) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fds[fd]
}

// Waits returns the number of Wait calls.
func (w *Waiter) Waits() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.waits
}

// Closed reports whether Close was called.
func (w *Waiter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
