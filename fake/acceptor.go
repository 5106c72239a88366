// File: fake/acceptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"github.com/momentics/hioload-echo/api"
)

// Acceptor hands out queued connections one per AcceptOne call.
type Acceptor struct {
	mu      sync.Mutex
	pending []api.Conn
	errs    []error
	closed  bool
}

// NewAcceptor creates an empty fake acceptor.
func NewAcceptor() *Acceptor {
	return &Acceptor{}
}

// Push queues connections for future accepts.
func (a *Acceptor) Push(conns ...api.Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, conns...)
}

// PushError makes the next AcceptOne fail with err.
func (a *Acceptor) PushError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs = append(a.errs, err)
}

// Pending returns the number of connections not yet accepted.
func (a *Acceptor) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// AcceptOne implements api.Acceptor.
func (a *Acceptor) AcceptOne() (api.Conn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, api.ErrListenerClosed
	}
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		return nil, err
	}
	if len(a.pending) == 0 {
		return nil, nil
	}
	c := a.pending[0]
	a.pending = a.pending[1:]
	return c, nil
}

// Addr implements api.Acceptor.
func (a *Acceptor) Addr() string { return "fake:0" }

// Close implements api.Acceptor.
func (a *Acceptor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return api.ErrListenerClosed
	}
	a.closed = true
	return nil
}

// Closed reports whether Close was called.
func (a *Acceptor) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

var _ api.Acceptor = (*Acceptor)(nil)
