// File: fake/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the connection interfaces.

package fake

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-echo/api"
)

// Conn is a scripted implementation of api.Conn. Each Recv consumes the next
// queued step; an empty script behaves like an idle peer (would-block).
type Conn struct {
	mu        sync.Mutex
	handle    uintptr
	remote    string
	script    []api.RecvResult
	payloads  [][]byte
	sent      [][]byte
	sendErrs  []error
	shortSend []int
	sendErr   error
	setNbErr  error
	closeErr  error
	nonblock  bool
	closed    bool
	recvCalls int
}

// NewConn creates a fake connection with the given handle.
func NewConn(handle uintptr) *Conn {
	return &Conn{
		handle: handle,
		remote: fmt.Sprintf("fake:%d", handle),
	}
}

// QueueData scripts a receive that yields p.
func (c *Conn) QueueData(p []byte) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := append([]byte(nil), p...)
	c.script = append(c.script, api.Data(len(cp)))
	c.payloads = append(c.payloads, cp)
	return c
}

// QueueWouldBlock scripts an idle receive.
func (c *Conn) QueueWouldBlock() *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, api.WouldBlock())
	c.payloads = append(c.payloads, nil)
	return c
}

// QueueClose scripts a peer shutdown (err == nil) or receive error.
func (c *Conn) QueueClose(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, api.Closed(err))
	c.payloads = append(c.payloads, nil)
	return c
}

// FailSends makes every Send fail with err until cleared with nil.
func (c *Conn) FailSends(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
	return c
}

// QueueSendError fails the next Send only.
func (c *Conn) QueueSendError(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErrs = append(c.sendErrs, err)
	return c
}

// QueueShortSend makes the next Send accept only the first n bytes and
// report no error.
func (c *Conn) QueueShortSend(n int) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shortSend = append(c.shortSend, n)
	return c
}

// FailSetNonblock makes SetNonblock return err.
func (c *Conn) FailSetNonblock(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNbErr = err
	return c
}

// Handle implements api.Conn.
func (c *Conn) Handle() uintptr { return c.handle }

// RemoteAddr implements api.Conn.
func (c *Conn) RemoteAddr() string { return c.remote }

// SetNonblock implements api.Conn.
func (c *Conn) SetNonblock(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setNbErr != nil {
		return c.setNbErr
	}
	c.nonblock = enabled
	return nil
}

// Recv implements api.Conn.
func (c *Conn) Recv(p []byte) api.RecvResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recvCalls++
	if c.closed {
		return api.Closed(api.ErrConnClosed)
	}
	if len(c.script) == 0 {
		return api.WouldBlock()
	}
	res, data := c.script[0], c.payloads[0]
	c.script, c.payloads = c.script[1:], c.payloads[1:]
	if res.Status == api.RecvData {
		n := copy(p, data)
		if n < len(data) {
			// unread remainder stays queued for the next step
			rest := data[n:]
			c.script = append([]api.RecvResult{api.Data(len(rest))}, c.script...)
			c.payloads = append([][]byte{rest}, c.payloads...)
		}
		res.N = n
	}
	return res
}

// Send implements api.Conn.
func (c *Conn) Send(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, api.ErrConnClosed
	}
	if len(c.sendErrs) > 0 {
		err := c.sendErrs[0]
		c.sendErrs = c.sendErrs[1:]
		return 0, err
	}
	if c.sendErr != nil {
		return 0, c.sendErr
	}
	if len(c.shortSend) > 0 {
		n := min(c.shortSend[0], len(p))
		c.shortSend = c.shortSend[1:]
		c.sent = append(c.sent, append([]byte(nil), p[:n]...))
		return n, nil
	}
	c.sent = append(c.sent, append([]byte(nil), p...))
	return len(p), nil
}

// Close implements api.Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.ErrConnClosed
	}
	c.closed = true
	return c.closeErr
}

// Sent returns a copy of every successful Send payload, in order.
func (c *Conn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Nonblocking reports the last SetNonblock value.
func (c *Conn) Nonblocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonblock
}

// RecvCalls returns how many times Recv was invoked.
func (c *Conn) RecvCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recvCalls
}

var _ api.Conn = (*Conn)(nil)
