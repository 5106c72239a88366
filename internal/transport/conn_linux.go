//go:build linux
// +build linux

// File: internal/transport/conn_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Accepted connection over a raw socket descriptor.

package transport

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-echo/api"
	"golang.org/x/sys/unix"
)

// pollMillis converts the time left until deadline into a poll(2)
// timeout, rounding up so that a sub-millisecond remainder still waits.
func pollMillis(deadline time.Time) int {
	left := time.Until(deadline)
	if left <= 0 {
		return 0
	}
	return int((left + time.Millisecond - 1) / time.Millisecond)
}

// Conn is one accepted client socket.
type Conn struct {
	fd           int
	remote       string
	writeTimeout time.Duration
	closed       atomic.Bool
}

func newConn(fd int, remote string, wt time.Duration) *Conn {
	return &Conn{fd: fd, remote: remote, writeTimeout: wt}
}

// Handle implements api.Conn. Descriptor 0 is stdin, never a socket we accept.
func (c *Conn) Handle() uintptr { return uintptr(c.fd) }

// RemoteAddr implements api.Conn.
func (c *Conn) RemoteAddr() string { return c.remote }

// SetNonblock implements api.Conn.
func (c *Conn) SetNonblock(enabled bool) error {
	if err := unix.SetNonblock(c.fd, enabled); err != nil {
		return fmt.Errorf("set nonblock fd=%d: %w", c.fd, err)
	}
	return nil
}

// Recv implements api.Conn with a single read(2).
func (c *Conn) Recv(p []byte) api.RecvResult {
	if c.closed.Load() {
		return api.Closed(api.ErrConnClosed)
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == nil && n > 0:
			return api.Data(n)
		case err == nil:
			return api.Closed(nil)
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return api.WouldBlock()
		default:
			return api.Closed(fmt.Errorf("recv fd=%d: %w", c.fd, err))
		}
	}
}

// Send implements api.Conn. It keeps writing until all of p is accepted by
// the kernel, waiting for writability when the socket would block. The write
// timeout bounds the whole call, not each wait.
func (c *Conn) Send(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, api.ErrConnClosed
	}
	deadline := time.Now().Add(c.writeTimeout)
	off := 0
	for off < len(p) {
		n, err := unix.SendmsgN(c.fd, p[off:], nil, nil, unix.MSG_NOSIGNAL)
		if n > 0 {
			off += n
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if werr := c.waitWritable(deadline); werr != nil {
				return off, fmt.Errorf("sent %d of %d bytes: %w", off, len(p), werr)
			}
		default:
			return off, fmt.Errorf("send fd=%d: %w", c.fd, err)
		}
	}
	return off, nil
}

// waitWritable polls for POLLOUT until deadline.
func (c *Conn) waitWritable(deadline time.Time) error {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLOUT}}
	for {
		timeout := pollMillis(deadline)
		if timeout == 0 {
			return fmt.Errorf("fd=%d after %v: %w", c.fd, c.writeTimeout, api.ErrWriteTimeout)
		}
		n, err := unix.Poll(fds, timeout)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll fd=%d: %w", c.fd, err)
		}
		if n > 0 {
			return nil
		}
	}
}

// Close implements api.Conn. The socket is shut down first so that a
// receive blocked in blocking mode is released.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return api.ErrConnClosed
	}
	_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
	return unix.Close(c.fd)
}

var _ api.Conn = (*Conn)(nil)
