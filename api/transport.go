// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Defines the connection and acceptor abstractions driven by the echo loop.
// Implementations hide platform socket calls behind a tri-state receive.

package api

// RecvStatus classifies the outcome of a single receive attempt.
type RecvStatus int

const (
	// RecvData means N > 0 bytes were read into the caller's buffer.
	RecvData RecvStatus = iota
	// RecvWouldBlock means no data is available right now.
	RecvWouldBlock
	// RecvClosed covers orderly peer shutdown and every receive error
	// other than would-block. Err is nil for an orderly shutdown.
	RecvClosed
)

func (s RecvStatus) String() string {
	switch s {
	case RecvData:
		return "data"
	case RecvWouldBlock:
		return "would-block"
	case RecvClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RecvResult is the result of Conn.Recv.
type RecvResult struct {
	N      int
	Status RecvStatus
	Err    error
}

// Data builds a RecvData result.
func Data(n int) RecvResult { return RecvResult{N: n, Status: RecvData} }

// WouldBlock builds a RecvWouldBlock result.
func WouldBlock() RecvResult { return RecvResult{Status: RecvWouldBlock} }

// Closed builds a RecvClosed result; err is nil for orderly shutdown.
func Closed(err error) RecvResult { return RecvResult{Status: RecvClosed, Err: err} }

// Conn abstracts one accepted client connection.
type Conn interface {
	// Handle returns the OS-level socket identity. Zero is never a valid handle.
	Handle() uintptr

	// RemoteAddr returns the peer address in host:port form.
	RemoteAddr() string

	// SetNonblock switches the receive semantics of the connection.
	SetNonblock(enabled bool) error

	// Recv performs exactly one receive attempt into p.
	Recv(p []byte) RecvResult

	// Send writes all of p or returns an error describing how far it got.
	Send(p []byte) (int, error)

	// Close releases the handle.
	Close() error
}

// Acceptor owns a listening socket.
type Acceptor interface {
	// AcceptOne performs one non-blocking accept attempt. It returns
	// (nil, nil) when no connection is pending.
	AcceptOne() (Conn, error)

	// Addr returns the bound address in host:port form.
	Addr() string

	// Close releases the listening socket.
	Close() error
}
