//go:build !linux
// +build !linux

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub implementation for unsupported platforms.

package transport

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-echo/api"
)

// Listener is unavailable on this platform.
type Listener struct{}

// Listen returns ErrNotSupported on platforms without a raw socket backend.
func Listen(cfg ListenConfig) (*Listener, error) {
	return nil, fmt.Errorf("transport on %s: %w", runtime.GOOS, api.ErrNotSupported)
}

// AcceptOne implements api.Acceptor.
func (l *Listener) AcceptOne() (api.Conn, error) { return nil, api.ErrNotSupported }

// Handle returns zero; there is no descriptor.
func (l *Listener) Handle() uintptr { return 0 }

// Addr implements api.Acceptor.
func (l *Listener) Addr() string { return "" }

// Close implements api.Acceptor.
func (l *Listener) Close() error { return nil }

var _ api.Acceptor = (*Listener)(nil)
