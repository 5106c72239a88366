//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-echo/api"
)

// NewWaiter returns an error for unsupported platforms.
func NewWaiter() (Waiter, error) {
	return nil, fmt.Errorf("reactor on %s: %w", runtime.GOOS, api.ErrNotSupported)
}
