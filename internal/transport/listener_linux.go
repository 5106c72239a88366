//go:build linux
// +build linux

// File: internal/transport/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux listening socket built directly on socket(2)/bind(2)/listen(2).

package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/momentics/hioload-echo/api"
	"golang.org/x/sys/unix"
)

// Listener is a non-blocking IPv4 TCP listening socket.
type Listener struct {
	mu           sync.Mutex
	fd           int
	addr         string
	writeTimeout time.Duration
	closed       bool
}

// Listen creates, binds and listens. On any failure the partially acquired
// socket is released before the error is returned.
func Listen(cfg ListenConfig) (*Listener, error) {
	ip, err := resolveIPv4(cfg.Host)
	if err != nil {
		return nil, err
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d: %w", cfg.Port, api.ErrInvalidArgument)
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: cfg.Port, Addr: ip}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", formatAddr(ip[:], cfg.Port), err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	wt := cfg.WriteTimeout
	if wt <= 0 {
		wt = DefaultWriteTimeout
	}
	return &Listener{fd: fd, addr: sockaddrString(sa), writeTimeout: wt}, nil
}

// AcceptOne performs one accept(2) attempt. Nothing pending, an interrupted
// call and a connection aborted before it was taken all yield (nil, nil).
func (l *Listener) AcceptOne() (api.Conn, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, api.ErrListenerClosed
	}
	fd := l.fd
	l.mu.Unlock()

	nfd, sa, err := unix.Accept4(fd, unix.SOCK_CLOEXEC)
	if err != nil {
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR), errors.Is(err, unix.ECONNABORTED):
			return nil, nil
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return newConn(nfd, sockaddrString(sa), l.writeTimeout), nil
}

// Handle returns the listening descriptor for readiness registration.
func (l *Listener) Handle() uintptr { return uintptr(l.fd) }

// Addr returns the bound address, with the kernel-assigned port when 0 was requested.
func (l *Listener) Addr() string { return l.addr }

// Close releases the listening socket. Safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return unix.Close(l.fd)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return formatAddr(a.Addr[:], a.Port)
	case *unix.SockaddrInet6:
		return formatAddr(a.Addr[:], a.Port)
	}
	return "unknown"
}

var _ api.Acceptor = (*Listener)(nil)
