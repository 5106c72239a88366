//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based readiness waiter.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// linuxWaiter is a level-triggered epoll set.
type linuxWaiter struct {
	epfd   int
	events []unix.EpollEvent
}

// NewWaiter constructs the platform waiter.
func NewWaiter() (Waiter, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &linuxWaiter{epfd: epfd, events: make([]unix.EpollEvent, 128)}, nil
}

// Register adds fd for EPOLLIN. Level-triggered, so data left unread by a
// receive-step keeps the next Wait from sleeping.
func (w *linuxWaiter) Register(fd uintptr) error {
	ev := &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLRDHUP, Fd: int32(fd)}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, int(fd), ev); err != nil {
		return fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
	}
	return nil
}

// Unregister removes fd from the set.
func (w *linuxWaiter) Unregister(fd uintptr) error {
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return fmt.Errorf("epoll ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Wait blocks in epoll_wait for up to timeout.
func (w *linuxWaiter) Wait(timeout time.Duration) (bool, error) {
	n, err := unix.EpollWait(w.epfd, w.events, timeoutMillis(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil // interrupted by signal, normal
		}
		return false, fmt.Errorf("epoll wait: %w", err)
	}
	return n > 0, nil
}

// Close closes the epoll instance.
func (w *linuxWaiter) Close() error {
	return unix.Close(w.epfd)
}
