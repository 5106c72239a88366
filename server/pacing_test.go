// File: server/pacing_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-echo/config"
	"github.com/momentics/hioload-echo/fake"
	"github.com/momentics/hioload-echo/reactor"
	"github.com/momentics/hioload-echo/server"
)

var _ reactor.Waiter = (*fake.Waiter)(nil)

func TestWaiterTracksConnections(t *testing.T) {
	acc := fake.NewAcceptor()
	w := fake.NewWaiter()
	cfg := config.Default()
	cfg.BufferSize = 8
	srv, err := server.New(acc, cfg, server.WithWaiter(w))
	require.NoError(t, err)

	stay, leave := fake.NewConn(20), fake.NewConn(21).QueueClose(nil)
	acc.Push(stay)
	_, err = srv.Step()
	require.NoError(t, err)
	assert.True(t, w.Registered(20))

	acc.Push(leave)
	_, err = srv.Step()
	require.NoError(t, err)
	assert.False(t, w.Registered(21), "disconnected handle is unregistered")

	require.NoError(t, srv.Close())
	assert.False(t, w.Registered(20))
	assert.True(t, w.Closed())
}

func TestRunPacesOnWaiter(t *testing.T) {
	acc := fake.NewAcceptor()
	w := fake.NewWaiter()
	cfg := config.Default()
	cfg.BufferSize = 8
	cfg.SweepInterval = time.Millisecond
	srv, err := server.New(acc, cfg, server.WithWaiter(w))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	require.Eventually(t, func() bool { return w.Waits() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
