//go:build linux
// +build linux

package transport_test

import (
	"context"
	"io"
	"net"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/internal/transport"
)

func listen(t *testing.T) *transport.Listener {
	return listenWithTimeout(t, 0)
}

func listenWithTimeout(t *testing.T, wt time.Duration) *transport.Listener {
	t.Helper()
	ln, err := transport.Listen(transport.ListenConfig{Host: "127.0.0.1", Port: 0, WriteTimeout: wt})
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln
}

// dialSmallWindow connects with a 4 KiB receive buffer set before connect,
// so the advertised window stays small.
func dialSmallWindow(t *testing.T, addr string) net.Conn {
	t.Helper()
	d := net.Dialer{
		Timeout: 2 * time.Second,
		Control: func(_, _ string, rc syscall.RawConn) error {
			var serr error
			err := rc.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, 4096)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
	c, err := d.DialContext(context.Background(), "tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// shrinkSendBuffer limits the kernel send queue of an accepted connection.
func shrinkSendBuffer(t *testing.T, c api.Conn) {
	t.Helper()
	require.NoError(t, unix.SetsockoptInt(int(c.Handle()), unix.SOL_SOCKET, unix.SO_SNDBUF, 4096))
}

func acceptEventually(t *testing.T, ln *transport.Listener) api.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := ln.AcceptOne()
		require.NoError(t, err)
		if c != nil {
			return c
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return nil
}

func recvEventually(t *testing.T, c api.Conn, buf []byte) api.RecvResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		res := c.Recv(buf)
		if res.Status != api.RecvWouldBlock {
			return res
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("receive never completed")
	return api.RecvResult{}
}

func TestAcceptOneNothingPending(t *testing.T) {
	ln := listen(t)
	c, err := ln.AcceptOne()
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestListenEphemeralPort(t *testing.T) {
	ln := listen(t)
	host, port, err := net.SplitHostPort(ln.Addr())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	assert.NotZero(t, p)
}

func TestListenAddressInUse(t *testing.T) {
	ln := listen(t)
	_, port, err := net.SplitHostPort(ln.Addr())
	require.NoError(t, err)
	p, _ := strconv.Atoi(port)
	_, err = transport.Listen(transport.ListenConfig{Host: "127.0.0.1", Port: p})
	assert.Error(t, err)
}

func TestListenRejectsBadPort(t *testing.T) {
	_, err := transport.Listen(transport.ListenConfig{Port: 70000})
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestRecvTriState(t *testing.T) {
	ln := listen(t)
	client, err := net.Dial("tcp", ln.Addr())
	require.NoError(t, err)
	defer client.Close()

	c := acceptEventually(t, ln)
	defer c.Close()
	require.NoError(t, c.SetNonblock(true))
	assert.NotZero(t, c.Handle())
	assert.NotEmpty(t, c.RemoteAddr())

	buf := make([]byte, 64)
	assert.Equal(t, api.RecvWouldBlock, c.Recv(buf).Status)

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)
	res := recvEventually(t, c, buf)
	require.Equal(t, api.RecvData, res.Status)
	assert.Equal(t, "ping", string(buf[:res.N]))

	n, err := c.Send(buf[:res.N])
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got := make([]byte, 4)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = io.ReadFull(client, got)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))

	require.NoError(t, client.Close())
	res = recvEventually(t, c, buf)
	assert.Equal(t, api.RecvClosed, res.Status)
	assert.NoError(t, res.Err, "orderly shutdown carries no error")
}

func TestCloseIsTerminal(t *testing.T) {
	ln := listen(t)
	client, err := net.Dial("tcp", ln.Addr())
	require.NoError(t, err)
	defer client.Close()

	c := acceptEventually(t, ln)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), api.ErrConnClosed)
	assert.Equal(t, api.RecvClosed, c.Recv(make([]byte, 8)).Status)
	_, err = c.Send([]byte("x"))
	assert.ErrorIs(t, err, api.ErrConnClosed)
}

func TestListenerClose(t *testing.T) {
	ln, err := transport.Listen(transport.ListenConfig{Host: "127.0.0.1"})
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	require.NoError(t, ln.Close())
	_, err = ln.AcceptOne()
	assert.ErrorIs(t, err, api.ErrListenerClosed)
}

func TestSendTimesOutWithoutReader(t *testing.T) {
	const wt = 200 * time.Millisecond
	ln := listenWithTimeout(t, wt)
	dialSmallWindow(t, ln.Addr())
	c := acceptEventually(t, ln)
	defer c.Close()
	require.NoError(t, c.SetNonblock(true))
	shrinkSendBuffer(t, c)

	payload := make([]byte, 8<<20)
	start := time.Now()
	n, err := c.Send(payload)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, api.ErrWriteTimeout)
	assert.Less(t, n, len(payload))
	assert.GreaterOrEqual(t, elapsed, wt)
	assert.Less(t, elapsed, 4*wt)
}

func TestSendDeadlineCoversWholeCall(t *testing.T) {
	const wt = 200 * time.Millisecond
	ln := listenWithTimeout(t, wt)
	client := dialSmallWindow(t, ln.Addr())
	c := acceptEventually(t, ln)
	defer c.Close()
	require.NoError(t, c.SetNonblock(true))
	shrinkSendBuffer(t, c)

	// a reader that drains a little at a time keeps every single wait short
	stop := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		buf := make([]byte, 8<<10)
		for {
			select {
			case <-stop:
				return
			case <-time.After(50 * time.Millisecond):
			}
			client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
			client.Read(buf)
		}
	}()
	defer func() {
		close(stop)
		<-drained
	}()

	payload := make([]byte, 1<<20)
	start := time.Now()
	n, err := c.Send(payload)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, api.ErrWriteTimeout)
	assert.Less(t, n, len(payload))
	assert.Less(t, elapsed, 4*wt, "slow reader must not extend the write timeout")
}
