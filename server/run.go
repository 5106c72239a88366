// File: server/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package server implements the accept-then-sweep loop and the per-connection
// receive-step state machine.

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/table"
)

// Run repeats Step until ctx is cancelled or the listener is closed,
// pausing SweepInterval between iterations. Cancellation is only observed
// between steps; in blocking mode a step may wait on a silent client.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("echo loop started",
		zap.String("addr", s.Addr()),
		zap.Stringer("mode", s.cfg.Mode()),
		zap.Int("capacity", s.table.Cap()),
		zap.Int("buffer_size", s.buffers.Size()),
		zap.String("buffer_strategy", string(s.buffers.Strategy())))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("echo loop stopped", zap.Int("live", s.Live()))
			return nil
		default:
		}
		if _, err := s.Step(); err != nil {
			return err
		}
		s.pause(ctx)
	}
}

// pause waits between iterations, on readiness when a waiter is set.
func (s *Server) pause(ctx context.Context) {
	if s.waiter == nil {
		pause(ctx, s.cfg.SweepInterval)
		return
	}
	if s.cfg.SweepInterval <= 0 {
		return
	}
	if _, err := s.waiter.Wait(s.cfg.SweepInterval); err != nil {
		s.log.Debug("readiness wait failed", zap.Error(err))
		pause(ctx, s.cfg.SweepInterval)
	}
}

// pause waits for d or until ctx is done. It only bounds CPU spin.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Step runs one loop iteration: one accept attempt, then one sweep. It
// returns the number of receive-steps that yielded data. Only a closed
// listener is reported as an error; everything else is handled in place.
func (s *Server) Step() (int, error) {
	if _, err := s.AcceptOne(); errors.Is(err, api.ErrListenerClosed) {
		return 0, err
	}
	return s.Sweep(), nil
}

// Sweep gives every occupied slot exactly one receive-step, in ascending
// slot order, then delivers the disconnect events the sweep produced.
func (s *Server) Sweep() int {
	served := 0
	s.table.Range(func(id table.SlotID, c api.Conn) bool {
		if s.receiveStep(id, c) {
			served++
		}
		return true
	})
	if served > 0 {
		s.publishTraffic()
	}
	s.flushEvents()
	return served
}

// receiveStep performs one receive attempt and the resulting echo, close or
// no-op. It reports whether data was received.
func (s *Server) receiveStep(id table.SlotID, c api.Conn) bool {
	buf := s.buffers.GetBuffer()
	defer s.buffers.PutBuffer(buf)

	res := c.Recv(buf)
	switch res.Status {
	case api.RecvWouldBlock:
		return false
	case api.RecvData:
		s.stats.Record(res.N)
		s.echo(id, c, buf[:res.N])
		return true
	default:
		s.disconnect(id, c, res.Err)
		return false
	}
}

// echo writes data back verbatim. Failures are logged; MaxWriteFailures
// consecutive failures close the connection.
func (s *Server) echo(id table.SlotID, c api.Conn, data []byte) {
	n, err := c.Send(data)
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	if err == nil {
		delete(s.writeFailures, id)
		return
	}
	fails := s.writeFailures[id] + 1
	s.writeFailures[id] = fails
	s.count(control.MetricWriteErrors, 1)
	s.log.Warn("echo write failed",
		zap.Uintptr("handle", c.Handle()),
		zap.Stringer("slot", id),
		zap.Int("bytes", len(data)),
		zap.Int("written", n),
		zap.Int("consecutive", fails),
		zap.Error(err))
	if limit := s.cfg.MaxWriteFailures; limit > 0 && fails >= limit {
		s.disconnect(id, c, fmt.Errorf("echo failed %d times: %w", fails, err))
	}
}

// disconnect closes the handle, frees its slot and queues a stats event.
func (s *Server) disconnect(id table.SlotID, c api.Conn, reason error) {
	s.unwatch(c)
	if err := c.Close(); err != nil && !errors.Is(err, api.ErrConnClosed) {
		s.log.Debug("close failed", zap.Uintptr("handle", c.Handle()), zap.Error(err))
	}
	s.table.Remove(id)
	delete(s.writeFailures, id)
	s.live.Store(int64(s.table.Len()))

	fields := []zap.Field{
		zap.Uintptr("handle", c.Handle()),
		zap.String("remote", c.RemoteAddr()),
		zap.Stringer("slot", id),
	}
	if reason != nil {
		fields = append(fields, zap.NamedError("reason", reason))
	}
	s.log.Info("client disconnected", fields...)

	s.events.Add(api.DisconnectEvent{
		Handle: c.Handle(),
		Remote: c.RemoteAddr(),
		Reason: reason,
		Stats:  s.stats.Snapshot(),
	})
	s.count(control.MetricConnClosed, 1)
	s.publishLive()
}

func (s *Server) flushEvents() {
	for s.events.Length() > 0 {
		ev := s.events.Remove().(api.DisconnectEvent)
		if s.reporter != nil {
			s.reporter.Report(ev)
		}
	}
}
