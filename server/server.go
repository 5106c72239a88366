// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package server runs the echo loop: one non-blocking accept attempt followed
// by one receive-step per live connection, repeated on a single goroutine.

package server

import (
	"errors"
	"fmt"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/config"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/reactor"
	"github.com/momentics/hioload-echo/stats"
	"github.com/momentics/hioload-echo/table"
)

// New builds a server around an already listening acceptor.
func New(acc api.Acceptor, cfg *config.Config, opts ...Option) (*Server, error) {
	if acc == nil {
		return nil, fmt.Errorf("nil acceptor: %w", api.ErrInvalidArgument)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:           cfg,
		acceptor:      acc,
		table:         table.New(cfg.Capacity),
		buffers:       pool.NewBytePool(cfg.BufferSize, cfg.BufferStrategy),
		log:           zap.NewNop(),
		events:        queue.New(),
		writeFailures: make(map[table.SlotID]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stats = stats.New(cfg.Mode(), s.statsOpts...)
	if s.probes != nil {
		s.registerProbes(s.probes)
	}
	return s, nil
}

// Listen binds the configured endpoint and builds a server on it. Failure
// here is fatal for the process; no socket is left open on error.
func Listen(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ln, err := transport.Listen(transport.ListenConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return nil, err
	}
	var w reactor.Waiter
	if cfg.Pacing == config.PacingEpoll {
		if w, err = reactor.NewWaiter(); err != nil {
			ln.Close()
			return nil, err
		}
		if err := w.Register(ln.Handle()); err != nil {
			w.Close()
			ln.Close()
			return nil, err
		}
		opts = append(opts, WithWaiter(w))
	}
	s, err := New(ln, cfg, opts...)
	if err != nil {
		if w != nil {
			w.Close()
		}
		ln.Close()
		return nil, err
	}
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() string { return s.acceptor.Addr() }

// Live returns the number of occupied connection slots.
func (s *Server) Live() int { return int(s.live.Load()) }

// Capacity returns the connection table size.
func (s *Server) Capacity() int { return s.table.Cap() }

// Stats returns a current statistics snapshot.
func (s *Server) Stats() api.StatsSnapshot { return s.stats.Snapshot() }

// AcceptOne performs the listener step: a single accept attempt, then the
// receive-policy switch and table insertion for the new connection. It
// returns (nil, nil) when nobody is waiting. A connection that cannot be
// configured or placed is closed before the error is returned.
func (s *Server) AcceptOne() (api.Conn, error) {
	c, err := s.acceptor.AcceptOne()
	if err != nil {
		if !errors.Is(err, api.ErrListenerClosed) {
			s.log.Error("accept failed", zap.Error(err))
		}
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	s.stats.MarkStartOnce()
	log := s.log.With(zap.Uintptr("handle", c.Handle()), zap.String("remote", c.RemoteAddr()))

	if err := c.SetNonblock(s.cfg.NonBlocking); err != nil {
		log.Warn("client dropped", zap.Error(err))
		c.Close()
		s.count(control.MetricConnRejected, 1)
		return nil, err
	}
	id, err := s.table.Insert(c)
	if err != nil {
		log.Warn("client rejected", zap.Error(err), zap.Int("live", s.table.Len()))
		c.Close()
		s.count(control.MetricConnRejected, 1)
		return nil, err
	}
	s.live.Store(int64(s.table.Len()))
	if s.waiter != nil {
		if err := s.waiter.Register(c.Handle()); err != nil {
			log.Warn("readiness registration failed", zap.Error(err))
		}
	}
	log.Info("client connected", zap.Stringer("slot", id))
	s.count(control.MetricConnAccepted, 1)
	s.publishLive()
	return c, nil
}

// Close stops accepting and closes every live connection. Must not race
// with Run; call it after Run has returned. Safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.acceptor.Close()
		for _, c := range s.table.Drain() {
			s.unwatch(c)
			c.Close()
		}
		if s.waiter != nil {
			s.waiter.Close()
		}
		s.writeFailures = make(map[table.SlotID]int)
		s.live.Store(0)
		s.publishLive()
	})
	return s.closeErr
}

func (s *Server) unwatch(c api.Conn) {
	if s.waiter == nil {
		return
	}
	if err := s.waiter.Unregister(c.Handle()); err != nil {
		s.log.Debug("readiness unregister failed", zap.Uintptr("handle", c.Handle()), zap.Error(err))
	}
}

func (s *Server) count(key string, delta int64) {
	if s.metrics != nil {
		s.metrics.Add(key, delta)
	}
}

func (s *Server) publishLive() {
	if s.metrics != nil {
		s.metrics.Set(control.MetricConnLive, s.live.Load())
	}
}

func (s *Server) publishTraffic() {
	if s.metrics == nil {
		return
	}
	b, p := s.stats.Totals()
	s.metrics.Set(control.MetricStatsBytes, b)
	s.metrics.Set(control.MetricStatsPackets, p)
}

func (s *Server) registerProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("server.addr", func() any { return s.Addr() })
	dp.RegisterProbe("server.live", func() any { return s.Live() })
	dp.RegisterProbe("server.capacity", func() any { return s.Capacity() })
	dp.RegisterProbe("server.stats", func() any { return s.Stats() })
}
