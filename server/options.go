// File: server/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package server defines functional options for the Server.

package server

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/reactor"
	"github.com/momentics/hioload-echo/stats"
)

// Option customizes server initialization.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReporter sets the sink for disconnect snapshots.
func WithReporter(r api.Reporter) Option {
	return func(s *Server) {
		s.reporter = r
	}
}

// WithMetrics publishes connection and traffic counters into reg.
func WithMetrics(reg *control.MetricsRegistry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// WithProbes registers server debug probes on dp.
func WithProbes(dp *control.DebugProbes) Option {
	return func(s *Server) {
		s.probes = dp
	}
}

// WithWaiter paces the loop on socket readiness instead of a fixed sleep.
// The server takes ownership and closes it in Close.
func WithWaiter(w reactor.Waiter) Option {
	return func(s *Server) {
		s.waiter = w
	}
}

// WithClock overrides the stats time source.
func WithClock(c stats.Clock) Option {
	return func(s *Server) {
		s.statsOpts = append(s.statsOpts, stats.WithClock(c))
	}
}
