// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/config"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/reactor"
	"github.com/momentics/hioload-echo/stats"
	"github.com/momentics/hioload-echo/table"
)

// Server owns the listening socket, the connection table and the stats.
// Step, Sweep, AcceptOne and Run must be driven from one goroutine; the
// read-only accessors may be used from any goroutine.
type Server struct {
	cfg      *config.Config
	acceptor api.Acceptor
	table    *table.Table
	stats    *stats.Accumulator
	buffers  *pool.BytePool
	log      *zap.Logger
	reporter api.Reporter
	metrics  *control.MetricsRegistry
	probes   *control.DebugProbes
	waiter   reactor.Waiter // optional readiness pacing

	// disconnect events queued during a sweep, delivered after it
	events *queue.Queue
	// consecutive echo failures per live slot
	writeFailures map[table.SlotID]int

	statsOpts []stats.Option
	live      atomic.Int64
	closeOnce sync.Once
	closeErr  error
}
