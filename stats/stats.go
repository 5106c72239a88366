// File: stats/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-lifetime throughput accounting for the echo loop.

package stats

import (
	"sync"
	"time"

	"github.com/momentics/hioload-echo/api"
)

// Clock returns the current time. Readings must carry a monotonic component
// for elapsed-time math to be immune to wall clock steps.
type Clock func() time.Time

// Option customizes an Accumulator.
type Option func(*Accumulator)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(a *Accumulator) {
		if c != nil {
			a.now = c
		}
	}
}

// Accumulator holds total bytes and packets plus a start timestamp that is
// set at most once. The echo loop is the only writer; readers may live on
// other goroutines.
type Accumulator struct {
	mu      sync.RWMutex
	mode    api.Mode
	bytes   uint64
	packets uint64
	start   time.Time
	started bool
	now     Clock
}

// New returns an Accumulator reporting the given receive mode.
func New(mode api.Mode, opts ...Option) *Accumulator {
	a := &Accumulator{mode: mode, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record accounts one successful receive of n bytes. Non-positive n is ignored.
func (a *Accumulator) Record(n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	a.bytes += uint64(n)
	a.packets++
	a.mu.Unlock()
}

// MarkStartOnce records the start time on the first call only.
func (a *Accumulator) MarkStartOnce() {
	a.mu.Lock()
	if !a.started {
		a.start = a.now()
		a.started = true
	}
	a.mu.Unlock()
}

// Start returns the recorded start time, if any.
func (a *Accumulator) Start() (time.Time, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.start, a.started
}

// Totals returns the raw counters.
func (a *Accumulator) Totals() (bytes, packets uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bytes, a.packets
}

// Snapshot derives elapsed time and throughput. Elapsed is zero before the
// first accept; rates are zero whenever elapsed is not positive.
func (a *Accumulator) Snapshot() api.StatsSnapshot {
	a.mu.RLock()
	s := api.StatsSnapshot{
		Mode:         a.mode,
		Started:      a.started,
		TotalBytes:   a.bytes,
		TotalPackets: a.packets,
	}
	start := a.start
	a.mu.RUnlock()

	if !s.Started {
		return s
	}
	if el := a.now().Sub(start); el > 0 {
		s.Elapsed = el
		sec := el.Seconds()
		s.BytesPerSec = float64(s.TotalBytes) / sec
		s.PacketsPerSec = float64(s.TotalPackets) / sec
	}
	return s
}
