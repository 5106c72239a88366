// File: api/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared API-level type declarations, DTOs, and constants.

package api

import "time"

// Mode is the per-connection receive policy.
type Mode int

const (
	ModeNonBlocking Mode = iota
	ModeBlocking
)

func (m Mode) String() string {
	switch m {
	case ModeNonBlocking:
		return "Non-blocking"
	case ModeBlocking:
		return "Blocking"
	default:
		return "unknown"
	}
}

// ModeOf maps the non-blocking flag onto a Mode.
func ModeOf(nonBlocking bool) Mode {
	if nonBlocking {
		return ModeNonBlocking
	}
	return ModeBlocking
}

// StatsSnapshot is a point-in-time view of the server's throughput counters.
type StatsSnapshot struct {
	Mode          Mode
	Started       bool
	Elapsed       time.Duration
	TotalBytes    uint64
	TotalPackets  uint64
	BytesPerSec   float64
	PacketsPerSec float64
}

// ElapsedSeconds returns Elapsed as fractional seconds.
func (s StatsSnapshot) ElapsedSeconds() float64 {
	return s.Elapsed.Seconds()
}

// DisconnectEvent is emitted once per connection transition to closed.
type DisconnectEvent struct {
	Handle uintptr
	Remote string
	Reason error // nil for orderly peer shutdown
	Stats  StatsSnapshot
}

// Reporter consumes disconnect events produced by the echo loop.
type Reporter interface {
	Report(ev DisconnectEvent)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(ev DisconnectEvent)

// Report implements Reporter.
func (f ReporterFunc) Report(ev DisconnectEvent) { f(ev) }
