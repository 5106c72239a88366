// File: report/log.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package report

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-echo/api"
)

// Log emits each snapshot as one structured log entry.
type Log struct {
	log *zap.Logger
}

// NewLog creates a reporter on top of l. A nil logger discards.
func NewLog(l *zap.Logger) *Log {
	if l == nil {
		l = zap.NewNop()
	}
	return &Log{log: l}
}

// Report implements api.Reporter.
func (r *Log) Report(ev api.DisconnectEvent) {
	s := ev.Stats
	r.log.Info("stats",
		zap.Uintptr("handle", ev.Handle),
		zap.String("remote", ev.Remote),
		zap.Stringer("mode", s.Mode),
		zap.Uint64("total_bytes", s.TotalBytes),
		zap.Uint64("total_packets", s.TotalPackets),
		zap.Float64("elapsed_seconds", s.ElapsedSeconds()),
		zap.Float64("bytes_per_sec", s.BytesPerSec),
		zap.Float64("packets_per_sec", s.PacketsPerSec))
}

// Multi fans one event out to several reporters in order.
type Multi []api.Reporter

// Report implements api.Reporter.
func (m Multi) Report(ev api.DisconnectEvent) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}

var (
	_ api.Reporter = (*Log)(nil)
	_ api.Reporter = Multi(nil)
)
