package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/momentics/hioload-echo/config"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/fake"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/report"
	"github.com/momentics/hioload-echo/server"
)

func TestResolveDefaults(t *testing.T) {
	sc, err := (&MainConfig{}).resolve()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), sc)
}

func TestResolveFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9100\ncapacity: 10\nbuffer_size: 2048\n"), 0o644))

	cfg := &MainConfig{ConfigFile: path, Interval: 5 * time.Millisecond, intervalSet: true}
	sc, err := cfg.resolve()
	require.NoError(t, err)
	assert.Equal(t, 9100, sc.Port)
	assert.Equal(t, 10, sc.Capacity)
	assert.Equal(t, 2048, sc.BufferSize)
	assert.Equal(t, 5*time.Millisecond, sc.SweepInterval)
	assert.Equal(t, pool.StrategyPooled, sc.BufferStrategy)
}

func TestResolveMissingFile(t *testing.T) {
	_, err := (&MainConfig{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}).resolve()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestNewReporter(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &report.Text{}, newReporter(config.ReportText, &buf, zap.NewNop()))
	assert.IsType(t, &report.Log{}, newReporter(config.ReportLog, &buf, zap.NewNop()))
}

func TestServeStopsOnCancel(t *testing.T) {
	acc := fake.NewAcceptor()
	cfg := config.Default()
	cfg.BufferSize = 16
	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	srv, err := server.New(acc, cfg, server.WithMetrics(metrics), server.WithProbes(probes))
	require.NoError(t, err)
	acc.Push(fake.NewConn(4).QueueData([]byte("x")))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	require.NoError(t, serve(ctx, srv, time.Second, zap.NewNop(), metrics, probes))
	assert.True(t, acc.Closed())
	v, _ := metrics.Get(control.MetricStatsPackets)
	assert.Equal(t, uint64(1), v)
}
