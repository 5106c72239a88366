package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/config"
	"github.com/momentics/hioload-echo/pool"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.Host)
	assert.True(t, cfg.NonBlocking)
	assert.Equal(t, 1<<20, cfg.BufferSize)
	assert.Equal(t, 100, cfg.Capacity)
	assert.Equal(t, pool.StrategyPooled, cfg.BufferStrategy)
	assert.Equal(t, api.ModeNonBlocking, cfg.Mode())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
port: 9001
non_blocking: false
buffer_size: 4096
buffer_strategy: pooled
sweep_interval: 250us
write_timeout: 2s
report: log
pacing: epoll
`))
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
	assert.False(t, cfg.NonBlocking)
	assert.Equal(t, api.ModeBlocking, cfg.Mode())
	assert.Equal(t, 4096, cfg.BufferSize)
	assert.Equal(t, pool.StrategyPooled, cfg.BufferStrategy)
	assert.Equal(t, 250*time.Microsecond, cfg.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout)
	assert.Equal(t, config.ReportLog, cfg.Report)
	assert.Equal(t, config.PacingEpoll, cfg.Pacing)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Capacity)
	assert.Equal(t, 3, cfg.MaxWriteFailures)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"port":     "port: 70000",
		"buffer":   "buffer_size: 0",
		"strategy": "buffer_strategy: arena",
		"duration": "sweep_interval: soon",
		"report":   "report: xml",
		"pacing":   "pacing: spin",
		"yaml":     "port: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestValidateWrapsSentinel(t *testing.T) {
	cfg := config.Default()
	cfg.Capacity = 0
	assert.ErrorIs(t, cfg.Validate(), api.ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: 127.0.0.1\nport: 0\n"), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 0, cfg.Port)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
