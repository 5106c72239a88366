// File: config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package config holds the echo server configuration surface.

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/table"
)

// Report sinks understood by the command.
const (
	ReportText = "text"
	ReportLog  = "log"
)

// Pacing modes for the pause between loop iterations.
const (
	PacingSleep = "sleep" // fixed timer
	PacingEpoll = "epoll" // wake early on socket readiness
)

// Config holds all server-side configuration parameters.
type Config struct {
	Host             string        // bind host, empty means all interfaces
	Port             int           // TCP port
	NonBlocking      bool          // per-connection receive policy
	BufferSize       int           // receive-step scratch buffer capacity
	BufferStrategy   pool.Strategy // pooled, or fresh: one allocation per slot per sweep, idle included
	Capacity         int           // connection table slots
	SweepInterval    time.Duration // pacing delay between loop iterations
	Pacing           string        // "sleep" or "epoll"
	WriteTimeout     time.Duration // max wait for writability during echo
	MaxWriteFailures int           // consecutive echo failures before close, 0 disables
	ShutdownTimeout  time.Duration // wait for the loop to stop on signal
	LogLevel         string        // zap level name
	Report           string        // "text" or "log"
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		Host:             "",
		Port:             8080,
		NonBlocking:      true,
		BufferSize:       1024 * 1024,
		BufferStrategy:   pool.StrategyPooled,
		Capacity:         table.DefaultCapacity,
		SweepInterval:    time.Millisecond,
		Pacing:           PacingSleep,
		WriteTimeout:     time.Second,
		MaxWriteFailures: 3,
		ShutdownTimeout:  5 * time.Second,
		LogLevel:         "info",
		Report:           ReportText,
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range: %w", c.Port, api.ErrInvalidConfig)
	case c.BufferSize <= 0:
		return fmt.Errorf("buffer size %d must be positive: %w", c.BufferSize, api.ErrInvalidConfig)
	case c.Capacity <= 0:
		return fmt.Errorf("capacity %d must be positive: %w", c.Capacity, api.ErrInvalidConfig)
	case c.SweepInterval < 0:
		return fmt.Errorf("sweep interval %s is negative: %w", c.SweepInterval, api.ErrInvalidConfig)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("write timeout %s must be positive: %w", c.WriteTimeout, api.ErrInvalidConfig)
	case c.MaxWriteFailures < 0:
		return fmt.Errorf("max write failures %d is negative: %w", c.MaxWriteFailures, api.ErrInvalidConfig)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("shutdown timeout %s is negative: %w", c.ShutdownTimeout, api.ErrInvalidConfig)
	}
	if _, err := pool.ParseStrategy(string(c.BufferStrategy)); err != nil {
		return fmt.Errorf("%w: %w", api.ErrInvalidConfig, err)
	}
	switch c.Report {
	case ReportText, ReportLog:
	default:
		return fmt.Errorf("report sink %q: %w", c.Report, api.ErrInvalidConfig)
	}
	switch c.Pacing {
	case PacingSleep, PacingEpoll:
	default:
		return fmt.Errorf("pacing %q: %w", c.Pacing, api.ErrInvalidConfig)
	}
	return nil
}

// Mode returns the receive policy as an api.Mode.
func (c *Config) Mode() api.Mode { return api.ModeOf(c.NonBlocking) }

// fileConfig mirrors Config for YAML; pointers distinguish absent keys.
type fileConfig struct {
	Host             *string `yaml:"host"`
	Port             *int    `yaml:"port"`
	NonBlocking      *bool   `yaml:"non_blocking"`
	BufferSize       *int    `yaml:"buffer_size"`
	BufferStrategy   *string `yaml:"buffer_strategy"`
	Capacity         *int    `yaml:"capacity"`
	SweepInterval    *string `yaml:"sweep_interval"`
	Pacing           *string `yaml:"pacing"`
	WriteTimeout     *string `yaml:"write_timeout"`
	MaxWriteFailures *int    `yaml:"max_write_failures"`
	ShutdownTimeout  *string `yaml:"shutdown_timeout"`
	LogLevel         *string `yaml:"log_level"`
	Report           *string `yaml:"report"`
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg := Default()
	if err := fc.apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.NonBlocking != nil {
		cfg.NonBlocking = *fc.NonBlocking
	}
	if fc.BufferSize != nil {
		cfg.BufferSize = *fc.BufferSize
	}
	if fc.BufferStrategy != nil {
		cfg.BufferStrategy = pool.Strategy(*fc.BufferStrategy)
	}
	if fc.Capacity != nil {
		cfg.Capacity = *fc.Capacity
	}
	if fc.MaxWriteFailures != nil {
		cfg.MaxWriteFailures = *fc.MaxWriteFailures
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.Report != nil {
		cfg.Report = *fc.Report
	}
	if fc.Pacing != nil {
		cfg.Pacing = *fc.Pacing
	}
	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"sweep_interval", fc.SweepInterval, &cfg.SweepInterval},
		{"write_timeout", fc.WriteTimeout, &cfg.WriteTimeout},
		{"shutdown_timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}
