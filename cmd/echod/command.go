// File: cmd/echod/command.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scott-cotton/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/config"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/report"
	"github.com/momentics/hioload-echo/server"
)

type MainConfig struct {
	ConfigFile string `cli:"name=config desc='YAML configuration file'"`
	Host       string `cli:"name=host desc='bind host, default all interfaces'"`
	Port       int    `cli:"name=port desc='TCP port, default 8080'"`
	Blocking   bool   `cli:"name=blocking desc='use blocking receives (serves one client at a time)'"`
	BufferSize int    `cli:"name=buf desc='receive buffer size in bytes, default 1MiB'"`
	Buffers    string `cli:"name=buffers desc='receive buffers: pooled (default) or fresh per step'"`
	Capacity   int    `cli:"name=cap desc='maximum live connections, default 100'"`
	LogLevel   string `cli:"name=log desc='log level: debug, info, warn, error'"`
	Report     string `cli:"name=report desc='stats sink on disconnect: text or log'"`
	Pacing     string `cli:"name=pacing desc='pause between iterations: sleep or epoll'"`

	Interval    time.Duration
	intervalSet bool

	Main *cli.Command
}

func (cfg *MainConfig) intervalOpt(_ *cli.Context, v string) (any, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("%w: interval: %w", cli.ErrUsage, err)
	}
	cfg.Interval = d
	cfg.intervalSet = true
	return d, nil
}

// isSet reports whether the named option was given on the command line.
func (cfg *MainConfig) isSet(name string) bool {
	if name == "interval" {
		return cfg.intervalSet
	}
	if cfg.Main == nil {
		return false
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == name {
			return opt.Value != nil
		}
	}
	return false
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "interval",
		Description: "pause between loop iterations, default 1ms",
		Type:        cli.NamedFuncOpt(cli.FuncOpt(cfg.intervalOpt), "(duration)"),
	})
	return cli.NewCommandAt(&cfg.Main, "echod").
		WithSynopsis("echod [opts]").
		WithDescription("echod echoes every byte received on each TCP connection back to its sender.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return echod(cfg, cc, args)
		})
}

// resolve layers command line values over the config file over defaults.
func (cfg *MainConfig) resolve() (*config.Config, error) {
	sc := config.Default()
	if cfg.ConfigFile != "" {
		loaded, err := config.Load(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}
	return cfg.overlay(sc)
}

func (cfg *MainConfig) overlay(sc *config.Config) (*config.Config, error) {
	if cfg.isSet("host") {
		sc.Host = cfg.Host
	}
	if cfg.isSet("port") {
		sc.Port = cfg.Port
	}
	if cfg.isSet("blocking") {
		sc.NonBlocking = !cfg.Blocking
	}
	if cfg.isSet("buf") {
		sc.BufferSize = cfg.BufferSize
	}
	if cfg.isSet("buffers") {
		st, err := pool.ParseStrategy(cfg.Buffers)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		sc.BufferStrategy = st
	}
	if cfg.isSet("cap") {
		sc.Capacity = cfg.Capacity
	}
	if cfg.isSet("log") {
		sc.LogLevel = cfg.LogLevel
	}
	if cfg.isSet("report") {
		sc.Report = cfg.Report
	}
	if cfg.isSet("pacing") {
		sc.Pacing = cfg.Pacing
	}
	if cfg.isSet("interval") {
		sc.SweepInterval = cfg.Interval
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return sc, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %w", cli.ErrUsage, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func newReporter(sink string, out io.Writer, log *zap.Logger) api.Reporter {
	if sink == config.ReportLog {
		return report.NewLog(log)
	}
	return report.NewText(out)
}

func echod(cfg *MainConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Main.Parse(cc, args); err != nil {
		return err
	}
	sc, err := cfg.resolve()
	if err != nil {
		return err
	}
	log, err := newLogger(sc.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)

	srv, err := server.Listen(sc,
		server.WithLogger(log),
		server.WithReporter(newReporter(sc.Report, cc.Out, log)),
		server.WithMetrics(metrics),
		server.WithProbes(probes))
	if err != nil {
		log.Error("server socket setup failed", zap.Error(err))
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, sc.ShutdownTimeout, log, metrics, probes)
}

// serve runs the loop until it fails or ctx ends. A loop stuck in a blocking
// receive is abandoned after grace; process exit reclaims its sockets.
func serve(ctx context.Context, srv *server.Server, grace time.Duration, log *zap.Logger,
	metrics *control.MetricsRegistry, probes *control.DebugProbes) error {
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		srv.Close()
		return err
	case <-ctx.Done():
	}

	select {
	case err := <-done:
		if cerr := srv.Close(); cerr != nil {
			log.Warn("close listener", zap.Error(cerr))
		}
		log.Info("shutdown complete",
			zap.Any("metrics", metrics.GetSnapshot()),
			zap.Any("probes", probes.DumpState()))
		return err
	case <-time.After(grace):
		log.Warn("echo loop did not stop in time, exiting", zap.Duration("grace", grace), zap.Int("live", srv.Live()))
		return nil
	}
}
