// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-echo components.

package benchmarks

import (
	"testing"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/config"
	"github.com/momentics/hioload-echo/fake"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/server"
	"github.com/momentics/hioload-echo/stats"
	"github.com/momentics/hioload-echo/table"
)

// BenchmarkBytePool compares per-step allocation with recycled buffers.
func BenchmarkBytePool(b *testing.B) {
	for _, s := range []pool.Strategy{pool.StrategyFresh, pool.StrategyPooled} {
		b.Run(string(s), func(b *testing.B) {
			p := pool.NewBytePool(64*1024, s)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf := p.GetBuffer()
				buf[0] = byte(i)
				p.PutBuffer(buf)
			}
		})
	}
}

// BenchmarkTableChurn measures insert/remove on a nearly full table.
func BenchmarkTableChurn(b *testing.B) {
	t := table.New(table.DefaultCapacity)
	for i := 0; i < table.DefaultCapacity-1; i++ {
		if _, err := t.Insert(fake.NewConn(uintptr(i + 1))); err != nil {
			b.Fatal(err)
		}
	}
	c := fake.NewConn(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id, err := t.Insert(c)
		if err != nil {
			b.Fatal(err)
		}
		t.Remove(id)
	}
}

// BenchmarkStatsRecord tests accumulator contention from parallel writers.
func BenchmarkStatsRecord(b *testing.B) {
	acc := stats.New(api.ModeNonBlocking)
	acc.MarkStartOnce()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			acc.Record(512)
		}
	})
}

// BenchmarkIdleSweep measures a sweep over a full table of silent clients.
func BenchmarkIdleSweep(b *testing.B) {
	acc := fake.NewAcceptor()
	cfg := config.Default()
	cfg.BufferSize = 4096
	srv, err := server.New(acc, cfg)
	if err != nil {
		b.Fatal(err)
	}
	defer srv.Close()
	for i := 0; i < cfg.Capacity; i++ {
		acc.Push(fake.NewConn(uintptr(i + 1)))
		if _, err := srv.AcceptOne(); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		srv.Sweep()
	}
}

// BenchmarkEchoStep measures one receive and echo for a single client.
func BenchmarkEchoStep(b *testing.B) {
	acc := fake.NewAcceptor()
	cfg := config.Default()
	cfg.BufferSize = 4096
	cfg.BufferStrategy = pool.StrategyPooled
	srv, err := server.New(acc, cfg)
	if err != nil {
		b.Fatal(err)
	}
	defer srv.Close()
	c := fake.NewConn(1)
	acc.Push(c)
	if _, err := srv.AcceptOne(); err != nil {
		b.Fatal(err)
	}
	payload := make([]byte, 1024)

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.QueueData(payload)
		if srv.Sweep() != 1 {
			b.Fatal("no data echoed")
		}
	}
}
