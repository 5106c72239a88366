// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-echo/api"
)

// Strategy selects how receive-step scratch buffers are obtained.
type Strategy string

const (
	// StrategyFresh allocates a new buffer for every receive-step.
	StrategyFresh Strategy = "fresh"
	// StrategyPooled recycles buffers through a sync.Pool.
	StrategyPooled Strategy = "pooled"
)

// ParseStrategy validates a strategy name. Empty selects StrategyFresh.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyFresh:
		return StrategyFresh, nil
	case StrategyPooled:
		return StrategyPooled, nil
	}
	return "", fmt.Errorf("buffer strategy %q: %w", s, api.ErrInvalidArgument)
}

// BytePool hands out fixed-size scratch buffers.
type BytePool struct {
	size     int
	strategy Strategy
	pool     sync.Pool
}

// NewBytePool creates a pool of size-byte buffers.
func NewBytePool(size int, strategy Strategy) *BytePool {
	b := &BytePool{size: size, strategy: strategy}
	if strategy == StrategyPooled {
		b.pool.New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return b
}

// Size returns the capacity of every buffer handed out.
func (b *BytePool) Size() int { return b.size }

// Strategy returns the allocation strategy in effect.
func (b *BytePool) Strategy() Strategy { return b.strategy }

// GetBuffer returns a buffer of exactly Size bytes.
func (b *BytePool) GetBuffer() []byte {
	if b.strategy != StrategyPooled {
		return make([]byte, b.size)
	}
	return *(b.pool.Get().(*[]byte))
}

// PutBuffer returns a buffer to the pool. Fresh buffers are left to the GC.
func (b *BytePool) PutBuffer(buf []byte) {
	if b.strategy != StrategyPooled || cap(buf) < b.size {
		return
	}
	buf = buf[:b.size]
	b.pool.Put(&buf)
}
