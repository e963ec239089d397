package fixtured

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ChannelBuffer holds the channel values written by the bridge. Its length is
// fixed when it is created.
//
// The core only reads a snapshot of the buffer once per frame; writers and the
// frame loop synchronize through the buffer's lock.
type ChannelBuffer struct {
	mu      sync.RWMutex
	values  []float64
	updates atomic.Uint64
}

// NewChannelBuffer creates a buffer of n slots, copying in defaults. Slots
// past the end of defaults are zero.
func NewChannelBuffer(n int, defaults []float64) *ChannelBuffer {
	values := make([]float64, n)
	copy(values, defaults)
	return &ChannelBuffer{values: values}
}

// Len returns the number of slots.
func (b *ChannelBuffer) Len() int {
	return len(b.values)
}

// Store replaces every slot. The length of values must match the buffer.
func (b *ChannelBuffer) Store(values []float64) error {
	if len(values) != len(b.values) {
		return fmt.Errorf("invalid number of channels: %d, expected %d", len(values), len(b.values))
	}

	b.mu.Lock()
	copy(b.values, values)
	b.mu.Unlock()

	b.updates.Add(1)
	return nil
}

// Set writes a single slot.
func (b *ChannelBuffer) Set(i int, v float64) error {
	if i < 0 || i >= len(b.values) {
		return fmt.Errorf("channel %d out of range [0, %d)", i, len(b.values))
	}

	b.mu.Lock()
	b.values[i] = v
	b.mu.Unlock()

	b.updates.Add(1)
	return nil
}

// Snapshot copies the current values into dst, growing it if needed, and
// returns it.
func (b *ChannelBuffer) Snapshot(dst []float64) []float64 {
	if cap(dst) < len(b.values) {
		dst = make([]float64, len(b.values))
	}
	dst = dst[:len(b.values)]

	b.mu.RLock()
	copy(dst, b.values)
	b.mu.RUnlock()

	return dst
}

// Updates returns the number of writes the buffer has seen.
func (b *ChannelBuffer) Updates() uint64 {
	return b.updates.Load()
}
