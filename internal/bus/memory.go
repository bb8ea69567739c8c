package bus

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	// ErrBusFull is returned when a publish would exceed the queue capacity.
	ErrBusFull = errors.New("bus queue full")
	// ErrBusClosed is returned when publishing after Close.
	ErrBusClosed = errors.New("bus closed")
)

// MemoryBus is a bounded in-process Bus. Publishes never block; when the
// consumer cannot keep up the batch is rejected and the next poll cycle
// republishes. FIFO order of accepted batches is preserved.
type MemoryBus struct {
	ch     chan Batch
	closed atomic.Bool
}

// NewMemory allocates a bus with the given capacity.
func NewMemory(capacity int) *MemoryBus {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryBus{ch: make(chan Batch, capacity)}
}

// Ping always succeeds.
func (b *MemoryBus) Ping(ctx context.Context) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	return ctx.Err()
}

// Publish enqueues a batch without blocking.
func (b *MemoryBus) Publish(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.ch <- batch:
		return nil
	default:
		return ErrBusFull
	}
}

// Subscribe consumes batches until ctx is done or the bus is closed and
// drained.
func (b *MemoryBus) Subscribe(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-b.ch:
			if !ok {
				return nil
			}
			handler(ctx, batch)
		}
	}
}

// Close stops the bus from accepting new batches.
func (b *MemoryBus) Close() error {
	if b.closed.CompareAndSwap(false, true) {
		close(b.ch)
	}
	return nil
}
