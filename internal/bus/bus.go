// Package bus carries provider-scoped opportunity batches from the polling
// tasks to the single cache writer. Delivery is at-least-once; that is
// acceptable because cache upserts are idempotent overwrites.
package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yieldscope/yieldscope/internal/domain"
)

// Batch is one provider's refreshed opportunity set. The id exists for log
// correlation between producer and consumer.
type Batch struct {
	ID            string               `msgpack:"id"`
	Provider      string               `msgpack:"provider"`
	Opportunities []domain.Opportunity `msgpack:"opportunities"`
	PublishedAt   time.Time            `msgpack:"published_at"`
}

// Handler consumes one batch. Handlers must not retain the batch past the
// call.
type Handler func(ctx context.Context, batch Batch)

// Bus is the asynchronous channel between the ingestion pipeline and the
// cache writer. Published batches are delivered in FIFO order to a single
// consumer.
type Bus interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Publish enqueues one batch.
	Publish(ctx context.Context, batch Batch) error
	// Subscribe consumes batches with handler until ctx is cancelled or the
	// bus is closed. It is meant to be called once, from the single
	// consumer's goroutine.
	Subscribe(ctx context.Context, handler Handler) error
	// Close stops the bus; a blocked Subscribe returns.
	Close() error
}

// Encode serializes a batch for the wire.
func Encode(batch Batch) ([]byte, error) {
	data, err := msgpack.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encode batch %s: %w", batch.ID, err)
	}
	return data, nil
}

// Decode deserializes a wire batch.
func Decode(data []byte) (Batch, error) {
	var batch Batch
	if err := msgpack.Unmarshal(data, &batch); err != nil {
		return Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	return batch, nil
}
