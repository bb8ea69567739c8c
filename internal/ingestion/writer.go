package ingestion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yieldscope/yieldscope/internal/bus"
	"github.com/yieldscope/yieldscope/internal/cache"
	"github.com/yieldscope/yieldscope/internal/events"
)

// Writer is the single consumer draining the bus. Because there is exactly
// one of it, upserts from different providers never interleave even though
// fetches run concurrently.
type Writer struct {
	store    cache.Store
	ttl      time.Duration
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewWriter creates the cache writer.
func NewWriter(store cache.Store, ttl time.Duration, eventBus *events.Bus, log zerolog.Logger) *Writer {
	return &Writer{
		store:    store,
		ttl:      ttl,
		eventBus: eventBus,
		log:      log.With().Str("component", "cache_writer").Logger(),
	}
}

// Handle upserts one provider batch. Each record's expiry is re-armed, so
// entries disappear only when their provider stops reporting them. A failed
// write is logged and the batch dropped; the next poll cycle republishes,
// so an inline retry would only duplicate work.
func (w *Writer) Handle(ctx context.Context, batch bus.Batch) {
	if len(batch.Opportunities) == 0 {
		w.log.Debug().Str("batch_id", batch.ID).Str("provider", batch.Provider).Msg("Skipping empty batch")
		return
	}

	if err := w.store.PutBatch(ctx, batch.Opportunities, w.ttl); err != nil {
		w.log.Error().
			Err(err).
			Str("batch_id", batch.ID).
			Str("provider", batch.Provider).
			Int("records", len(batch.Opportunities)).
			Msg("Cache write failed, dropping batch")
		return
	}

	w.log.Info().
		Str("batch_id", batch.ID).
		Str("provider", batch.Provider).
		Int("records", len(batch.Opportunities)).
		Msg("Cache updated")

	if w.eventBus != nil {
		w.eventBus.Publish(events.Event{
			Type:     events.TypeBatchWritten,
			Provider: batch.Provider,
			Count:    len(batch.Opportunities),
		})
	}
}
