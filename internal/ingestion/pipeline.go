// Package ingestion polls every provider on its own schedule and hands the
// refreshed batches to the cache writer through the message bus.
package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/yieldscope/yieldscope/internal/bus"
	"github.com/yieldscope/yieldscope/internal/cache"
	"github.com/yieldscope/yieldscope/internal/errs"
	"github.com/yieldscope/yieldscope/internal/events"
	"github.com/yieldscope/yieldscope/internal/normalize"
	"github.com/yieldscope/yieldscope/internal/providers"
	"github.com/yieldscope/yieldscope/internal/retry"
)

// ProviderFetcher fetches and parses one provider's current payload.
type ProviderFetcher interface {
	Fetch(ctx context.Context, descriptor providers.Descriptor) ([]providers.ParsedEntry, error)
}

// Config holds the pipeline's retry and expiry settings.
type Config struct {
	CacheTTL         time.Duration
	RetryMaxAttempts int
	RetryBackoff     []time.Duration
}

// Pipeline owns one polling task per provider plus the single bus consumer.
// Poll entries are held by the instance and cancelled deterministically on
// Stop; nothing registers with a process-wide timer list.
type Pipeline struct {
	descriptors []providers.Descriptor
	fetcher     ProviderFetcher
	bus         bus.Bus
	store       cache.Store
	eventBus    *events.Bus
	cfg         Config
	log         zerolog.Logger

	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a pipeline over the given providers and infrastructure.
func New(descriptors []providers.Descriptor, fetcher ProviderFetcher, messageBus bus.Bus, store cache.Store, eventBus *events.Bus, cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		descriptors: descriptors,
		fetcher:     fetcher,
		bus:         messageBus,
		store:       store,
		eventBus:    eventBus,
		cfg:         cfg,
		log:         log.With().Str("component", "ingestion").Logger(),
	}
}

// Start verifies the bus and cache are reachable, then starts the consumer
// and the per-provider pollers. Unreachable infrastructure after retry
// exhaustion is fatal, unlike provider fetch failures: there is nothing to
// degrade to without a cache.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started && !p.stopped {
		p.log.Warn().Msg("Ingestion pipeline already started, ignoring")
		return nil
	}

	_, err := retry.Do(ctx, p.log, errs.KindBusConnection, "connect message bus", p.cfg.RetryMaxAttempts, p.cfg.RetryBackoff,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.bus.Ping(ctx)
		})
	if err != nil {
		return err
	}
	p.log.Info().Msg("Message bus connected")

	_, err = retry.Do(ctx, p.log, errs.KindCacheConnection, "connect cache", p.cfg.RetryMaxAttempts, p.cfg.RetryBackoff,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.store.Ping(ctx)
		})
	if err != nil {
		return err
	}
	p.log.Info().Msg("Cache connected")

	// The pipeline outlives the startup request context.
	runCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	writer := NewWriter(p.store, p.cfg.CacheTTL, p.eventBus, p.log)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.bus.Subscribe(runCtx, writer.Handle); err != nil {
			p.log.Error().Err(err).Msg("Bus consumer stopped with error")
		}
	}()

	p.cron = cron.New()
	for _, descriptor := range p.descriptors {
		// Shadow the loop variable so each closure below captures its own
		// descriptor under Go 1.21's shared-loop-variable semantics.
		descriptor := descriptor
		// First fire happens immediately; the cron entry takes over from
		// the first interval on.
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.cycle(runCtx, descriptor)
		}()

		_, err := p.cron.AddFunc(fmt.Sprintf("@every %s", descriptor.PollInterval), func() {
			p.cycle(runCtx, descriptor)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("schedule poller for %s: %w", descriptor.Name, err)
		}

		p.log.Info().
			Str("provider", descriptor.Name).
			Dur("interval", descriptor.PollInterval).
			Msg("Provider poller scheduled")
	}
	p.cron.Start()

	p.started = true
	p.stopped = false
	return nil
}

// cycle runs one fetch-normalize-publish pass for a provider. Fetch
// exhaustion degrades to an empty refresh: nothing is published and the
// provider's previous cache entries survive until their TTL elapses.
func (p *Pipeline) cycle(ctx context.Context, descriptor providers.Descriptor) {
	if ctx.Err() != nil {
		return
	}

	entries, err := retry.Do(ctx, p.log, errs.KindProviderFetch, "fetch "+descriptor.Name,
		p.cfg.RetryMaxAttempts, p.cfg.RetryBackoff,
		func(ctx context.Context) ([]providers.ParsedEntry, error) {
			return p.fetcher.Fetch(ctx, descriptor)
		})
	if err != nil {
		p.log.Warn().
			Err(err).
			Str("provider", descriptor.Name).
			Msg("Fetch exhausted, serving cached data until next cycle")
		if p.eventBus != nil {
			p.eventBus.Publish(events.Event{
				Type:     events.TypeFetchExhausted,
				Provider: descriptor.Name,
				Message:  err.Error(),
			})
		}
		return
	}

	// A fetch that completes after Stop is discarded, not an error.
	if ctx.Err() != nil {
		p.log.Debug().Str("provider", descriptor.Name).Msg("Discarding fetch result after stop")
		return
	}

	now := time.Now()
	batch := bus.Batch{
		ID:            uuid.NewString(),
		Provider:      descriptor.Name,
		Opportunities: normalize.Batch(entries, descriptor, now),
		PublishedAt:   now.UTC(),
	}

	if err := p.bus.Publish(ctx, batch); err != nil {
		p.log.Error().
			Err(err).
			Str("batch_id", batch.ID).
			Str("provider", descriptor.Name).
			Msg("Failed to publish batch")
		return
	}

	p.log.Info().
		Str("batch_id", batch.ID).
		Str("provider", descriptor.Name).
		Int("records", len(batch.Opportunities)).
		Msg("Published provider batch")

	if p.eventBus != nil {
		p.eventBus.Publish(events.Event{
			Type:     events.TypeProviderRefreshed,
			Provider: descriptor.Name,
			Count:    len(batch.Opportunities),
		})
	}
}

// Stop cancels every poller, waits for in-flight cycles and the consumer,
// then releases the bus and cache handles. Safe to call once after Start;
// repeated calls are no-ops.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
	p.wg.Wait()

	if err := p.bus.Close(); err != nil {
		p.log.Warn().Err(err).Msg("Failed to close message bus")
	}
	if err := p.store.Close(); err != nil {
		p.log.Warn().Err(err).Msg("Failed to close cache")
	}
	p.log.Info().Msg("Ingestion pipeline stopped")
}
