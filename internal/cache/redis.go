package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yieldscope/yieldscope/internal/domain"
)

// RedisStore implements Store on a Redis backend. Each opportunity is a hash
// under opportunity:<id> with a per-key TTL; writes and reads are pipelined.
type RedisStore struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedis creates a Redis-backed store. The connection is not verified
// here; call Ping.
func NewRedis(addr, password string, db int, log zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{
		client: client,
		log:    log.With().Str("component", "redis_store").Logger(),
	}
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// PutBatch writes every record's field-map and re-arms its expiry in a
// single pipeline. Expiry is re-armed on every write so records vanish only
// when their provider stops reporting them.
func (s *RedisStore) PutBatch(ctx context.Context, opportunities []domain.Opportunity, ttl time.Duration) error {
	if len(opportunities) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, opportunity := range opportunities {
		key := Key(opportunity.ID)
		pipe.HSet(ctx, key, opportunity.Fields())
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis bulk upsert: %w", err)
	}

	s.log.Debug().Int("records", len(opportunities)).Msg("Cache batch written")
	return nil
}

// GetAll scans all opportunity keys and bulk-reads their hashes. Records
// whose key expires between scan and read come back empty and are skipped;
// malformed hashes are skipped with a warning rather than failing the read.
func (s *RedisStore) GetAll(ctx context.Context) ([]domain.Opportunity, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	commands := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		commands[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis bulk get: %w", err)
	}

	opportunities := make([]domain.Opportunity, 0, len(keys))
	for i, cmd := range commands {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		opportunity, err := domain.OpportunityFromFields(fields)
		if err != nil {
			s.log.Warn().Err(err).Str("key", keys[i]).Msg("Skipping malformed cache entry")
			continue
		}
		opportunities = append(opportunities, opportunity)
	}
	return opportunities, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
