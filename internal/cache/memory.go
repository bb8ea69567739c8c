package cache

import (
	"context"
	"sync"
	"time"

	"github.com/yieldscope/yieldscope/internal/domain"
)

// MemoryStore is an in-process Store with per-key expiry. It backs tests and
// dev mode, where running Redis would be overhead for three providers'
// worth of data.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	fields    map[string]string
	expiresAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// PutBatch stores each record's field-map and re-arms its deadline.
func (s *MemoryStore) PutBatch(ctx context.Context, opportunities []domain.Opportunity, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	deadline := s.now().Add(ttl)
	for _, opportunity := range opportunities {
		s.entries[Key(opportunity.ID)] = memoryEntry{
			fields:    opportunity.Fields(),
			expiresAt: deadline,
		}
	}
	return nil
}

// GetAll returns all live records, expiring lazily on read.
func (s *MemoryStore) GetAll(ctx context.Context) ([]domain.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var opportunities []domain.Opportunity
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			continue
		}
		opportunity, err := domain.OpportunityFromFields(entry.fields)
		if err != nil {
			delete(s.entries, key)
			continue
		}
		opportunities = append(opportunities, opportunity)
	}
	return opportunities, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// SetClock overrides the store's clock. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
