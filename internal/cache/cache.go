// Package cache provides the TTL key-value store the aggregate lives in.
//
// The store contract is deliberately narrow: set-fields-with-expiry,
// scan-all-by-prefix, bulk-get. Per-key operations are atomic; there is no
// cross-key transaction, and consistency across the aggregate is
// last-writer-per-key.
package cache

import (
	"context"
	"time"

	"github.com/yieldscope/yieldscope/internal/domain"
)

// KeyPrefix namespaces opportunity keys in the store.
const KeyPrefix = "opportunity:"

// Store is the TTL hash store holding the opportunity aggregate.
type Store interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// PutBatch upserts every record under its id-derived key and (re)arms
	// the expiry on each key.
	PutBatch(ctx context.Context, opportunities []domain.Opportunity, ttl time.Duration) error
	// GetAll returns every live (non-expired) record, in no particular order.
	GetAll(ctx context.Context) ([]domain.Opportunity, error)
	// Close releases the backend connection.
	Close() error
}

// Key returns the store key for an opportunity id.
func Key(id string) string {
	return KeyPrefix + id
}
