package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldscope/yieldscope/internal/domain"
)

func testOpportunity(provider, asset string, updatedAt time.Time) domain.Opportunity {
	return domain.Opportunity{
		ID:        domain.OpportunityID(provider, asset),
		Name:      provider + " " + asset,
		Provider:  provider,
		Asset:     asset,
		Chain:     domain.ChainEthereum,
		Category:  domain.CategoryStaking,
		Liquidity: domain.LiquidityLiquid,
		RiskScore: 5,
		UpdatedAt: updatedAt.UTC(),
	}
}

func TestMemoryStore_PutAndGetAll(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now()

	err := store.PutBatch(ctx, []domain.Opportunity{
		testOpportunity("Lido", "ETH", now),
		testOpportunity("Marinade", "SOL", now),
	}, time.Minute)
	require.NoError(t, err)

	opportunities, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, opportunities, 2)
}

func TestMemoryStore_OverwriteInPlace(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	first := testOpportunity("Lido", "ETH", time.Now())
	require.NoError(t, store.PutBatch(ctx, []domain.Opportunity{first}, time.Minute))

	second := first
	second.RiskScore = 6
	second.UpdatedAt = first.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.PutBatch(ctx, []domain.Opportunity{second}, time.Minute))

	opportunities, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, opportunities, 1, "same id overwrites, no duplicate")
	assert.Equal(t, 6, opportunities[0].RiskScore)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	current := time.Now()
	store.SetClock(func() time.Time { return current })

	require.NoError(t, store.PutBatch(ctx, []domain.Opportunity{
		testOpportunity("Lido", "ETH", current),
	}, 5*time.Minute))

	// Still live just before the deadline.
	current = current.Add(5*time.Minute - time.Second)
	opportunities, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, opportunities, 1)

	// Gone after the TTL elapses with no refreshing write.
	current = current.Add(2 * time.Second)
	opportunities, err = store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, opportunities)
}

func TestMemoryStore_WriteReArmsExpiry(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	base := time.Now()
	current := base
	store.SetClock(func() time.Time { return current })

	record := testOpportunity("Lido", "ETH", base)
	require.NoError(t, store.PutBatch(ctx, []domain.Opportunity{record}, time.Minute))

	// Refresh just before expiry pushes the deadline out.
	current = base.Add(50 * time.Second)
	require.NoError(t, store.PutBatch(ctx, []domain.Opportunity{record}, time.Minute))

	current = base.Add(100 * time.Second)
	opportunities, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, opportunities, 1)
}

func TestMemoryStore_ProviderScopedUpsert(t *testing.T) {
	// Writing one provider's batch twice leaves other providers' entries
	// untouched.
	store := NewMemory()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.PutBatch(ctx, []domain.Opportunity{
		testOpportunity("Marinade", "SOL", now),
	}, time.Minute))

	lidoBatch := []domain.Opportunity{testOpportunity("Lido", "ETH", now)}
	require.NoError(t, store.PutBatch(ctx, lidoBatch, time.Minute))
	require.NoError(t, store.PutBatch(ctx, lidoBatch, time.Minute))

	opportunities, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, opportunities, 2)

	var marinade *domain.Opportunity
	for i := range opportunities {
		if opportunities[i].Provider == "Marinade" {
			marinade = &opportunities[i]
		}
	}
	require.NotNil(t, marinade)
	assert.Equal(t, domain.OpportunityID("Marinade", "SOL"), marinade.ID)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.PutBatch(ctx, []domain.Opportunity{testOpportunity("Lido", "ETH", time.Now())}, time.Minute))
	_, err := store.GetAll(ctx)
	assert.Error(t, err)
}
