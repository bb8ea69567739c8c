package matching

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldscope/yieldscope/internal/domain"
	"github.com/yieldscope/yieldscope/internal/errs"
)

func opportunity(id, asset string, riskScore int, liquidity domain.Liquidity) domain.Opportunity {
	return domain.Opportunity{
		ID:        id,
		Name:      id,
		Provider:  "Lido",
		Asset:     asset,
		Chain:     domain.ChainEthereum,
		Category:  domain.CategoryStaking,
		RiskScore: riskScore,
		Liquidity: liquidity,
		UpdatedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
}

func profile() domain.UserProfile {
	return domain.UserProfile{
		WalletBalance:         map[string]string{"ETH": "1.5", "SOL": "20"},
		RiskTolerance:         5,
		InvestmentHorizonDays: 90,
		MaxAllocationPct:      50,
	}
}

func matchedIDs(t *testing.T, engine *Engine, opportunities []domain.Opportunity, p domain.UserProfile) []string {
	t.Helper()
	page, err := engine.Match(opportunities, p, 1, 10)
	require.NoError(t, err)
	ids := make([]string, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.ID
	}
	return ids
}

func TestMatch_RiskAboveToleranceExcluded(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("lido-eth", "ETH", 5, domain.LiquidityLiquid),
		opportunity("risky-eth", "ETH", 6, domain.LiquidityLiquid),
	}

	ids := matchedIDs(t, engine, opportunities, profile())

	assert.Equal(t, []string{"lido-eth"}, ids)
}

func TestMatch_ShortHorizonExcludesLocked(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("locked-eth", "ETH", 3, domain.LiquidityLocked),
		opportunity("liquid-eth", "ETH", 3, domain.LiquidityLiquid),
	}
	p := profile()
	p.InvestmentHorizonDays = 10

	ids := matchedIDs(t, engine, opportunities, p)

	assert.Equal(t, []string{"liquid-eth"}, ids)
}

func TestMatch_LongHorizonAllowsLocked(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("locked-eth", "ETH", 3, domain.LiquidityLocked),
	}
	p := profile()
	p.InvestmentHorizonDays = 30

	ids := matchedIDs(t, engine, opportunities, p)

	assert.Equal(t, []string{"locked-eth"}, ids)
}

func TestMatch_MissingAssetBalanceExcluded(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("marinade-sol", "SOL", 3, domain.LiquidityLiquid),
		opportunity("defillama-usdc", "USDC", 3, domain.LiquidityLiquid),
	}

	ids := matchedIDs(t, engine, opportunities, profile())

	assert.Equal(t, []string{"marinade-sol"}, ids)
}

func TestMatch_UnparsableBalanceCountsAsZero(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("lido-eth", "ETH", 3, domain.LiquidityLiquid),
	}
	p := profile()
	p.WalletBalance = map[string]string{"ETH": "not-a-number", "SOL": "20"}

	ids := matchedIDs(t, engine, opportunities, p)

	assert.Empty(t, ids)
}

func TestMatch_BalanceBelowMinimumExcluded(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("lido-eth", "ETH", 3, domain.LiquidityLiquid),
	}
	p := profile()
	p.WalletBalance = map[string]string{"ETH": "0.009"}

	ids := matchedIDs(t, engine, opportunities, p)

	assert.Empty(t, ids)
}

func TestMatch_AllocationCapExcludesTinyWallets(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("lido-eth", "ETH", 3, domain.LiquidityLiquid),
	}

	// Minimum position is 20% of a 0.05 wallet; a 10% cap rejects it, a
	// 25% cap admits it.
	p := profile()
	p.WalletBalance = map[string]string{"ETH": "0.05"}
	p.MaxAllocationPct = 10
	assert.Empty(t, matchedIDs(t, engine, opportunities, p))

	p.MaxAllocationPct = 25
	assert.Equal(t, []string{"lido-eth"}, matchedIDs(t, engine, opportunities, p))
}

func TestMatch_EmptyWalletMatchesNothing(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("lido-eth", "ETH", 3, domain.LiquidityLiquid),
	}
	p := profile()
	p.WalletBalance = map[string]string{}

	ids := matchedIDs(t, engine, opportunities, p)

	assert.Empty(t, ids)
}

func TestMatch_PreservesInputOrder(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("c", "ETH", 3, domain.LiquidityLiquid),
		opportunity("a", "ETH", 3, domain.LiquidityLiquid),
		opportunity("b", "ETH", 3, domain.LiquidityLiquid),
	}

	ids := matchedIDs(t, engine, opportunities, profile())

	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestMatch_PaginatesMatches(t *testing.T) {
	engine := New(zerolog.Nop())
	opportunities := []domain.Opportunity{
		opportunity("a", "ETH", 3, domain.LiquidityLiquid),
		opportunity("b", "ETH", 3, domain.LiquidityLiquid),
		opportunity("c", "ETH", 3, domain.LiquidityLiquid),
	}

	page, err := engine.Match(opportunities, profile(), 2, 2)

	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c", page.Items[0].ID)
}

func TestMatch_RejectsMalformedPagination(t *testing.T) {
	engine := New(zerolog.Nop())

	_, err := engine.Match(nil, profile(), 0, 10)

	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindMatching))
}
