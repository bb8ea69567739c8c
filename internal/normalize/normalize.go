// Package normalize turns parsed provider entries into canonical opportunity
// records.
package normalize

import (
	"time"

	"github.com/yieldscope/yieldscope/internal/domain"
	"github.com/yieldscope/yieldscope/internal/providers"
)

// Asset classification buckets for risk scoring.
var (
	stablecoins = map[string]struct{}{
		"USDC": {}, "USDT": {}, "DAI": {}, "FRAX": {},
	}
	majorAssets = map[string]struct{}{
		"ETH": {}, "SOL": {}, "WETH": {},
	}
)

// Base scores per bucket and the threshold above which an APR is treated as
// a risk signal in its own right.
const (
	stablecoinBaseRisk = 2
	majorAssetBaseRisk = 5
	otherAssetBaseRisk = 8
	highAPRThreshold   = 0.20
)

// RiskScore computes a deterministic risk score in [1,10] from the asset
// class, liquidity, and APR. The same inputs always produce the same score,
// so an opportunity's risk does not churn across refresh cycles.
func RiskScore(asset string, liquidity domain.Liquidity, apr *float64) int {
	score := otherAssetBaseRisk
	if _, ok := stablecoins[asset]; ok {
		score = stablecoinBaseRisk
	} else if _, ok := majorAssets[asset]; ok {
		score = majorAssetBaseRisk
	}

	if liquidity == domain.LiquidityLocked {
		score++
	}
	if apr != nil && *apr > highAPRThreshold {
		score++
	}

	if score > 10 {
		score = 10
	}
	if score < 1 {
		score = 1
	}
	return score
}

// Opportunity builds the canonical record for one parsed entry. The id is a
// pure function of (provider, asset), so repeated normalization of the same
// logical opportunity yields the same identity.
func Opportunity(entry providers.ParsedEntry, descriptor providers.Descriptor, now time.Time) domain.Opportunity {
	return domain.Opportunity{
		ID:        domain.OpportunityID(descriptor.Name, entry.Asset),
		Name:      entry.Name,
		Provider:  descriptor.Name,
		Asset:     entry.Asset,
		Chain:     descriptor.Chain,
		APR:       entry.APR,
		Category:  descriptor.Category,
		Liquidity: descriptor.Liquidity,
		RiskScore: RiskScore(entry.Asset, descriptor.Liquidity, entry.APR),
		UpdatedAt: now.UTC(),
	}
}

// Batch normalizes all entries from one provider refresh.
func Batch(entries []providers.ParsedEntry, descriptor providers.Descriptor, now time.Time) []domain.Opportunity {
	opportunities := make([]domain.Opportunity, 0, len(entries))
	for _, entry := range entries {
		opportunities = append(opportunities, Opportunity(entry, descriptor, now))
	}
	return opportunities
}
