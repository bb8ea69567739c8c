// Package providers defines the external yield data sources and how their
// payloads are fetched and parsed.
package providers

import (
	"time"

	"github.com/yieldscope/yieldscope/internal/domain"
)

// ParsedEntry is the normalized intermediate every parser produces.
type ParsedEntry struct {
	Asset string
	Name  string
	APR   *float64 // fraction, nil when the provider reports none
}

// Descriptor is the static configuration for one provider: where to fetch,
// how to read the payload, and how the resulting opportunities are
// classified. Descriptors are immutable after startup.
type Descriptor struct {
	Name         string
	Chain        domain.Chain
	Endpoint     string
	Category     domain.Category
	Liquidity    domain.Liquidity
	PollInterval time.Duration
	Parse        ParseFunc
}

// ParseFunc turns a provider's raw payload into parsed entries. Each
// provider has exactly one parser; payload shapes are a closed set, not
// discovered at runtime.
type ParseFunc func(payload []byte) ([]ParsedEntry, error)

// Defaults returns the production provider set. Poll intervals can be
// overridden per provider via overrides keyed by provider name.
func Defaults(overrides map[string]time.Duration) []Descriptor {
	descriptors := []Descriptor{
		{
			Name:         "Lido",
			Chain:        domain.ChainEthereum,
			Endpoint:     "https://eth-api.lido.fi/v1/protocol/steth/apr/last",
			Category:     domain.CategoryStaking,
			Liquidity:    domain.LiquidityLiquid,
			PollInterval: time.Minute,
			Parse:        ParseLido,
		},
		{
			Name:         "Marinade",
			Chain:        domain.ChainSolana,
			Endpoint:     "https://api.marinade.finance/msol/apy/30d",
			Category:     domain.CategoryStaking,
			Liquidity:    domain.LiquidityLiquid,
			PollInterval: time.Minute,
			Parse:        ParseMarinade,
		},
		{
			Name:         "DeFiLlama",
			Chain:        domain.ChainEthereum,
			Endpoint:     "https://yields.llama.fi/pools",
			Category:     domain.CategoryVault,
			Liquidity:    domain.LiquidityLiquid,
			PollInterval: 2 * time.Minute,
			Parse:        ParseDeFiLlama,
		},
	}

	for i := range descriptors {
		if interval, ok := overrides[descriptors[i].Name]; ok && interval > 0 {
			descriptors[i].PollInterval = interval
		}
	}
	return descriptors
}
