package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// defiLlamaPoolLimit caps how many pools are taken from the DeFiLlama
// aggregate feed per refresh.
const defiLlamaPoolLimit = 5

// ParseLido reads the Lido stETH APR payload: {"apr": 3.2} in percent.
func ParseLido(payload []byte) ([]ParsedEntry, error) {
	var body struct {
		APR float64 `json:"apr"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parse lido payload: %w", err)
	}
	apr := body.APR / 100
	return []ParsedEntry{{
		Asset: "ETH",
		Name:  "Lido ETH Staking",
		APR:   &apr,
	}}, nil
}

// ParseMarinade reads the Marinade mSOL 30d APY payload: {"value": 7.1} in
// percent.
func ParseMarinade(payload []byte) ([]ParsedEntry, error) {
	var body struct {
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parse marinade payload: %w", err)
	}
	apr := body.Value / 100
	return []ParsedEntry{{
		Asset: "SOL",
		Name:  "Marinade SOL Staking",
		APR:   &apr,
	}}, nil
}

// ParseDeFiLlama reads the DeFiLlama pools feed and takes the first few
// pools. The asset symbol is the pool symbol up to the first dash
// ("STETH-WETH" -> "STETH").
func ParseDeFiLlama(payload []byte) ([]ParsedEntry, error) {
	var body struct {
		Data []struct {
			APY     *float64 `json:"apy"`
			Symbol  string   `json:"symbol"`
			Project string   `json:"project"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parse defillama payload: %w", err)
	}

	limit := defiLlamaPoolLimit
	if len(body.Data) < limit {
		limit = len(body.Data)
	}

	entries := make([]ParsedEntry, 0, limit)
	for _, pool := range body.Data[:limit] {
		asset, _, _ := strings.Cut(pool.Symbol, "-")
		var apr *float64
		if pool.APY != nil {
			v := *pool.APY / 100
			apr = &v
		}
		entries = append(entries, ParsedEntry{
			Asset: asset,
			Name:  pool.Project + " Vault",
			APR:   apr,
		})
	}
	return entries, nil
}
