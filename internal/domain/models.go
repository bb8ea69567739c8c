// Package domain holds the core data model shared by every layer.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Chain identifies the blockchain an opportunity lives on.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
)

// Category classifies the kind of yield product.
type Category string

const (
	CategoryStaking Category = "staking"
	CategoryLending Category = "lending"
	CategoryVault   Category = "vault"
)

// Liquidity describes whether funds can be withdrawn at will.
type Liquidity string

const (
	LiquidityLiquid Liquidity = "liquid"
	LiquidityLocked Liquidity = "locked"
)

// Opportunity is a single yield-generating offer normalized across providers.
// APR is a non-negative fraction (0.05 = 5%) and may be absent when a provider
// does not report one. RiskScore is always in [1,10].
type Opportunity struct {
	ID        string    `json:"id" msgpack:"id"`
	Name      string    `json:"name" msgpack:"name"`
	Provider  string    `json:"provider" msgpack:"provider"`
	Asset     string    `json:"asset" msgpack:"asset"`
	Chain     Chain     `json:"chain" msgpack:"chain"`
	APR       *float64  `json:"apr" msgpack:"apr"`
	Category  Category  `json:"category" msgpack:"category"`
	Liquidity Liquidity `json:"liquidity" msgpack:"liquidity"`
	RiskScore int       `json:"riskScore" msgpack:"risk_score"`
	UpdatedAt time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// OpportunityID derives the stable identity for a (provider, asset) pair.
// The same logical opportunity keeps the same id across refresh cycles so
// cache writes overwrite in place.
func OpportunityID(provider, asset string) string {
	return strings.ToLower(provider + "-" + asset)
}

// aprNull is the sentinel stored in the cache when an APR is absent.
const aprNull = "null"

// Fields flattens the record into the string field-map stored in the cache.
func (o Opportunity) Fields() map[string]string {
	apr := aprNull
	if o.APR != nil {
		apr = strconv.FormatFloat(*o.APR, 'f', -1, 64)
	}
	return map[string]string{
		"id":        o.ID,
		"name":      o.Name,
		"provider":  o.Provider,
		"asset":     o.Asset,
		"chain":     string(o.Chain),
		"apr":       apr,
		"category":  string(o.Category),
		"liquidity": string(o.Liquidity),
		"riskScore": strconv.Itoa(o.RiskScore),
		"updatedAt": o.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// OpportunityFromFields rebuilds a record from its cached field-map.
func OpportunityFromFields(fields map[string]string) (Opportunity, error) {
	o := Opportunity{
		ID:        fields["id"],
		Name:      fields["name"],
		Provider:  fields["provider"],
		Asset:     fields["asset"],
		Chain:     Chain(fields["chain"]),
		Category:  Category(fields["category"]),
		Liquidity: Liquidity(fields["liquidity"]),
	}
	if o.ID == "" {
		return Opportunity{}, fmt.Errorf("opportunity fields missing id")
	}

	if apr := fields["apr"]; apr != "" && apr != aprNull {
		v, err := strconv.ParseFloat(apr, 64)
		if err != nil {
			return Opportunity{}, fmt.Errorf("parse apr for %s: %w", o.ID, err)
		}
		o.APR = &v
	}

	score, err := strconv.Atoi(fields["riskScore"])
	if err != nil {
		return Opportunity{}, fmt.Errorf("parse riskScore for %s: %w", o.ID, err)
	}
	o.RiskScore = score

	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updatedAt"])
	if err != nil {
		return Opportunity{}, fmt.Errorf("parse updatedAt for %s: %w", o.ID, err)
	}
	o.UpdatedAt = updatedAt

	return o, nil
}

// UserProfile carries the caller's risk and allocation preferences. It is
// owned by the request and never persisted. Balances are decimal strings
// keyed by asset symbol.
type UserProfile struct {
	WalletBalance         map[string]string `json:"walletBalance"`
	RiskTolerance         int               `json:"riskTolerance"`
	MaxAllocationPct      float64           `json:"maxAllocationPct"`
	InvestmentHorizonDays int               `json:"investmentHorizon"`
}

// Page is one page of a sorted opportunity listing.
type Page struct {
	Items       []Opportunity
	TotalItems  int
	TotalPages  int
	CurrentPage int
}

// Paginate slices items into the requested page. The page number is clamped
// into [1, max(totalPages,1)] so out-of-range requests return the last page
// rather than an empty one. An empty input yields TotalPages 0.
func Paginate(items []Opportunity, page, pageSize int) Page {
	totalItems := len(items)
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}

	currentPage := page
	if currentPage < 1 {
		currentPage = 1
	}
	if totalPages >= 1 && currentPage > totalPages {
		currentPage = totalPages
	}
	if totalPages == 0 {
		currentPage = 1
	}

	start := (currentPage - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	return Page{
		Items:       append([]Opportunity{}, items[start:end]...),
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: currentPage,
	}
}
