// Package matching filters opportunities against a user profile.
package matching

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/yieldscope/yieldscope/internal/domain"
	"github.com/yieldscope/yieldscope/internal/errs"
)

// MinInvestment is the smallest position the matcher considers worth
// opening, in units of the opportunity's asset.
const MinInvestment = 0.01

// shortHorizonDays is the horizon below which locked opportunities are
// excluded.
const shortHorizonDays = 30

// Engine matches opportunities to profiles. It performs no I/O; the caller
// supplies the opportunity set.
type Engine struct {
	log zerolog.Logger
}

// New creates a matching engine.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "matching").Logger()}
}

// Match filters opportunities by the profile and paginates the result.
// Filtering preserves the input order. The filter clauses themselves never
// fail; an error here means malformed input slipped past the boundary's
// validation.
func (e *Engine) Match(opportunities []domain.Opportunity, profile domain.UserProfile, page, pageSize int) (domain.Page, error) {
	if page < 1 || pageSize < 1 {
		return domain.Page{}, errs.Newf(errs.KindMatching, "match called with page=%d pageSize=%d", page, pageSize)
	}

	totalBalance := e.totalBalance(profile.WalletBalance)

	matched := make([]domain.Opportunity, 0, len(opportunities))
	for _, opportunity := range opportunities {
		if !e.matches(opportunity, profile, totalBalance) {
			continue
		}
		matched = append(matched, opportunity)
	}

	return domain.Paginate(matched, page, pageSize), nil
}

// matches applies the four filter clauses; all must hold.
func (e *Engine) matches(opportunity domain.Opportunity, profile domain.UserProfile, totalBalance float64) bool {
	// 1. Enough of the asset to open a minimum position. An unparsable or
	// absent balance counts as zero.
	balance, ok := e.assetBalance(profile.WalletBalance, opportunity.Asset)
	if !ok || balance < MinInvestment {
		return false
	}

	// 2. Risk within tolerance.
	if opportunity.RiskScore > profile.RiskTolerance {
		return false
	}

	// 3. Short horizons need liquid positions.
	if profile.InvestmentHorizonDays < shortHorizonDays && opportunity.Liquidity != domain.LiquidityLiquid {
		return false
	}

	// 4. The minimum position must fit the allocation cap relative to the
	// whole wallet. An empty wallet cannot size any position.
	if totalBalance <= 0 {
		return false
	}
	return (MinInvestment/totalBalance)*100 <= profile.MaxAllocationPct
}

func (e *Engine) assetBalance(balances map[string]string, asset string) (float64, bool) {
	raw, ok := balances[asset]
	if !ok {
		return 0, false
	}
	balance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.log.Warn().Str("asset", asset).Str("balance", raw).Msg("Unparsable balance in user profile")
		return 0, false
	}
	return balance, true
}

func (e *Engine) totalBalance(balances map[string]string) float64 {
	var total float64
	for _, raw := range balances {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		total += value
	}
	return total
}
