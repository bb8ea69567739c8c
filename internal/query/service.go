// Package query serves read views over the opportunity cache.
package query

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/yieldscope/yieldscope/internal/cache"
	"github.com/yieldscope/yieldscope/internal/domain"
)

// Service reads, sorts, and paginates the cached aggregate. The read path
// never fails the caller: a cache error degrades to an empty result.
type Service struct {
	store cache.Store
	log   zerolog.Logger
}

// New creates a query service over the store.
func New(store cache.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("component", "query").Logger(),
	}
}

// All returns every live opportunity, most recently refreshed first, ties
// broken by id so pagination is stable across reads. On a cache read
// failure it logs and returns an empty slice.
func (s *Service) All(ctx context.Context) []domain.Opportunity {
	opportunities, err := s.store.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Cache read failed, returning empty result")
		return []domain.Opportunity{}
	}

	sort.Slice(opportunities, func(i, j int) bool {
		if !opportunities[i].UpdatedAt.Equal(opportunities[j].UpdatedAt) {
			return opportunities[i].UpdatedAt.After(opportunities[j].UpdatedAt)
		}
		return opportunities[i].ID < opportunities[j].ID
	})
	return opportunities
}

// GetOpportunities returns one page of the sorted aggregate.
func (s *Service) GetOpportunities(ctx context.Context, page, pageSize int) domain.Page {
	return domain.Paginate(s.All(ctx), page, pageSize)
}

// Stats summarizes the cached aggregate. APR statistics cover only the
// records that report an APR.
type Stats struct {
	TotalOpportunities int     `json:"totalOpportunities"`
	Providers          int     `json:"providers"`
	WithAPR            int     `json:"withApr"`
	MeanAPR            float64 `json:"meanApr"`
	MedianAPR          float64 `json:"medianApr"`
	StdDevAPR          float64 `json:"stdDevApr"`
}

// GetStats computes the aggregate summary.
func (s *Service) GetStats(ctx context.Context) Stats {
	opportunities := s.All(ctx)

	providerSet := make(map[string]struct{})
	var aprs []float64
	for _, opportunity := range opportunities {
		providerSet[opportunity.Provider] = struct{}{}
		if opportunity.APR != nil {
			aprs = append(aprs, *opportunity.APR)
		}
	}

	stats := Stats{
		TotalOpportunities: len(opportunities),
		Providers:          len(providerSet),
		WithAPR:            len(aprs),
	}
	if len(aprs) == 0 {
		return stats
	}

	sort.Float64s(aprs)
	stats.MeanAPR = stat.Mean(aprs, nil)
	stats.MedianAPR = stat.Quantile(0.5, stat.Empirical, aprs, nil)
	if len(aprs) > 1 {
		stats.StdDevAPR = stat.StdDev(aprs, nil)
	}
	return stats
}
