package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/yieldscope/yieldscope/internal/domain"
	"github.com/yieldscope/yieldscope/internal/errs"
)

// Pagination defaults applied when the query parameters are absent.
const (
	defaultPage     = 1
	defaultPageSize = 10
)

// opportunitiesResponse is the wire shape of the paginated listing.
type opportunitiesResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	TotalItems    int                  `json:"totalItems"`
	TotalPages    int                  `json:"totalPages"`
	CurrentPage   int                  `json:"currentPage"`
}

// matchResponse is the wire shape of the matched listing.
type matchResponse struct {
	MatchedOpportunities []domain.Opportunity `json:"matchedOpportunities"`
	TotalItems           int                  `json:"totalItems"`
	TotalPages           int                  `json:"totalPages"`
	CurrentPage          int                  `json:"currentPage"`
}

// errorResponse is the wire shape of every error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "yieldscope",
	})
}

// handleOpportunities handles GET /api/earn/opportunities.
func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePagination(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result := s.query.GetOpportunities(r.Context(), page, pageSize)
	s.writeJSON(w, http.StatusOK, opportunitiesResponse{
		Opportunities: result.Items,
		TotalItems:    result.TotalItems,
		TotalPages:    result.TotalPages,
		CurrentPage:   result.CurrentPage,
	})
}

// handleMatch handles POST /api/earn/opportunities/match.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePagination(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var profile domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeError(w, http.StatusBadRequest, errs.Newf(errs.KindValidation, "invalid request body"))
		return
	}
	if err := validateProfile(profile); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	opportunities := s.query.All(r.Context())
	result, err := s.matcher.Match(opportunities, profile, page, pageSize)
	if err != nil {
		s.log.Error().Err(err).Msg("Matching failed")
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, matchResponse{
		MatchedOpportunities: result.Items,
		TotalItems:           result.TotalItems,
		TotalPages:           result.TotalPages,
		CurrentPage:          result.CurrentPage,
	})
}

// handleStats handles GET /api/earn/opportunities/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.query.GetStats(r.Context()))
}

// parsePagination coerces page and pageSize from the query string, applying
// defaults when absent. Non-integer or sub-1 values are validation errors,
// not silently clamped; clamping is reserved for out-of-range pages.
func parsePagination(r *http.Request) (int, int, error) {
	page, err := positiveIntParam(r, "page", defaultPage)
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := positiveIntParam(r, "pageSize", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func positiveIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, errs.Newf(errs.KindValidation, "%s must be a positive integer", name)
	}
	return value, nil
}

// validateProfile enforces the profile field bounds the core assumes.
func validateProfile(profile domain.UserProfile) error {
	if profile.WalletBalance == nil {
		return errs.Newf(errs.KindValidation, "walletBalance is required")
	}
	if profile.RiskTolerance < 1 || profile.RiskTolerance > 10 {
		return errs.Newf(errs.KindValidation, "riskTolerance must be between 1 and 10")
	}
	if profile.MaxAllocationPct < 0 || profile.MaxAllocationPct > 100 {
		return errs.Newf(errs.KindValidation, "maxAllocationPct must be between 0 and 100")
	}
	if profile.InvestmentHorizonDays < 1 {
		return errs.Newf(errs.KindValidation, "investmentHorizon must be a positive integer")
	}
	return nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes the error body, exposing the error kind as the code.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	code := "UNKNOWN_ERROR"
	if kind, ok := errs.KindOf(err); ok {
		code = string(kind)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
