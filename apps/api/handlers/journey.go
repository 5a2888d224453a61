package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
	"github.com/smarttransit/dashboard/apps/api/models"
)

// Journey search outcomes reported to Metrics
const (
	OutcomeMatched   = "matched"
	OutcomeFallback  = "fallback"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

// SearchOutcome classifies a finished search for metrics
func SearchOutcome(results []models.ETAEntry, err error) string {
	switch {
	case errors.Is(err, dashboard.ErrEmptyPickup), errors.Is(err, dashboard.ErrSearchInProgress):
		return OutcomeRejected
	case err != nil:
		return OutcomeCancelled
	case dashboard.IsFallback(results):
		return OutcomeFallback
	default:
		return OutcomeMatched
	}
}

// JourneyHandler handles stateless journey searches
type JourneyHandler struct {
	search  *dashboard.JourneySearch
	metrics Metrics
}

// NewJourneyHandler creates a new handler around a journey search
func NewJourneyHandler(search *dashboard.JourneySearch, m Metrics) *JourneyHandler {
	return &JourneyHandler{search: search, metrics: orNoop(m)}
}

// JourneyResponse is the JSON response structure for GET /api/journey
type JourneyResponse struct {
	Pickup   string            `json:"pickup"`
	Results  []models.ETAEntry `json:"results"`
	Fallback bool              `json:"fallback"`
}

// Search handles GET /api/journey?pickup=
// Blocks for the simulated search latency before answering
func (h *JourneyHandler) Search(w http.ResponseWriter, r *http.Request) {
	pickup := r.URL.Query().Get("pickup")

	start := time.Now()
	results, err := h.search.Search(r.Context(), pickup)
	h.metrics.ObserveSearch(SearchOutcome(results, err), time.Since(start))

	if err != nil {
		if errors.Is(err, dashboard.ErrEmptyPickup) {
			writeError(w, http.StatusBadRequest, "pickup parameter is required", nil)
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "Journey search cancelled", nil)
			return
		}
		writeInternalError(w, "Journey search failed", err)
		return
	}

	writeJSON(w, http.StatusOK, JourneyResponse{
		Pickup:   pickup,
		Results:  results,
		Fallback: dashboard.IsFallback(results),
	})
}
