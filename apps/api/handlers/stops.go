package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smarttransit/dashboard/apps/api/models"
	"github.com/smarttransit/dashboard/apps/api/repository"
)

// StopRepository defines the interface for stop registry operations
type StopRepository interface {
	GetAllStops(ctx context.Context) ([]models.Stop, error)
	GetStopETAs(ctx context.Context, stopID string) ([]models.ETAEntry, error)
	GetPopularStops(ctx context.Context) ([]models.PopularStop, error)
}

// StopHandler handles HTTP requests for stop data
type StopHandler struct {
	repo StopRepository
}

// NewStopHandler creates a new handler with the given repository
func NewStopHandler(repo StopRepository) *StopHandler {
	return &StopHandler{repo: repo}
}

// GetStopsResponse is the JSON response structure for GET /api/stops
type GetStopsResponse struct {
	Stops []models.Stop `json:"stops"`
	Count int           `json:"count"`
}

// GetPopularStopsResponse is the JSON response structure for GET /api/stops/popular
type GetPopularStopsResponse struct {
	Stops []models.PopularStop `json:"stops"`
	Count int                  `json:"count"`
}

// GetStopETAsResponse is the JSON response structure for GET /api/stops/{stopId}/etas
type GetStopETAsResponse struct {
	StopID string            `json:"stopId"`
	ETAs   []models.ETAEntry `json:"etas"`
	Count  int               `json:"count"`
}

// GetStops handles GET /api/stops
func (h *StopHandler) GetStops(w http.ResponseWriter, r *http.Request) {
	stops, err := h.repo.GetAllStops(r.Context())
	if err != nil {
		writeInternalError(w, "Failed to retrieve stops", err)
		return
	}

	writeCached(w, GetStopsResponse{Stops: stops, Count: len(stops)})
}

// GetPopularStops handles GET /api/stops/popular
// Each stop carries its next scheduled bus, if it has any
func (h *StopHandler) GetPopularStops(w http.ResponseWriter, r *http.Request) {
	stops, err := h.repo.GetPopularStops(r.Context())
	if err != nil {
		writeInternalError(w, "Failed to retrieve popular stops", err)
		return
	}

	writeCached(w, GetPopularStopsResponse{Stops: stops, Count: len(stops)})
}

// GetStopETAs handles GET /api/stops/{stopId}/etas
func (h *StopHandler) GetStopETAs(w http.ResponseWriter, r *http.Request) {
	stopID := chi.URLParam(r, "stopId")

	etas, err := h.repo.GetStopETAs(r.Context(), stopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Stop not found", map[string]interface{}{
				"stopId": stopID,
			})
			return
		}
		writeInternalError(w, "Failed to retrieve stop ETAs", err)
		return
	}

	writeCached(w, GetStopETAsResponse{StopID: stopID, ETAs: etas, Count: len(etas)})
}
