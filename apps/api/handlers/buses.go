package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
	"github.com/smarttransit/dashboard/apps/api/models"
	"github.com/smarttransit/dashboard/apps/api/repository"
)

// BusRepository defines the interface for fleet registry operations
type BusRepository interface {
	GetAllBuses(ctx context.Context) ([]models.Bus, error)
	GetBusByID(ctx context.Context, busID string) (*models.Bus, error)
}

// BusHandler handles HTTP requests for fleet data
type BusHandler struct {
	repo    BusRepository
	metrics Metrics
}

// NewBusHandler creates a new handler with the given repository
func NewBusHandler(repo BusRepository, m Metrics) *BusHandler {
	return &BusHandler{repo: repo, metrics: orNoop(m)}
}

// GetBusesResponse is the JSON response structure for GET /api/buses
type GetBusesResponse struct {
	Buses       []models.Bus `json:"buses"`
	Count       int          `json:"count"`
	Query       string       `json:"query"`
	RouteFilter string       `json:"routeFilter"`
}

// FilterOptionsResponse is the JSON response structure for GET /api/buses/filters
type FilterOptionsResponse struct {
	Options []string `json:"options"`
}

// GetBuses handles GET /api/buses
// Filters the fleet by the q (id or route, case-insensitive) and route (origin) query parameters
func (h *BusHandler) GetBuses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	routeFilter := r.URL.Query().Get("route")
	if routeFilter == "" {
		routeFilter = dashboard.AllRoutes
	}

	buses, err := h.repo.GetAllBuses(r.Context())
	if err != nil {
		writeInternalError(w, "Failed to retrieve buses", err)
		return
	}

	visible := dashboard.Filter(buses, query, routeFilter)
	h.metrics.ObserveFilter(len(visible))

	writeCached(w, GetBusesResponse{
		Buses:       visible,
		Count:       len(visible),
		Query:       query,
		RouteFilter: routeFilter,
	})
}

// GetFilterOptions handles GET /api/buses/filters
func (h *BusHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	buses, err := h.repo.GetAllBuses(r.Context())
	if err != nil {
		writeInternalError(w, "Failed to retrieve buses", err)
		return
	}

	writeCached(w, FilterOptionsResponse{Options: dashboard.RouteFilterOptions(buses)})
}

// GetBusByID handles GET /api/buses/{busId}
func (h *BusHandler) GetBusByID(w http.ResponseWriter, r *http.Request) {
	busID := chi.URLParam(r, "busId")

	bus, err := h.repo.GetBusByID(r.Context(), busID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Bus not found", map[string]interface{}{
				"busId": busID,
			})
			return
		}
		writeInternalError(w, "Failed to retrieve bus", err)
		return
	}

	writeCached(w, bus)
}
