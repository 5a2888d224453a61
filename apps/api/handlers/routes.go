package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smarttransit/dashboard/apps/api/models"
	"github.com/smarttransit/dashboard/apps/api/repository"
)

// RouteRepository defines the interface for route registry operations
type RouteRepository interface {
	GetAllRoutes(ctx context.Context) ([]models.Route, error)
	GetRouteByID(ctx context.Context, routeID string) (*models.Route, error)
}

// RouteHandler handles HTTP requests for route data
type RouteHandler struct {
	repo RouteRepository
}

// NewRouteHandler creates a new handler with the given repository
func NewRouteHandler(repo RouteRepository) *RouteHandler {
	return &RouteHandler{repo: repo}
}

// GetRoutesResponse is the JSON response structure for GET /api/routes
type GetRoutesResponse struct {
	Routes []models.RouteCard `json:"routes"`
	Count  int                `json:"count"`
}

// GetRoutes handles GET /api/routes
func (h *RouteHandler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.repo.GetAllRoutes(r.Context())
	if err != nil {
		writeInternalError(w, "Failed to retrieve routes", err)
		return
	}

	cards := make([]models.RouteCard, 0, len(routes))
	for i := range routes {
		cards = append(cards, routes[i].ToRouteCard())
	}

	writeCached(w, GetRoutesResponse{Routes: cards, Count: len(cards)})
}

// GetRouteByID handles GET /api/routes/{routeId}
func (h *RouteHandler) GetRouteByID(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")

	route, err := h.repo.GetRouteByID(r.Context(), routeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Route not found", map[string]interface{}{
				"routeId": routeID,
			})
			return
		}
		writeInternalError(w, "Failed to retrieve route", err)
		return
	}

	writeCached(w, route.ToRouteCard())
}
