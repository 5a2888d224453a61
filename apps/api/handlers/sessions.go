package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
)

// SessionHandler exposes per-client dashboard state: tabs, filters, the
// selection state machine and the journey planner
type SessionHandler struct {
	// ctx bounds background journey searches; it is cancelled on shutdown
	ctx     context.Context
	dash    *dashboard.Dashboard
	metrics Metrics
}

// NewSessionHandler creates a new handler. Searches started through it stop when ctx is done.
func NewSessionHandler(ctx context.Context, dash *dashboard.Dashboard, m Metrics) *SessionHandler {
	return &SessionHandler{ctx: ctx, dash: dash, metrics: orNoop(m)}
}

// Routes mounts the session endpoints on r
func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateSession)
	r.Route("/{sessionId}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Get("/view", h.GetView)
		r.Put("/tab", h.SetTab)
		r.Put("/filter", h.SetFilter)

		r.Post("/selection/view", h.ViewBus)
		r.Post("/selection/select", h.SelectBus)
		r.Post("/selection/back", h.Back)

		r.Get("/journey", h.GetJourney)
		r.Put("/journey", h.UpdateJourney)
		r.Post("/journey/search", h.StartSearch)
		r.Post("/journey/stops", h.AddStop)
		r.Put("/journey/stops/{index}", h.UpdateStop)
		r.Delete("/journey/stops/{index}", h.RemoveStop)
	})
}

// SetTabRequest is the body of PUT /api/sessions/{sessionId}/tab
type SetTabRequest struct {
	Tab string `json:"tab"`
}

// SetFilterRequest is the body of PUT /api/sessions/{sessionId}/filter
type SetFilterRequest struct {
	Query       string `json:"query"`
	RouteFilter string `json:"routeFilter"`
}

// BusRequest is the body of the selection endpoints
type BusRequest struct {
	BusID string `json:"busId"`
}

// UpdateJourneyRequest is the body of PUT /api/sessions/{sessionId}/journey.
// Omitted fields are left unchanged.
type UpdateJourneyRequest struct {
	Pickup      *string `json:"pickup"`
	Destination *string `json:"destination"`
}

// StopRequest is the body of the intermediate stop endpoints
type StopRequest struct {
	Name string `json:"name"`
}

// AddStopResponse is returned by POST /api/sessions/{sessionId}/journey/stops
type AddStopResponse struct {
	Index   int                    `json:"index"`
	Planner dashboard.PlannerState `json:"planner"`
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.dash.NewSession()
	if err != nil {
		writeInternalError(w, "Failed to create session", err)
		return
	}
	h.metrics.SessionCreated()

	w.Header().Set("Location", "/api/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, s.State())
}

// GetSession handles GET /api/sessions/{sessionId}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// DeleteSession handles DELETE /api/sessions/{sessionId}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if !h.dash.Sessions().Delete(id) {
		writeSessionNotFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetView handles GET /api/sessions/{sessionId}/view
func (h *SessionHandler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeView(w, s)
}

// SetTab handles PUT /api/sessions/{sessionId}/tab
func (h *SessionHandler) SetTab(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SetTabRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tab, err := dashboard.ParseTab(req.Tab)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown tab", map[string]interface{}{
			"tab":     req.Tab,
			"allowed": dashboard.Tabs(),
		})
		return
	}

	s.SetTab(tab)
	h.writeView(w, s)
}

// SetFilter handles PUT /api/sessions/{sessionId}/filter
func (h *SessionHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SetFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.SetFilter(req.Query, req.RouteFilter)
	h.writeView(w, s)
}

// ViewBus handles POST /api/sessions/{sessionId}/selection/view
func (h *SessionHandler) ViewBus(w http.ResponseWriter, r *http.Request) {
	h.changeSelection(w, r, h.dash.ViewBus)
}

// SelectBus handles POST /api/sessions/{sessionId}/selection/select
func (h *SessionHandler) SelectBus(w http.ResponseWriter, r *http.Request) {
	h.changeSelection(w, r, h.dash.SelectBus)
}

// Back handles POST /api/sessions/{sessionId}/selection/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dash.Back(s)
	writeJSON(w, http.StatusOK, s.Selection.State())
}

func (h *SessionHandler) changeSelection(w http.ResponseWriter, r *http.Request, apply func(*dashboard.Session, string) (dashboard.Transition, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req BusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BusID == "" {
		writeError(w, http.StatusBadRequest, "busId is required", nil)
		return
	}

	if _, err := apply(s, req.BusID); err != nil {
		if errors.Is(err, dashboard.ErrUnknownBus) {
			writeError(w, http.StatusNotFound, "Bus not found", map[string]interface{}{
				"busId": req.BusID,
			})
			return
		}
		writeInternalError(w, "Failed to change selection", err)
		return
	}

	writeJSON(w, http.StatusOK, s.Selection.State())
}

// GetJourney handles GET /api/sessions/{sessionId}/journey
func (h *SessionHandler) GetJourney(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.Planner.Snapshot())
}

// UpdateJourney handles PUT /api/sessions/{sessionId}/journey
func (h *SessionHandler) UpdateJourney(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req UpdateJourneyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Pickup != nil {
		s.Planner.SetPickup(*req.Pickup)
	}
	if req.Destination != nil {
		s.Planner.SetDestination(*req.Destination)
	}

	writeJSON(w, http.StatusOK, s.Planner.Snapshot())
}

// StartSearch handles POST /api/sessions/{sessionId}/journey/search
// The search runs in the background; poll GET .../journey until searching is false.
func (h *SessionHandler) StartSearch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := s.Planner.Start(h.ctx); err != nil {
		h.metrics.ObserveSearch(SearchOutcome(nil, err), 0)
		switch {
		case errors.Is(err, dashboard.ErrEmptyPickup):
			writeError(w, http.StatusBadRequest, "Pickup point is required", nil)
		case errors.Is(err, dashboard.ErrSearchInProgress):
			writeError(w, http.StatusConflict, "Journey search already in progress", nil)
		default:
			writeInternalError(w, "Failed to start journey search", err)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, s.Planner.Snapshot())
}

// AddStop handles POST /api/sessions/{sessionId}/journey/stops
func (h *SessionHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req StopRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	i := s.Planner.AddStop(req.Name)
	writeJSON(w, http.StatusCreated, AddStopResponse{Index: i, Planner: s.Planner.Snapshot()})
}

// UpdateStop handles PUT /api/sessions/{sessionId}/journey/stops/{index}
func (h *SessionHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, ok := stopIndex(w, r)
	if !ok {
		return
	}

	var req StopRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.Planner.UpdateStop(i, req.Name); err != nil {
		writeStopIndexError(w, i, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Planner.Snapshot())
}

// RemoveStop handles DELETE /api/sessions/{sessionId}/journey/stops/{index}
func (h *SessionHandler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, ok := stopIndex(w, r)
	if !ok {
		return
	}

	if err := s.Planner.RemoveStop(i); err != nil {
		writeStopIndexError(w, i, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Planner.Snapshot())
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	id := chi.URLParam(r, "sessionId")
	s, err := h.dash.Session(id)
	if err != nil {
		if errors.Is(err, dashboard.ErrSessionNotFound) {
			writeSessionNotFound(w, id)
			return nil, false
		}
		writeInternalError(w, "Failed to load session", err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeView(w http.ResponseWriter, s *dashboard.Session) {
	v := h.dash.View(s)
	if list, ok := v.(dashboard.ListView); ok {
		h.metrics.ObserveFilter(len(list.Buses))
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dashboard.NewEnvelope(v))
}

func writeSessionNotFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, "Session not found", map[string]interface{}{
		"sessionId": id,
	})
}

func writeStopIndexError(w http.ResponseWriter, i int, err error) {
	if errors.Is(err, dashboard.ErrStopIndex) {
		writeError(w, http.StatusNotFound, "Intermediate stop not found", map[string]interface{}{
			"index": i,
		})
		return
	}
	writeInternalError(w, "Failed to change intermediate stop", err)
}

func stopIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer", map[string]interface{}{
			"index": raw,
		})
		return 0, false
	}
	return i, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", map[string]interface{}{
			"internal": err.Error(),
		})
		return false
	}
	return true
}
