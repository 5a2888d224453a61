package handlers

import (
	"net/http"
	"time"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// RegistryStatus reports what the registries were loaded from
type RegistryStatus interface {
	Source() models.DataSource
	Counts() models.RegistryCounts
	LoadedAt() time.Time
}

// HealthHandler handles HTTP requests for service health
type HealthHandler struct {
	registry RegistryStatus
	sessions func() int
}

// NewHealthHandler creates a new handler. sessions may be nil.
func NewHealthHandler(registry RegistryStatus, sessions func() int) *HealthHandler {
	return &HealthHandler{registry: registry, sessions: sessions}
}

// GetHealth handles GET /health
// Responds 503 when no fleet was loaded, since every dashboard view would be empty
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	counts := h.registry.Counts()

	status := models.HealthStatus{
		Status:     "ok",
		Source:     h.registry.Source(),
		Registries: counts,
		LoadedAt:   h.registry.LoadedAt(),
		Timestamp:  time.Now().UTC(),
	}
	if h.sessions != nil {
		status.Sessions = h.sessions()
	}

	code := http.StatusOK
	if counts.Buses == 0 {
		status.Status = "empty"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, code, status)
}

// Liveness handles GET /healthz
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ping handles GET /api/ping
func Ping(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}
