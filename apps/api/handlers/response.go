package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Metrics receives handler-level observations; a nil Metrics is allowed
type Metrics interface {
	ObserveFilter(matches int)
	ObserveSearch(outcome string, d time.Duration)
	SessionCreated()
}

type noopMetrics struct{}

func (noopMetrics) ObserveFilter(int)                  {}
func (noopMetrics) ObserveSearch(string, time.Duration) {}
func (noopMetrics) SessionCreated()                     {}

func orNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// registryCacheControl is used for responses built only from the immutable registries
const registryCacheControl = "public, max-age=300, stale-while-revalidate=60"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

func writeInternalError(w http.ResponseWriter, msg string, err error) {
	writeError(w, http.StatusInternalServerError, msg, map[string]interface{}{
		"internal": err.Error(),
	})
}

func writeCached(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Cache-Control", registryCacheControl)
	w.Header().Set("Vary", "Accept-Encoding")
	writeJSON(w, http.StatusOK, v)
}
