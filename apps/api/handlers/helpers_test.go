package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
	"github.com/smarttransit/dashboard/apps/api/models"
	"github.com/smarttransit/dashboard/apps/api/repository"
)

type countingMetrics struct {
	filters  int
	outcomes []string
	sessions int
}

func (m *countingMetrics) ObserveFilter(int) { m.filters++ }
func (m *countingMetrics) ObserveSearch(outcome string, d time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}
func (m *countingMetrics) SessionCreated() { m.sessions++ }

func seedRepo(t *testing.T) *repository.MemoryRepository {
	t.Helper()
	repo, err := repository.NewMemoryRepository(repository.SeedDataset(), models.SourceBuiltin)
	if err != nil {
		t.Fatalf("failed to build seed repository: %v", err)
	}
	return repo
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func newSessionRouter(t *testing.T, latency time.Duration, m Metrics) (http.Handler, *dashboard.Dashboard) {
	t.Helper()
	repo := seedRepo(t)
	dash := dashboard.New(repo, dashboard.NewJourneySearch(repo, latency), dashboard.NewSessionStore(16, time.Hour), nil)

	r := chi.NewRouter()
	r.Route("/api/sessions", NewSessionHandler(testContext(t), dash, m).Routes)
	return r, dash
}

// testContext mirrors testing.T.Context (Go 1.24+): the context is canceled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
