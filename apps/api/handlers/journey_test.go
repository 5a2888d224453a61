package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
	"github.com/smarttransit/dashboard/apps/api/models"
)

func TestJourneySearch(t *testing.T) {
	m := &countingMetrics{}
	h := NewJourneyHandler(dashboard.NewJourneySearch(seedRepo(t), 0), m)

	tests := []struct {
		name     string
		path     string
		code     int
		fallback bool
		count    int
	}{
		{"central station", "/api/journey?pickup=Central", http.StatusOK, false, 2},
		{"unknown stop", "/api/journey?pickup=Nowhere", http.StatusOK, true, 1},
		{"empty pickup", "/api/journey?pickup=", http.StatusBadRequest, false, 0},
		{"blank pickup", "/api/journey?pickup=%20%20", http.StatusBadRequest, false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, http.HandlerFunc(h.Search), http.MethodGet, tc.path, "")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if tc.code != http.StatusOK {
				return
			}

			var resp JourneyResponse
			decode(t, rec, &resp)
			if resp.Fallback != tc.fallback || len(resp.Results) != tc.count {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}

	expected := []string{OutcomeMatched, OutcomeFallback, OutcomeRejected, OutcomeRejected}
	if len(m.outcomes) != len(expected) {
		t.Fatalf("unexpected outcomes: %v", m.outcomes)
	}
	for i := range expected {
		if m.outcomes[i] != expected[i] {
			t.Errorf("outcome %d = %s, expected %s", i, m.outcomes[i], expected[i])
		}
	}
}

func TestSearchOutcome(t *testing.T) {
	fallback := []models.ETAEntry{{BusID: "BUS-003", IsClosest: true}}
	matched := []models.ETAEntry{{BusID: "BUS-001"}, {BusID: "BUS-002"}}

	tests := []struct {
		name     string
		results  []models.ETAEntry
		err      error
		expected string
	}{
		{"matched", matched, nil, OutcomeMatched},
		{"fallback", fallback, nil, OutcomeFallback},
		{"empty pickup", nil, dashboard.ErrEmptyPickup, OutcomeRejected},
		{"in progress", nil, dashboard.ErrSearchInProgress, OutcomeRejected},
		{"cancelled", nil, errors.New("context canceled"), OutcomeCancelled},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SearchOutcome(tc.results, tc.err); got != tc.expected {
				t.Errorf("SearchOutcome = %s, expected %s", got, tc.expected)
			}
		})
	}
}
