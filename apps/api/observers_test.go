package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
	"github.com/smarttransit/dashboard/apps/api/metrics"
	"github.com/smarttransit/dashboard/apps/api/models"
)

func scrape(t *testing.T, c *metrics.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	return string(body)
}

func TestEventObserver_WithoutPublisher(t *testing.T) {
	c := metrics.NewCollector(0)
	o := newEventObserver(c, nil)

	o.SelectionChanged("s1", dashboard.Transition{Action: "view", From: dashboard.ModeList, To: dashboard.ModeDetail, BusID: "BUS-001"})
	o.SelectionChanged("s1", dashboard.Transition{Action: "back", From: dashboard.ModeDetail, To: dashboard.ModeList})
	o.JourneySearched("s1", dashboard.JourneyResult{
		Pickup:   "Nowhere",
		Results:  []models.ETAEntry{{BusID: "BUS-003", Route: "Hospital → Beach", ETA: "14 min", IsClosest: true}},
		Fallback: true,
		Duration: time.Second,
	})
	o.JourneySearched("s1", dashboard.JourneyResult{Pickup: "Central", Err: context.Canceled})

	body := scrape(t, c)
	for _, want := range []string{
		`dashboard_selection_transitions_total{action="view"} 1`,
		`dashboard_selection_transitions_total{action="back"} 1`,
		`dashboard_journey_searches_total{outcome="fallback"} 1`,
		`dashboard_journey_searches_total{outcome="cancelled"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestWrapPublisherMetrics(t *testing.T) {
	if wrapPublisherMetrics(nil) != nil {
		t.Error("wrapPublisherMetrics(nil) should return nil")
	}

	c := metrics.NewCollector(0)
	m := wrapPublisherMetrics(c)
	m.NATSSetConnected(true)
	m.NATSPublishedInc()
	m.NATSPublishErrInc()

	body := scrape(t, c)
	for _, want := range []string{
		`dashboard_nats_connected 1`,
		`dashboard_nats_published_total 1`,
		`dashboard_nats_publish_errors_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
