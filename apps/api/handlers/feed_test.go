package handlers

import (
	"net/http"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

func TestGetVehiclePositions(t *testing.T) {
	h := NewFeedHandler(seedRepo(t))
	at := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return at }

	rec := do(t, http.HandlerFunc(h.GetVehiclePositions), http.MethodGet, "/api/feeds/vehicle-positions.pb", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-protobuf" {
		t.Errorf("unexpected content type: %s", ct)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(rec.Body.Bytes(), feed); err != nil {
		t.Fatalf("failed to decode feed: %v", err)
	}

	if feed.GetHeader().GetGtfsRealtimeVersion() != "2.0" {
		t.Errorf("unexpected version: %s", feed.GetHeader().GetGtfsRealtimeVersion())
	}
	if feed.GetHeader().GetIncrementality() != gtfs.FeedHeader_FULL_DATASET {
		t.Errorf("unexpected incrementality: %v", feed.GetHeader().GetIncrementality())
	}
	if feed.GetHeader().GetTimestamp() != uint64(at.Unix()) {
		t.Errorf("unexpected timestamp: %d", feed.GetHeader().GetTimestamp())
	}
	if len(feed.GetEntity()) != 4 {
		t.Fatalf("expected 4 entities, got %d", len(feed.GetEntity()))
	}

	first := feed.GetEntity()[0]
	vp := first.GetVehicle()
	if first.GetId() != "BUS-001" || vp.GetVehicle().GetId() != "BUS-001" {
		t.Errorf("unexpected first entity: %v", first)
	}
	if vp.GetTrip().GetRouteId() != "City Center → Airport" {
		t.Errorf("unexpected route id: %s", vp.GetTrip().GetRouteId())
	}
	if vp.GetPosition().GetLatitude() != float32(19.0760) || vp.GetPosition().GetLongitude() != float32(72.8777) {
		t.Errorf("unexpected position: %v", vp.GetPosition())
	}
}
