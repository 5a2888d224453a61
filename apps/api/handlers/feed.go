package handlers

import (
	"context"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// FleetLister returns the whole fleet
type FleetLister interface {
	GetAllBuses(ctx context.Context) ([]models.Bus, error)
}

// FeedHandler publishes the fleet as GTFS-Realtime
type FeedHandler struct {
	repo FleetLister
	now  func() time.Time
}

// NewFeedHandler creates a new handler with the given repository
func NewFeedHandler(repo FleetLister) *FeedHandler {
	return &FeedHandler{repo: repo, now: time.Now}
}

// BuildVehiclePositions converts the fleet into a full-dataset VehiclePositions feed.
// The route label is carried as the trip route id and the next stop as the vehicle label.
func BuildVehiclePositions(buses []models.Bus, at time.Time) *gtfs.FeedMessage {
	incrementality := gtfs.FeedHeader_FULL_DATASET
	ts := uint64(at.Unix())

	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      &incrementality,
			Timestamp:           proto.Uint64(ts),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(buses)),
	}

	for _, b := range buses {
		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id: proto.String(b.ID),
			Vehicle: &gtfs.VehiclePosition{
				Vehicle: &gtfs.VehicleDescriptor{
					Id:    proto.String(b.ID),
					Label: proto.String(b.NextStop),
				},
				Trip: &gtfs.TripDescriptor{
					RouteId: proto.String(b.Route),
				},
				Position: &gtfs.Position{
					Latitude:  proto.Float32(float32(b.Location.Lat)),
					Longitude: proto.Float32(float32(b.Location.Lng)),
				},
				Timestamp: proto.Uint64(ts),
			},
		})
	}

	return feed
}

// GetVehiclePositions handles GET /api/feeds/vehicle-positions.pb
func (h *FeedHandler) GetVehiclePositions(w http.ResponseWriter, r *http.Request) {
	buses, err := h.repo.GetAllBuses(r.Context())
	if err != nil {
		writeInternalError(w, "Failed to retrieve buses", err)
		return
	}

	data, err := proto.Marshal(BuildVehiclePositions(buses, h.now()))
	if err != nil {
		writeInternalError(w, "Failed to encode feed", err)
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.Header().Set("Cache-Control", "public, max-age=15")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
