package repository

import "github.com/smarttransit/dashboard/apps/api/models"

// SeedDataset returns the builtin passenger dashboard data.
// Every call returns fresh slices.
func SeedDataset() Dataset {
	fallback := DefaultFallback()
	return Dataset{
		Buses: []models.Bus{
			{
				ID:                "BUS-001",
				Route:             "City Center → Airport",
				Location:          models.Coordinates{Lat: 19.0760, Lng: 72.8777},
				ETA:               "5 min",
				TimeToDestination: "25 min",
				NextStop:          "Central Station",
			},
			{
				ID:                "BUS-002",
				Route:             "University → Mall",
				Location:          models.Coordinates{Lat: 19.0896, Lng: 72.8656},
				ETA:               "12 min",
				TimeToDestination: "18 min",
				NextStop:          "Tech Park",
			},
			{
				ID:                "BUS-003",
				Route:             "Hospital → Beach",
				Location:          models.Coordinates{Lat: 19.0544, Lng: 72.8906},
				ETA:               "8 min",
				TimeToDestination: "32 min",
				NextStop:          "Marine Drive",
			},
			{
				ID:                "BUS-004",
				Route:             "Railway → Tech Park",
				Location:          models.Coordinates{Lat: 19.0825, Lng: 72.8811},
				ETA:               "15 min",
				TimeToDestination: "28 min",
				NextStop:          "Downtown",
			},
		},
		Routes: []models.Route{
			{ID: "RT-A", Name: "Route A", StartPoint: "City Center", EndPoint: "Airport Terminal", TotalStops: 12, ActiveBuses: 2, AvgTime: "45 min", Status: models.RouteActive},
			{ID: "RT-B", Name: "Route B", StartPoint: "University Campus", EndPoint: "Shopping Mall", TotalStops: 8, ActiveBuses: 1, AvgTime: "30 min", Status: models.RouteActive},
			{ID: "RT-C", Name: "Route C", StartPoint: "General Hospital", EndPoint: "Marine Drive", TotalStops: 10, ActiveBuses: 1, AvgTime: "35 min", Status: models.RouteActive},
			{ID: "RT-D", Name: "Route D", StartPoint: "Railway Station", EndPoint: "Tech Park", TotalStops: 15, ActiveBuses: 0, AvgTime: "55 min", Status: models.RouteMaintenance},
		},
		Stops: []models.Stop{
			{ID: "ST-001", Name: "Central Station", Coordinates: models.Coordinates{Lat: 19.0760, Lng: 72.8777}, Routes: []string{"City Center → Airport", "University → Mall"}},
			{ID: "ST-002", Name: "Tech Park", Coordinates: models.Coordinates{Lat: 19.0896, Lng: 72.8656}, Routes: []string{"University → Mall", "Railway → Tech Park"}},
			{ID: "ST-003", Name: "Marine Drive", Coordinates: models.Coordinates{Lat: 19.0544, Lng: 72.8906}, Routes: []string{"Hospital → Beach"}},
			{ID: "ST-004", Name: "Airport Terminal", Coordinates: models.Coordinates{Lat: 19.0825, Lng: 72.8811}, Routes: []string{"City Center → Airport"}},
			{ID: "ST-005", Name: "Shopping Mall", Coordinates: models.Coordinates{Lat: 19.0734, Lng: 72.8645}, Routes: []string{"University → Mall"}},
			{ID: "ST-006", Name: "University Campus", Coordinates: models.Coordinates{Lat: 19.0912, Lng: 72.8734}, Routes: []string{"University → Mall", "Railway → Tech Park"}},
		},
		// ST-005 and ST-006 have no scheduled buses; searches there fall back
		ETAs: map[string][]models.ETAEntry{
			"ST-001": {
				{BusID: "BUS-001", Route: "City Center → Airport", ETA: "3 min", TimeToDestination: "28 min"},
				{BusID: "BUS-002", Route: "University → Mall", ETA: "8 min", TimeToDestination: "15 min"},
			},
			"ST-002": {
				{BusID: "BUS-002", Route: "University → Mall", ETA: "5 min", TimeToDestination: "18 min"},
			},
			"ST-003": {
				{BusID: "BUS-003", Route: "Hospital → Beach", ETA: "12 min", TimeToDestination: "32 min"},
			},
			"ST-004": {
				{BusID: "BUS-001", Route: "City Center → Airport", ETA: "18 min", TimeToDestination: "25 min"},
			},
		},
		Fallback: &fallback,
	}
}
