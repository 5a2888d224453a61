package models

// RouteStatus is the operating state of a route
type RouteStatus string

const (
	RouteActive      RouteStatus = "active"
	RouteInactive    RouteStatus = "inactive"
	RouteMaintenance RouteStatus = "maintenance"
)

// MaintenanceNote is shown for routes that are under maintenance
const MaintenanceNote = "Route temporarily unavailable for maintenance"

// Label returns the display text for a status
func (s RouteStatus) Label() string {
	switch s {
	case RouteActive:
		return "Active"
	case RouteInactive:
		return "Inactive"
	case RouteMaintenance:
		return "Maintenance"
	default:
		return "Unknown"
	}
}

// Route represents a service line in the route registry
type Route struct {
	ID         string `json:"id" yaml:"id" validate:"required"`
	Name       string `json:"name" yaml:"name" validate:"required"`
	StartPoint string `json:"startPoint" yaml:"startPoint"`
	EndPoint   string `json:"endPoint" yaml:"endPoint"`

	TotalStops  int    `json:"totalStops" yaml:"totalStops" validate:"gte=0"`
	ActiveBuses int    `json:"activeBuses" yaml:"activeBuses" validate:"gte=0"`
	AvgTime     string `json:"avgTime" yaml:"avgTime"`

	Status RouteStatus `json:"status" yaml:"status" validate:"oneof=active inactive maintenance"`
}

// Validate checks if the Route model has valid data
func (r *Route) Validate() error {
	return validate.Struct(r)
}

// RouteCard is the routes tab presentation of a Route
type RouteCard struct {
	Route
	StatusLabel string `json:"statusLabel"`
	Note        string `json:"note,omitempty"`
}

// ToRouteCard adds the display fields derived from the route status
func (r *Route) ToRouteCard() RouteCard {
	card := RouteCard{
		Route:       *r,
		StatusLabel: r.Status.Label(),
	}
	if r.Status == RouteMaintenance {
		card.Note = MaintenanceNote
	}
	return card
}
