package models

import (
	"errors"
	"strings"
)

// RouteSeparator joins the origin and destination of a route label ("City Center → Airport")
const RouteSeparator = " → "

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`
}

// Bus represents a single fleet vehicle as shown on the passenger dashboard.
// Records are seed data and never change for the lifetime of the process.
type Bus struct {
	// Primary identifier ("BUS-001")
	ID string `json:"id" yaml:"id" validate:"required"`

	// Free-text route label, origin and destination joined by RouteSeparator
	Route string `json:"route" yaml:"route" validate:"required"`

	// Last known position
	Location Coordinates `json:"currentLocation" yaml:"location"`

	// Free-text durations ("5 min")
	ETA               string `json:"eta" yaml:"eta"`
	TimeToDestination string `json:"timeToDestination" yaml:"timeToDestination"`

	NextStop string `json:"nextStop" yaml:"nextStop"`
}

// Validate checks if the Bus model has valid data
func (b *Bus) Validate() error {
	if err := validate.Struct(b); err != nil {
		return err
	}

	// Labels without an origin cannot be offered as a route filter
	if strings.TrimSpace(RouteOrigin(b.Route)) == "" {
		return errors.New("route must start with an origin label")
	}

	return nil
}

// RouteOrigin returns the origin part of a route label ("City Center → Airport" -> "City Center").
// Labels without a separator are returned unchanged.
func RouteOrigin(label string) string {
	origin, _, _ := strings.Cut(label, RouteSeparator)
	return origin
}
