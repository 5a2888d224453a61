package models

import "errors"

// Stop represents a bus stop in the stop registry
type Stop struct {
	ID          string      `json:"id" yaml:"id" validate:"required"`
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`

	// Route labels serving this stop, in display order
	Routes []string `json:"routes" yaml:"routes" validate:"dive,required"`
}

// Validate checks if the Stop model has valid data
func (s *Stop) Validate() error {
	return validate.Struct(s)
}

// ETAEntry is one scheduled bus at a stop.
// IsClosest marks the synthetic "closest available" entry returned when a
// journey search finds no direct bus.
type ETAEntry struct {
	BusID             string `json:"busId" yaml:"busId" validate:"required"`
	Route             string `json:"route" yaml:"route" validate:"required"`
	ETA               string `json:"eta" yaml:"eta"`
	TimeToDestination string `json:"timeToDestination" yaml:"timeToDestination"`
	IsClosest         bool   `json:"isClosest,omitempty" yaml:"isClosest,omitempty"`
}

// Validate checks if the ETAEntry model has valid data
func (e *ETAEntry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return err
	}
	if e.ETA == "" {
		return errors.New("eta is required")
	}
	return nil
}

// PopularStop is a stop with the first bus from its ETA list, if any
type PopularStop struct {
	Stop
	NextBus *ETAEntry `json:"nextBus,omitempty"`
}
