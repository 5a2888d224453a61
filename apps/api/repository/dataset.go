package repository

import (
	"errors"
	"fmt"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// ErrNotFound is returned when a record id is not in the registry
var ErrNotFound = errors.New("not found")

// Dataset is the full set of registries produced by a loader.
// Order of Buses, Routes and Stops is significant: filters and journey
// resolution walk them in registry order.
type Dataset struct {
	Buses  []models.Bus                 `yaml:"buses"`
	Routes []models.Route               `yaml:"routes"`
	Stops  []models.Stop                `yaml:"stops"`
	ETAs   map[string][]models.ETAEntry `yaml:"etas"`

	// Fallback is returned by journey search when no direct bus exists
	Fallback *models.ETAEntry `yaml:"fallback,omitempty"`
}

// DefaultFallback is the "closest available" entry used when a dataset does not define one
func DefaultFallback() models.ETAEntry {
	return models.ETAEntry{
		BusID:             "BUS-003",
		Route:             "Hospital → Beach",
		ETA:               "14 min",
		TimeToDestination: "35 min",
		IsClosest:         true,
	}
}

// FallbackEntry returns the dataset fallback, or DefaultFallback if unset.
// The result always has IsClosest set.
func (d *Dataset) FallbackEntry() models.ETAEntry {
	fb := DefaultFallback()
	if d.Fallback != nil {
		fb = *d.Fallback
	}
	fb.IsClosest = true
	return fb
}

// Counts returns the size of each registry
func (d *Dataset) Counts() models.RegistryCounts {
	c := models.RegistryCounts{
		Buses:  len(d.Buses),
		Routes: len(d.Routes),
		Stops:  len(d.Stops),
	}
	for _, entries := range d.ETAs {
		if len(entries) > 0 {
			c.ETAStops++
		}
	}
	return c
}

// Validate checks every record and the cross-registry references.
// ETA entries must reference an existing bus and be keyed by an existing stop.
func (d *Dataset) Validate() error {
	busIDs := make(map[string]struct{}, len(d.Buses))
	for i := range d.Buses {
		b := &d.Buses[i]
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bus %d (%s): %w", i, b.ID, err)
		}
		if _, dup := busIDs[b.ID]; dup {
			return fmt.Errorf("duplicate bus id: %s", b.ID)
		}
		busIDs[b.ID] = struct{}{}
	}

	routeIDs := make(map[string]struct{}, len(d.Routes))
	for i := range d.Routes {
		r := &d.Routes[i]
		if err := r.Validate(); err != nil {
			return fmt.Errorf("route %d (%s): %w", i, r.ID, err)
		}
		if _, dup := routeIDs[r.ID]; dup {
			return fmt.Errorf("duplicate route id: %s", r.ID)
		}
		routeIDs[r.ID] = struct{}{}
	}

	stopIDs := make(map[string]struct{}, len(d.Stops))
	for i := range d.Stops {
		s := &d.Stops[i]
		if err := s.Validate(); err != nil {
			return fmt.Errorf("stop %d (%s): %w", i, s.ID, err)
		}
		if _, dup := stopIDs[s.ID]; dup {
			return fmt.Errorf("duplicate stop id: %s", s.ID)
		}
		stopIDs[s.ID] = struct{}{}
	}

	for stopID, entries := range d.ETAs {
		if _, ok := stopIDs[stopID]; !ok {
			return fmt.Errorf("eta index references unknown stop %s", stopID)
		}
		for i := range entries {
			e := &entries[i]
			if err := e.Validate(); err != nil {
				return fmt.Errorf("eta %s[%d]: %w", stopID, i, err)
			}
			if _, ok := busIDs[e.BusID]; !ok {
				return fmt.Errorf("eta %s[%d] references unknown bus %s", stopID, i, e.BusID)
			}
		}
	}

	if d.Fallback != nil {
		if err := d.Fallback.Validate(); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	if len(d.Buses) > 0 {
		fb := d.FallbackEntry()
		if _, ok := busIDs[fb.BusID]; !ok {
			return fmt.Errorf("fallback references unknown bus %s", fb.BusID)
		}
	}

	return nil
}

// Clone returns a deep copy so callers can never alias registry storage
func (d *Dataset) Clone() Dataset {
	out := Dataset{
		Buses:  append([]models.Bus(nil), d.Buses...),
		Routes: append([]models.Route(nil), d.Routes...),
		Stops:  cloneStops(d.Stops),
		ETAs:   make(map[string][]models.ETAEntry, len(d.ETAs)),
	}
	for stopID, entries := range d.ETAs {
		out.ETAs[stopID] = append([]models.ETAEntry(nil), entries...)
	}
	if d.Fallback != nil {
		fb := *d.Fallback
		out.Fallback = &fb
	}
	return out
}

func cloneStops(stops []models.Stop) []models.Stop {
	if stops == nil {
		return nil
	}
	out := make([]models.Stop, len(stops))
	for i, s := range stops {
		s.Routes = append([]string(nil), s.Routes...)
		out[i] = s
	}
	return out
}
