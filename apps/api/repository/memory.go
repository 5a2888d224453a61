package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// MemoryRepository serves the registries from memory.
// It is immutable after construction and safe for any number of concurrent readers;
// every accessor returns a copy.
type MemoryRepository struct {
	data     Dataset
	source   models.DataSource
	loadedAt time.Time

	busIndex   map[string]int
	routeIndex map[string]int
	stopIndex  map[string]int
}

// NewMemoryRepository validates the dataset and takes a private copy of it
func NewMemoryRepository(ds Dataset, source models.DataSource) (*MemoryRepository, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	data := ds.Clone()
	if data.ETAs == nil {
		data.ETAs = map[string][]models.ETAEntry{}
	}
	fb := ds.FallbackEntry()
	data.Fallback = &fb

	r := &MemoryRepository{
		data:       data,
		source:     source,
		loadedAt:   time.Now().UTC(),
		busIndex:   make(map[string]int, len(data.Buses)),
		routeIndex: make(map[string]int, len(data.Routes)),
		stopIndex:  make(map[string]int, len(data.Stops)),
	}
	for i, b := range data.Buses {
		r.busIndex[b.ID] = i
	}
	for i, rt := range data.Routes {
		r.routeIndex[rt.ID] = i
	}
	for i, s := range data.Stops {
		r.stopIndex[s.ID] = i
	}
	return r, nil
}

// Source returns where the dataset was loaded from
func (r *MemoryRepository) Source() models.DataSource { return r.source }

// LoadedAt returns when the registries were built
func (r *MemoryRepository) LoadedAt() time.Time { return r.loadedAt }

// Counts returns the size of each registry
func (r *MemoryRepository) Counts() models.RegistryCounts { return r.data.Counts() }

// Buses returns the fleet in registry order
func (r *MemoryRepository) Buses() []models.Bus {
	return append([]models.Bus{}, r.data.Buses...)
}

// Routes returns the route registry in order
func (r *MemoryRepository) Routes() []models.Route {
	return append([]models.Route{}, r.data.Routes...)
}

// Stops returns the stop registry in order
func (r *MemoryRepository) Stops() []models.Stop {
	out := cloneStops(r.data.Stops)
	if out == nil {
		out = []models.Stop{}
	}
	return out
}

// ETAIndex returns a copy of the stop id -> ETA entries mapping
func (r *MemoryRepository) ETAIndex() map[string][]models.ETAEntry {
	out := make(map[string][]models.ETAEntry, len(r.data.ETAs))
	for stopID, entries := range r.data.ETAs {
		out[stopID] = append([]models.ETAEntry(nil), entries...)
	}
	return out
}

// Fallback returns the "closest available" journey result
func (r *MemoryRepository) Fallback() models.ETAEntry { return *r.data.Fallback }

// GetAllBuses returns the whole fleet
func (r *MemoryRepository) GetAllBuses(ctx context.Context) ([]models.Bus, error) {
	return r.Buses(), nil
}

// GetBusByID returns a single bus by its id
func (r *MemoryRepository) GetBusByID(ctx context.Context, busID string) (*models.Bus, error) {
	i, ok := r.busIndex[busID]
	if !ok {
		return nil, fmt.Errorf("bus %s: %w", busID, ErrNotFound)
	}
	b := r.data.Buses[i]
	return &b, nil
}

// GetAllRoutes returns every route
func (r *MemoryRepository) GetAllRoutes(ctx context.Context) ([]models.Route, error) {
	return r.Routes(), nil
}

// GetRouteByID returns a single route by its id
func (r *MemoryRepository) GetRouteByID(ctx context.Context, routeID string) (*models.Route, error) {
	i, ok := r.routeIndex[routeID]
	if !ok {
		return nil, fmt.Errorf("route %s: %w", routeID, ErrNotFound)
	}
	rt := r.data.Routes[i]
	return &rt, nil
}

// GetAllStops returns every stop
func (r *MemoryRepository) GetAllStops(ctx context.Context) ([]models.Stop, error) {
	return r.Stops(), nil
}

// GetStopByID returns a single stop by its id
func (r *MemoryRepository) GetStopByID(ctx context.Context, stopID string) (*models.Stop, error) {
	i, ok := r.stopIndex[stopID]
	if !ok {
		return nil, fmt.Errorf("stop %s: %w", stopID, ErrNotFound)
	}
	s := r.data.Stops[i]
	s.Routes = append([]string(nil), s.Routes...)
	return &s, nil
}

// GetStopETAs returns the scheduled buses of a stop.
// A known stop without schedule data yields an empty list, an unknown stop ErrNotFound.
func (r *MemoryRepository) GetStopETAs(ctx context.Context, stopID string) ([]models.ETAEntry, error) {
	if _, ok := r.stopIndex[stopID]; !ok {
		return nil, fmt.Errorf("stop %s: %w", stopID, ErrNotFound)
	}
	return append([]models.ETAEntry{}, r.data.ETAs[stopID]...), nil
}

// PopularStops returns every stop with its next scheduled bus
func (r *MemoryRepository) PopularStops() []models.PopularStop {
	stops := r.Stops()
	out := make([]models.PopularStop, 0, len(stops))
	for _, s := range stops {
		ps := models.PopularStop{Stop: s}
		if entries := r.data.ETAs[s.ID]; len(entries) > 0 {
			next := entries[0]
			ps.NextBus = &next
		}
		out = append(out, ps)
	}
	return out
}

// GetPopularStops returns every stop with its next scheduled bus
func (r *MemoryRepository) GetPopularStops(ctx context.Context) ([]models.PopularStop, error) {
	return r.PopularStops(), nil
}
