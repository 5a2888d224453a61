package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/smarttransit/dashboard/apps/api/models"
)

func newSeedRepository(t *testing.T) *MemoryRepository {
	t.Helper()
	repo, err := NewMemoryRepository(SeedDataset(), models.SourceBuiltin)
	if err != nil {
		t.Fatalf("NewMemoryRepository failed: %v", err)
	}
	return repo
}

func TestMemoryRepository_RejectsInvalidDataset(t *testing.T) {
	ds := SeedDataset()
	ds.ETAs["ST-001"][0].BusID = "BUS-999"

	if _, err := NewMemoryRepository(ds, models.SourceBuiltin); err == nil {
		t.Fatal("expected error for dangling bus reference")
	}
}

func TestMemoryRepository_AccessorsReturnCopies(t *testing.T) {
	repo := newSeedRepository(t)

	buses := repo.Buses()
	buses[0].ID = "MUTATED"
	if repo.Buses()[0].ID != "BUS-001" {
		t.Error("Buses() exposes registry storage")
	}

	stops := repo.Stops()
	stops[0].Routes[0] = "MUTATED"
	if repo.Stops()[0].Routes[0] != "City Center → Airport" {
		t.Error("Stops() exposes stop route storage")
	}

	idx := repo.ETAIndex()
	idx["ST-001"][0].ETA = "MUTATED"
	if repo.ETAIndex()["ST-001"][0].ETA != "3 min" {
		t.Error("ETAIndex() exposes eta storage")
	}
}

func TestMemoryRepository_DoesNotAliasInput(t *testing.T) {
	ds := SeedDataset()
	repo, err := NewMemoryRepository(ds, models.SourceBuiltin)
	if err != nil {
		t.Fatalf("NewMemoryRepository failed: %v", err)
	}

	ds.Buses[0].Route = "Changed → Later"
	if repo.Buses()[0].Route != "City Center → Airport" {
		t.Error("repository shares storage with the input dataset")
	}
}

func TestMemoryRepository_GetBusByID(t *testing.T) {
	repo := newSeedRepository(t)
	ctx := context.Background()

	bus, err := repo.GetBusByID(ctx, "BUS-003")
	if err != nil {
		t.Fatalf("GetBusByID failed: %v", err)
	}
	if bus.NextStop != "Marine Drive" {
		t.Errorf("expected next stop Marine Drive, got %s", bus.NextStop)
	}

	_, err = repo.GetBusByID(ctx, "BUS-999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_GetRouteByID(t *testing.T) {
	repo := newSeedRepository(t)
	ctx := context.Background()

	route, err := repo.GetRouteByID(ctx, "RT-D")
	if err != nil {
		t.Fatalf("GetRouteByID failed: %v", err)
	}
	if route.Status != models.RouteMaintenance {
		t.Errorf("expected RT-D under maintenance, got %s", route.Status)
	}

	if _, err := repo.GetRouteByID(ctx, "RT-Z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_GetStopETAs(t *testing.T) {
	repo := newSeedRepository(t)
	ctx := context.Background()

	entries, err := repo.GetStopETAs(ctx, "ST-001")
	if err != nil {
		t.Fatalf("GetStopETAs failed: %v", err)
	}
	if len(entries) != 2 || entries[0].BusID != "BUS-001" || entries[1].BusID != "BUS-002" {
		t.Errorf("unexpected ST-001 entries: %+v", entries)
	}

	entries, err = repo.GetStopETAs(ctx, "ST-005")
	if err != nil {
		t.Fatalf("GetStopETAs(ST-005) failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil list for stop without schedule, got %#v", entries)
	}

	if _, err := repo.GetStopETAs(ctx, "ST-999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_GetPopularStops(t *testing.T) {
	repo := newSeedRepository(t)

	popular, err := repo.GetPopularStops(context.Background())
	if err != nil {
		t.Fatalf("GetPopularStops failed: %v", err)
	}
	if len(popular) != 6 {
		t.Fatalf("expected 6 popular stops, got %d", len(popular))
	}

	if popular[0].NextBus == nil || popular[0].NextBus.BusID != "BUS-001" || popular[0].NextBus.ETA != "3 min" {
		t.Errorf("unexpected next bus for Central Station: %+v", popular[0].NextBus)
	}
	if popular[4].ID != "ST-005" || popular[4].NextBus != nil {
		t.Errorf("Shopping Mall should have no next bus: %+v", popular[4])
	}
}

func TestMemoryRepository_Fallback(t *testing.T) {
	ds := SeedDataset()
	ds.Fallback = nil

	repo, err := NewMemoryRepository(ds, models.SourceBuiltin)
	if err != nil {
		t.Fatalf("NewMemoryRepository failed: %v", err)
	}
	fb := repo.Fallback()
	if fb.BusID != "BUS-003" || !fb.IsClosest {
		t.Errorf("unexpected fallback: %+v", fb)
	}
}
