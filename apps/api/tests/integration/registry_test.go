package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smarttransit/dashboard/apps/api/models"
	"github.com/smarttransit/dashboard/apps/api/repository"
)

func setupTestRepository(t *testing.T) *repository.PostgresRepository {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.NewPostgresRepository(ctx, databaseURL)
	if err != nil {
		t.Fatalf("Failed to create test repository: %v", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	return repo
}

func TestPostgresDatasetRoundTrip(t *testing.T) {
	repo := setupTestRepository(t)
	defer repo.Close()

	ctx := context.Background()
	seed := repository.SeedDataset()

	if err := repo.ReplaceDataset(ctx, seed); err != nil {
		t.Fatalf("ReplaceDataset failed: %v", err)
	}

	got, err := repo.LoadDataset(ctx)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}

	if got.Counts() != seed.Counts() {
		t.Fatalf("Counts = %+v, want %+v", got.Counts(), seed.Counts())
	}

	// Registry order must survive the round trip
	for i, b := range seed.Buses {
		if got.Buses[i] != b {
			t.Errorf("Buses[%d] = %+v, want %+v", i, got.Buses[i], b)
		}
	}
	for i, r := range seed.Routes {
		if got.Routes[i] != r {
			t.Errorf("Routes[%d] = %+v, want %+v", i, got.Routes[i], r)
		}
	}
	for i, s := range seed.Stops {
		if got.Stops[i].ID != s.ID || len(got.Stops[i].Routes) != len(s.Routes) {
			t.Errorf("Stops[%d] = %+v, want %+v", i, got.Stops[i], s)
		}
	}
	for stopID, entries := range seed.ETAs {
		if len(got.ETAs[stopID]) != len(entries) {
			t.Errorf("ETAs[%s] has %d entries, want %d", stopID, len(got.ETAs[stopID]), len(entries))
			continue
		}
		if got.ETAs[stopID][0].BusID != entries[0].BusID {
			t.Errorf("ETAs[%s][0].BusID = %s, want %s", stopID, got.ETAs[stopID][0].BusID, entries[0].BusID)
		}
	}

	if got.FallbackEntry() != seed.FallbackEntry() {
		t.Errorf("FallbackEntry = %+v, want %+v", got.FallbackEntry(), seed.FallbackEntry())
	}

	t.Logf("Round-tripped %d buses, %d routes, %d stops", len(got.Buses), len(got.Routes), len(got.Stops))
}

func TestOpenPostgresSource(t *testing.T) {
	repo := setupTestRepository(t)
	defer repo.Close()

	ctx := context.Background()
	if err := repo.ReplaceDataset(ctx, repository.SeedDataset()); err != nil {
		t.Fatalf("ReplaceDataset failed: %v", err)
	}

	mem, err := repository.Open(ctx, repository.LoadOptions{
		Source:      models.SourcePostgres,
		DatabaseURL: os.Getenv("DATABASE_URL"),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if mem.Source() != models.SourcePostgres {
		t.Errorf("Source = %s, want %s", mem.Source(), models.SourcePostgres)
	}

	bus, err := mem.GetBusByID(ctx, "BUS-001")
	if err != nil {
		t.Fatalf("GetBusByID failed: %v", err)
	}
	if bus.ID != "BUS-001" {
		t.Errorf("bus.ID = %s, want BUS-001", bus.ID)
	}
}
