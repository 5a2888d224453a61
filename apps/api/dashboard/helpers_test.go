package dashboard

import (
	"context"
	"testing"

	"github.com/smarttransit/dashboard/apps/api/models"
	"github.com/smarttransit/dashboard/apps/api/repository"
)

func seedRegistry(t *testing.T) *repository.MemoryRepository {
	t.Helper()
	repo, err := repository.NewMemoryRepository(repository.SeedDataset(), models.SourceBuiltin)
	if err != nil {
		t.Fatalf("failed to build seed registry: %v", err)
	}
	return repo
}

func busIDs(buses []models.Bus) []string {
	ids := make([]string, len(buses))
	for i, b := range buses {
		ids[i] = b.ID
	}
	return ids
}

func seedBus(t *testing.T, id string) models.Bus {
	t.Helper()
	for _, b := range repository.SeedDataset().Buses {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("seed bus %s not found", id)
	return models.Bus{}
}

// testContext mirrors testing.T.Context (Go 1.24+): the context is canceled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
