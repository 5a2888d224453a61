package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smarttransit/dashboard/apps/api/repository"
	"github.com/smarttransit/dashboard/apps/loader/internal/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Connect(filepath.Join(t.TempDir(), "dashboard.db"))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return database
}

func writeSeedFile(t *testing.T, ds repository.Dataset) string {
	t.Helper()

	data, err := repository.MarshalDataset(ds)
	if err != nil {
		t.Fatalf("MarshalDataset failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func TestIsChanged_NoImport(t *testing.T) {
	if !isChanged(Source{}, nil) {
		t.Error("isChanged should return true when nothing was imported")
	}
}

func TestIsChanged_Builtin(t *testing.T) {
	latest := &db.Import{Source: "builtin"}
	if isChanged(Source{}, latest) {
		t.Error("isChanged should return false for an already imported builtin dataset")
	}
}

func TestIsChanged_SourceSwitched(t *testing.T) {
	latest := &db.Import{Source: "builtin"}
	if !isChanged(Source{Path: "/data/seed.yaml"}, latest) {
		t.Error("isChanged should return true when the seed source changed")
	}
}

func TestIsChanged_MissingFile(t *testing.T) {
	path := "/tmp/does-not-exist-seed.yaml"
	modified := time.Now().UTC()
	latest := &db.Import{Source: path, SourceModified: &modified}
	if isChanged(Source{Path: path}, latest) {
		t.Error("isChanged should return false when the seed file disappeared")
	}
}

func TestRefreshIfChanged(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	src := Source{Path: writeSeedFile(t, repository.SeedDataset())}

	imp, _, err := RefreshIfChanged(ctx, database, src)
	if err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}
	if imp == nil {
		t.Fatal("initial refresh should import into an empty database")
	}

	imp, _, err = RefreshIfChanged(ctx, database, src)
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if imp != nil {
		t.Errorf("unchanged seed file should not be re-imported, got %+v", imp)
	}

	// Touch the file
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(src.Path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	imp, ds, err := RefreshIfChanged(ctx, database, src)
	if err != nil {
		t.Fatalf("refresh after touch failed: %v", err)
	}
	if imp == nil {
		t.Fatal("modified seed file should be re-imported")
	}
	if len(ds.Buses) != 4 {
		t.Errorf("len(Buses) = %d, want 4", len(ds.Buses))
	}
}

func TestImport_InvalidSeedFile(t *testing.T) {
	database := setupTestDB(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("buses: [{id: \"\"}]\n"), 0644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	if _, _, err := Import(context.Background(), database, Source{Path: path}); err == nil {
		t.Error("expected error importing an invalid seed file")
	}

	latest, err := database.LatestImport(context.Background())
	if err != nil {
		t.Fatalf("LatestImport failed: %v", err)
	}
	if latest != nil {
		t.Errorf("LatestImport = %+v, want nil after failed import", latest)
	}
}
