package seed

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/smarttransit/dashboard/apps/api/models"
	"github.com/smarttransit/dashboard/apps/api/repository"
	"github.com/smarttransit/dashboard/apps/loader/internal/db"
)

// Source is where the loader reads its dataset from
type Source struct {
	// Path of a YAML seed file; empty means the builtin dataset
	Path string
}

// Name identifies the source in import records
func (s Source) Name() string {
	if s.Path == "" {
		return string(models.SourceBuiltin)
	}
	return s.Path
}

// Load reads the dataset and, for seed files, the file modification time
func (s Source) Load() (repository.Dataset, *time.Time, error) {
	if s.Path == "" {
		return repository.SeedDataset(), nil, nil
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		return repository.Dataset{}, nil, fmt.Errorf("failed to stat seed file: %w", err)
	}
	ds, err := repository.LoadDatasetFile(s.Path)
	if err != nil {
		return repository.Dataset{}, nil, err
	}
	modified := info.ModTime().UTC()
	return ds, &modified, nil
}

// Import loads the source and writes it to the database unconditionally
func Import(ctx context.Context, database *db.DB, src Source) (*db.Import, repository.Dataset, error) {
	ds, modified, err := src.Load()
	if err != nil {
		return nil, repository.Dataset{}, err
	}
	imp, err := database.ImportDataset(ctx, ds, src.Name(), modified)
	if err != nil {
		return nil, repository.Dataset{}, err
	}
	log.Printf("Imported %s: %d buses, %d routes, %d stops (import %s)",
		imp.Source, len(ds.Buses), len(ds.Routes), len(ds.Stops), imp.ID)
	return imp, ds, nil
}

// RefreshIfChanged re-imports the seed file if it changed since the last import.
// The builtin dataset never changes, so it is only imported when the database is empty.
// Returns the new import, or nil if nothing was done.
func RefreshIfChanged(ctx context.Context, database *db.DB, src Source) (*db.Import, repository.Dataset, error) {
	latest, err := database.LatestImport(ctx)
	if err != nil {
		return nil, repository.Dataset{}, err
	}

	if !isChanged(src, latest) {
		return nil, repository.Dataset{}, nil
	}

	return Import(ctx, database, src)
}

func isChanged(src Source, latest *db.Import) bool {
	if latest == nil || latest.Source != src.Name() {
		return true
	}
	if src.Path == "" {
		return false
	}

	info, err := os.Stat(src.Path)
	if err != nil {
		// Missing file: keep serving the last import
		return false
	}
	if latest.SourceModified == nil {
		return true
	}
	return !info.ModTime().UTC().Equal(*latest.SourceModified)
}
