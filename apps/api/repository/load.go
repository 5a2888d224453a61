package repository

import (
	"context"
	"fmt"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// LoadOptions selects where the API reads its registries from
type LoadOptions struct {
	Source      models.DataSource
	SeedFile    string
	SQLitePath  string
	DatabaseURL string
}

// Open loads the dataset from the configured source and builds the in-memory registries
func Open(ctx context.Context, opts LoadOptions) (*MemoryRepository, error) {
	ds, err := loadDataset(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewMemoryRepository(ds, opts.Source)
}

func loadDataset(ctx context.Context, opts LoadOptions) (Dataset, error) {
	switch opts.Source {
	case models.SourceBuiltin, "":
		return SeedDataset(), nil

	case models.SourceYAML:
		if opts.SeedFile == "" {
			return Dataset{}, fmt.Errorf("data source %s requires SEED_FILE", opts.Source)
		}
		return LoadDatasetFile(opts.SeedFile)

	case models.SourceSQLite:
		db, err := NewSQLiteDB(opts.SQLitePath)
		if err != nil {
			return Dataset{}, err
		}
		defer db.Close()
		return NewSQLiteDatasetRepository(db.GetDB()).LoadDataset(ctx)

	case models.SourcePostgres:
		if opts.DatabaseURL == "" {
			return Dataset{}, fmt.Errorf("data source %s requires DATABASE_URL", opts.Source)
		}
		pg, err := NewPostgresRepository(ctx, opts.DatabaseURL)
		if err != nil {
			return Dataset{}, err
		}
		defer pg.Close()
		return pg.LoadDataset(ctx)

	default:
		return Dataset{}, fmt.Errorf("unknown data source: %q", opts.Source)
	}
}
