package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smarttransit/dashboard/apps/api/repository"
	"github.com/smarttransit/dashboard/apps/loader/internal/config"
	"github.com/smarttransit/dashboard/apps/loader/internal/db"
	"github.com/smarttransit/dashboard/apps/loader/internal/seed"
)

func main() {
	exportPath := flag.String("export", "", "write the builtin dataset as a YAML seed file and exit")
	once := flag.Bool("once", false, "import once and exit")
	flag.Parse()

	if *exportPath != "" {
		if err := exportSeed(*exportPath); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Builtin dataset written to %s", *exportPath)
		return
	}

	log.Println("Starting dashboard loader...")

	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if err := godotenv.Overload("../../.env.local"); err == nil {
		log.Println("Loaded .env.local overrides")
	}

	cfg := config.Load()
	src := seed.Source{Path: cfg.SeedFile}
	log.Printf("Config loaded: source=%s, poll_interval=%v, retention=%v", src.Name(), cfg.PollInterval, cfg.RetentionDuration)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ═══════════════════════════════════════════════════════
	// PHASE 1: Initialize Database
	// ═══════════════════════════════════════════════════════
	database, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	var mirror *repository.PostgresRepository
	if cfg.DatabaseURL != "" {
		mirror, err = repository.NewPostgresRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer mirror.Close()
		if err := mirror.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure PostgreSQL schema: %v", err)
		}
		log.Println("PostgreSQL mirror enabled")
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 2: Initial Import
	// ═══════════════════════════════════════════════════════
	_, ds, err := seed.Import(ctx, database, src)
	if err != nil {
		log.Fatalf("Initial import failed: %v", err)
	}
	mirrorDataset(ctx, mirror, ds)

	if *once {
		log.Println("Import complete")
		return
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 3: Refresh Loop
	// ═══════════════════════════════════════════════════════
	log.Printf("Loader running (check every %v, retain %v)", cfg.PollInterval, cfg.RetentionDuration)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			refreshOnce(ctx, database, mirror, src, cfg)
		case <-ctx.Done():
			log.Println("Shutting down...")
			return
		}
	}
}

func refreshOnce(ctx context.Context, database *db.DB, mirror *repository.PostgresRepository, src seed.Source, cfg *config.Config) {
	imp, ds, err := seed.RefreshIfChanged(ctx, database, src)
	if err != nil {
		log.Printf("Refresh error: %v", err)
	} else if imp != nil {
		mirrorDataset(ctx, mirror, ds)
	}

	if err := database.Cleanup(ctx, cfg.RetentionDuration); err != nil {
		log.Printf("Cleanup error: %v", err)
	}
}

func mirrorDataset(ctx context.Context, mirror *repository.PostgresRepository, ds repository.Dataset) {
	if mirror == nil {
		return
	}
	if err := mirror.ReplaceDataset(ctx, ds); err != nil {
		log.Printf("PostgreSQL mirror error: %v", err)
		return
	}
	log.Printf("Mirrored %d buses to PostgreSQL", len(ds.Buses))
}

func exportSeed(path string) error {
	data, err := repository.MarshalDataset(repository.SeedDataset())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
