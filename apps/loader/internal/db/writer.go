package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smarttransit/dashboard/apps/api/repository"
)

// Import describes one dataset import
type Import struct {
	ID             string
	Source         string     // "builtin" or the seed file path
	SourceModified *time.Time // seed file modification time, nil for builtin
	ImportedAt     time.Time
}

// ImportDataset replaces all registries with ds in a single transaction and
// records the import. Invalid datasets are rejected before anything is written.
func (db *DB) ImportDataset(ctx context.Context, ds repository.Dataset, source string, sourceModified *time.Time) (*Import, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first so foreign keys hold
	for _, table := range []string{"eta_fallback", "stop_etas", "stop_routes", "stops", "routes", "buses"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertBuses(ctx, tx, ds); err != nil {
		return nil, err
	}
	if err := insertRoutes(ctx, tx, ds); err != nil {
		return nil, err
	}
	if err := insertStops(ctx, tx, ds); err != nil {
		return nil, err
	}
	if err := insertETAs(ctx, tx, ds); err != nil {
		return nil, err
	}

	imp := &Import{
		ID:             uuid.New().String(),
		Source:         source,
		SourceModified: sourceModified,
		ImportedAt:     time.Now().UTC(),
	}

	var modified *string
	if sourceModified != nil {
		s := sourceModified.UTC().Format(time.RFC3339Nano)
		modified = &s
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO seed_imports (import_id, source, source_modified_utc, imported_at_utc, bus_count, stop_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, imp.ID, imp.Source, modified, imp.ImportedAt.Format(time.RFC3339), len(ds.Buses), len(ds.Stops))
	if err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return imp, nil
}

// LatestImport returns the most recent import, or nil if the database was never loaded
func (db *DB) LatestImport(ctx context.Context) (*Import, error) {
	var (
		imp        Import
		modified   sql.NullString
		importedAt string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT import_id, source, source_modified_utc, imported_at_utc
		FROM seed_imports
		ORDER BY imported_at_utc DESC, rowid DESC
		LIMIT 1
	`).Scan(&imp.ID, &imp.Source, &modified, &importedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest import: %w", err)
	}

	if imp.ImportedAt, err = time.Parse(time.RFC3339, importedAt); err != nil {
		return nil, fmt.Errorf("invalid import timestamp %q: %w", importedAt, err)
	}
	if modified.Valid {
		t, err := time.Parse(time.RFC3339Nano, modified.String)
		if err != nil {
			return nil, fmt.Errorf("invalid source timestamp %q: %w", modified.String, err)
		}
		imp.SourceModified = &t
	}

	return &imp, nil
}

func insertBuses(ctx context.Context, tx *sql.Tx, ds repository.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO buses (
			bus_id, position, route_label, latitude, longitude,
			eta, time_to_destination, next_stop
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare bus statement: %w", err)
	}
	defer stmt.Close()

	for i, b := range ds.Buses {
		_, err := stmt.ExecContext(ctx,
			b.ID, i, b.Route, b.Location.Lat, b.Location.Lng,
			b.ETA, b.TimeToDestination, b.NextStop,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bus %s: %w", b.ID, err)
		}
	}
	return nil
}

func insertRoutes(ctx context.Context, tx *sql.Tx, ds repository.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO routes (
			route_id, position, name, start_point, end_point,
			total_stops, active_buses, avg_time, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare route statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range ds.Routes {
		_, err := stmt.ExecContext(ctx,
			r.ID, i, r.Name, r.StartPoint, r.EndPoint,
			r.TotalStops, r.ActiveBuses, r.AvgTime, string(r.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert route %s: %w", r.ID, err)
		}
	}
	return nil
}

func insertStops(ctx context.Context, tx *sql.Tx, ds repository.Dataset) error {
	stopStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stops (stop_id, position, name, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stop statement: %w", err)
	}
	defer stopStmt.Close()

	routeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stop_routes (stop_id, position, route_label)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stop route statement: %w", err)
	}
	defer routeStmt.Close()

	for i, s := range ds.Stops {
		if _, err := stopStmt.ExecContext(ctx, s.ID, i, s.Name, s.Coordinates.Lat, s.Coordinates.Lng); err != nil {
			return fmt.Errorf("failed to insert stop %s: %w", s.ID, err)
		}
		for j, label := range s.Routes {
			if _, err := routeStmt.ExecContext(ctx, s.ID, j, label); err != nil {
				return fmt.Errorf("failed to insert route %q for stop %s: %w", label, s.ID, err)
			}
		}
	}
	return nil
}

func insertETAs(ctx context.Context, tx *sql.Tx, ds repository.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stop_etas (stop_id, position, bus_id, route_label, eta, time_to_destination)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare eta statement: %w", err)
	}
	defer stmt.Close()

	for stopID, entries := range ds.ETAs {
		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, stopID, i, e.BusID, e.Route, e.ETA, e.TimeToDestination); err != nil {
				return fmt.Errorf("failed to insert eta %s[%d]: %w", stopID, i, err)
			}
		}
	}

	if len(ds.Buses) == 0 {
		return nil
	}
	fb := ds.FallbackEntry()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO eta_fallback (id, bus_id, route_label, eta, time_to_destination)
		VALUES (1, ?, ?, ?, ?)
	`, fb.BusID, fb.Route, fb.ETA, fb.TimeToDestination)
	if err != nil {
		return fmt.Errorf("failed to insert eta fallback: %w", err)
	}
	return nil
}
