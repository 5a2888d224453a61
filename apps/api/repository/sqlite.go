package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/smarttransit/dashboard/apps/api/models"

	_ "modernc.org/sqlite"
)

// schemaSQL is the single source of truth for the SQLite schema.
// The loader applies it before importing; the API only reads.
//
//go:embed schema.sql
var schemaSQL string

// SchemaSQL returns the embedded SQLite schema
func SchemaSQL() string {
	return schemaSQL
}

// SQLiteDSN builds a modernc.org/sqlite DSN with WAL journaling and foreign keys enabled
func SQLiteDSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// SQLiteDB wraps a SQL database connection for SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", SQLiteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *SQLiteDB) GetDB() *sql.DB {
	return s.db
}

// SQLiteDatasetRepository reads the registries imported by the loader
type SQLiteDatasetRepository struct {
	db *sql.DB
}

// NewSQLiteDatasetRepository creates a new SQLiteDatasetRepository
func NewSQLiteDatasetRepository(db *sql.DB) *SQLiteDatasetRepository {
	return &SQLiteDatasetRepository{db: db}
}

// LatestImport returns when the current registries were imported, or nil if never
func (r *SQLiteDatasetRepository) LatestImport(ctx context.Context) (*time.Time, error) {
	var importedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT imported_at_utc FROM seed_imports ORDER BY imported_at_utc DESC LIMIT 1`,
	).Scan(&importedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest import: %w", err)
	}
	t, err := time.Parse(time.RFC3339, importedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid import timestamp %q: %w", importedAt, err)
	}
	return &t, nil
}

// LoadDataset reads all registries in registry order
func (r *SQLiteDatasetRepository) LoadDataset(ctx context.Context) (Dataset, error) {
	var ds Dataset
	var err error

	if ds.Buses, err = r.loadBuses(ctx); err != nil {
		return Dataset{}, err
	}
	if ds.Routes, err = r.loadRoutes(ctx); err != nil {
		return Dataset{}, err
	}
	if ds.Stops, err = r.loadStops(ctx); err != nil {
		return Dataset{}, err
	}
	if ds.ETAs, err = r.loadETAs(ctx); err != nil {
		return Dataset{}, err
	}
	if ds.Fallback, err = r.loadFallback(ctx); err != nil {
		return Dataset{}, err
	}

	return ds, nil
}

func (r *SQLiteDatasetRepository) loadBuses(ctx context.Context) ([]models.Bus, error) {
	query := `
		SELECT
			bus_id,
			route_label,
			latitude,
			longitude,
			eta,
			time_to_destination,
			next_stop
		FROM buses
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query buses: %w", err)
	}
	defer rows.Close()

	var buses []models.Bus
	for rows.Next() {
		var b models.Bus
		err := rows.Scan(
			&b.ID,
			&b.Route,
			&b.Location.Lat,
			&b.Location.Lng,
			&b.ETA,
			&b.TimeToDestination,
			&b.NextStop,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bus row: %w", err)
		}
		buses = append(buses, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bus rows: %w", err)
	}

	return buses, nil
}

func (r *SQLiteDatasetRepository) loadRoutes(ctx context.Context) ([]models.Route, error) {
	query := `
		SELECT
			route_id,
			name,
			start_point,
			end_point,
			total_stops,
			active_buses,
			avg_time,
			status
		FROM routes
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []models.Route
	for rows.Next() {
		var rt models.Route
		var status string
		err := rows.Scan(
			&rt.ID,
			&rt.Name,
			&rt.StartPoint,
			&rt.EndPoint,
			&rt.TotalStops,
			&rt.ActiveBuses,
			&rt.AvgTime,
			&status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		rt.Status = models.RouteStatus(status)
		routes = append(routes, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route rows: %w", err)
	}

	return routes, nil
}

func (r *SQLiteDatasetRepository) loadStops(ctx context.Context) ([]models.Stop, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT stop_id, name, latitude, longitude
		FROM stops
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	var stops []models.Stop
	index := make(map[string]int)
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.Coordinates.Lat, &s.Coordinates.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan stop row: %w", err)
		}
		s.Routes = []string{}
		index[s.ID] = len(stops)
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stop rows: %w", err)
	}

	routeRows, err := r.db.QueryContext(ctx, `
		SELECT stop_id, route_label
		FROM stop_routes
		ORDER BY stop_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stop routes: %w", err)
	}
	defer routeRows.Close()

	for routeRows.Next() {
		var stopID, label string
		if err := routeRows.Scan(&stopID, &label); err != nil {
			return nil, fmt.Errorf("failed to scan stop route row: %w", err)
		}
		i, ok := index[stopID]
		if !ok {
			continue
		}
		stops[i].Routes = append(stops[i].Routes, label)
	}
	if err := routeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stop route rows: %w", err)
	}

	return stops, nil
}

func (r *SQLiteDatasetRepository) loadETAs(ctx context.Context) (map[string][]models.ETAEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT stop_id, bus_id, route_label, eta, time_to_destination
		FROM stop_etas
		ORDER BY stop_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stop etas: %w", err)
	}
	defer rows.Close()

	etas := make(map[string][]models.ETAEntry)
	for rows.Next() {
		var stopID string
		var e models.ETAEntry
		if err := rows.Scan(&stopID, &e.BusID, &e.Route, &e.ETA, &e.TimeToDestination); err != nil {
			return nil, fmt.Errorf("failed to scan stop eta row: %w", err)
		}
		etas[stopID] = append(etas[stopID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stop eta rows: %w", err)
	}

	return etas, nil
}

func (r *SQLiteDatasetRepository) loadFallback(ctx context.Context) (*models.ETAEntry, error) {
	var e models.ETAEntry
	err := r.db.QueryRowContext(ctx, `
		SELECT bus_id, route_label, eta, time_to_destination
		FROM eta_fallback
		WHERE id = 1
	`).Scan(&e.BusID, &e.Route, &e.ETA, &e.TimeToDestination)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Dataset.FallbackEntry supplies the default
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query eta fallback: %w", err)
	}
	e.IsClosest = true
	return &e, nil
}
