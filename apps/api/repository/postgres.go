package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarttransit/dashboard/apps/api/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS dashboard_buses (
	bus_id              TEXT PRIMARY KEY,
	position            INTEGER NOT NULL,
	route_label         TEXT NOT NULL,
	latitude            DOUBLE PRECISION NOT NULL,
	longitude           DOUBLE PRECISION NOT NULL,
	eta                 TEXT NOT NULL,
	time_to_destination TEXT NOT NULL,
	next_stop           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dashboard_routes (
	route_id     TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	name         TEXT NOT NULL,
	start_point  TEXT NOT NULL,
	end_point    TEXT NOT NULL,
	total_stops  INTEGER NOT NULL,
	active_buses INTEGER NOT NULL,
	avg_time     TEXT NOT NULL,
	status       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dashboard_stops (
	stop_id   TEXT PRIMARY KEY,
	position  INTEGER NOT NULL,
	name      TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	routes    TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS dashboard_stop_etas (
	stop_id             TEXT NOT NULL REFERENCES dashboard_stops (stop_id) ON DELETE CASCADE,
	position            INTEGER NOT NULL,
	bus_id              TEXT NOT NULL,
	route_label         TEXT NOT NULL,
	eta                 TEXT NOT NULL,
	time_to_destination TEXT NOT NULL,
	PRIMARY KEY (stop_id, position)
);

CREATE TABLE IF NOT EXISTS dashboard_eta_fallback (
	id                  INTEGER PRIMARY KEY CHECK (id = 1),
	bus_id              TEXT NOT NULL,
	route_label         TEXT NOT NULL,
	eta                 TEXT NOT NULL,
	time_to_destination TEXT NOT NULL
);
`

// PostgresRepository stores the registries in PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to PostgreSQL and verifies the connection
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Close releases the connection pool
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// EnsureSchema creates the dashboard tables if they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ReplaceDataset swaps the stored registries for ds in a single transaction
func (r *PostgresRepository) ReplaceDataset(ctx context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{
		"dashboard_eta_fallback",
		"dashboard_stop_etas",
		"dashboard_stops",
		"dashboard_routes",
		"dashboard_buses",
	} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for i, b := range ds.Buses {
		batch.Queue(`
			INSERT INTO dashboard_buses (bus_id, position, route_label, latitude, longitude, eta, time_to_destination, next_stop)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			b.ID, i, b.Route, b.Location.Lat, b.Location.Lng, b.ETA, b.TimeToDestination, b.NextStop)
	}
	for i, rt := range ds.Routes {
		batch.Queue(`
			INSERT INTO dashboard_routes (route_id, position, name, start_point, end_point, total_stops, active_buses, avg_time, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rt.ID, i, rt.Name, rt.StartPoint, rt.EndPoint, rt.TotalStops, rt.ActiveBuses, rt.AvgTime, string(rt.Status))
	}
	for i, s := range ds.Stops {
		routes := s.Routes
		if routes == nil {
			routes = []string{}
		}
		batch.Queue(`
			INSERT INTO dashboard_stops (stop_id, position, name, latitude, longitude, routes)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			s.ID, i, s.Name, s.Coordinates.Lat, s.Coordinates.Lng, routes)
	}
	for stopID, entries := range ds.ETAs {
		for i, e := range entries {
			batch.Queue(`
				INSERT INTO dashboard_stop_etas (stop_id, position, bus_id, route_label, eta, time_to_destination)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				stopID, i, e.BusID, e.Route, e.ETA, e.TimeToDestination)
		}
	}
	if ds.Fallback != nil {
		fb := ds.FallbackEntry()
		batch.Queue(`
			INSERT INTO dashboard_eta_fallback (id, bus_id, route_label, eta, time_to_destination)
			VALUES (1, $1, $2, $3, $4)`,
			fb.BusID, fb.Route, fb.ETA, fb.TimeToDestination)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert dataset: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}
	return nil
}

// LoadDataset reads all registries in registry order
func (r *PostgresRepository) LoadDataset(ctx context.Context) (Dataset, error) {
	var ds Dataset

	rows, err := r.pool.Query(ctx, `
		SELECT bus_id, route_label, latitude, longitude, eta, time_to_destination, next_stop
		FROM dashboard_buses
		ORDER BY position
	`)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to query buses: %w", err)
	}
	for rows.Next() {
		var b models.Bus
		if err := rows.Scan(&b.ID, &b.Route, &b.Location.Lat, &b.Location.Lng, &b.ETA, &b.TimeToDestination, &b.NextStop); err != nil {
			rows.Close()
			return Dataset{}, fmt.Errorf("failed to scan bus row: %w", err)
		}
		ds.Buses = append(ds.Buses, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Dataset{}, fmt.Errorf("error iterating bus rows: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT route_id, name, start_point, end_point, total_stops, active_buses, avg_time, status
		FROM dashboard_routes
		ORDER BY position
	`)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to query routes: %w", err)
	}
	for rows.Next() {
		var rt models.Route
		var status string
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.StartPoint, &rt.EndPoint, &rt.TotalStops, &rt.ActiveBuses, &rt.AvgTime, &status); err != nil {
			rows.Close()
			return Dataset{}, fmt.Errorf("failed to scan route row: %w", err)
		}
		rt.Status = models.RouteStatus(status)
		ds.Routes = append(ds.Routes, rt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Dataset{}, fmt.Errorf("error iterating route rows: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT stop_id, name, latitude, longitude, routes
		FROM dashboard_stops
		ORDER BY position
	`)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to query stops: %w", err)
	}
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.Coordinates.Lat, &s.Coordinates.Lng, &s.Routes); err != nil {
			rows.Close()
			return Dataset{}, fmt.Errorf("failed to scan stop row: %w", err)
		}
		ds.Stops = append(ds.Stops, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Dataset{}, fmt.Errorf("error iterating stop rows: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT stop_id, bus_id, route_label, eta, time_to_destination
		FROM dashboard_stop_etas
		ORDER BY stop_id, position
	`)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to query stop etas: %w", err)
	}
	ds.ETAs = make(map[string][]models.ETAEntry)
	for rows.Next() {
		var stopID string
		var e models.ETAEntry
		if err := rows.Scan(&stopID, &e.BusID, &e.Route, &e.ETA, &e.TimeToDestination); err != nil {
			rows.Close()
			return Dataset{}, fmt.Errorf("failed to scan stop eta row: %w", err)
		}
		ds.ETAs[stopID] = append(ds.ETAs[stopID], e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Dataset{}, fmt.Errorf("error iterating stop eta rows: %w", err)
	}

	var fb models.ETAEntry
	err = r.pool.QueryRow(ctx, `
		SELECT bus_id, route_label, eta, time_to_destination
		FROM dashboard_eta_fallback
		WHERE id = 1
	`).Scan(&fb.BusID, &fb.Route, &fb.ETA, &fb.TimeToDestination)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return Dataset{}, fmt.Errorf("failed to query eta fallback: %w", err)
	default:
		fb.IsClosest = true
		ds.Fallback = &fb
	}

	return ds, nil
}
