package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Statements are portable between SQLite and Postgres.
var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		capacity INTEGER NOT NULL DEFAULT 0,
		speed_mph DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS packages (
		package_id INTEGER PRIMARY KEY,
		vehicle_id TEXT REFERENCES vehicles (vehicle_id),
		destination TEXT NOT NULL,
		recipient_name TEXT NOT NULL DEFAULT '',
		destination_lat DOUBLE PRECISION,
		destination_lon DOUBLE PRECISION,
		weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		loaded_at TEXT,
		delivered_at TEXT
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_packages_vehicle_id
	ON packages (vehicle_id);
	`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS path_cache (
		cache_key TEXT PRIMARY KEY,
		geojson TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`,
}

// Initialize the database schema. Safe to run on every start.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
