package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createUsersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`

	createJourneysQuery := `
	CREATE TABLE IF NOT EXISTS journeys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_postcode TEXT NOT NULL,
		start_lat REAL NOT NULL,
		start_lon REAL NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_postcode TEXT,
		end_lat REAL,
		end_lon REAL,
		end_time TIMESTAMP,
		distance_miles REAL,
		is_manual INTEGER NOT NULL DEFAULT 0
	);
	`

	// At most one active journey per user.
	createActiveJourneyIndexQuery := `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_journeys_one_active
    ON journeys(user_id) WHERE end_time IS NULL;
	`

	createSavedLocationsQuery := `
	CREATE TABLE IF NOT EXISTS saved_locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		postcode TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`

	createLocationCacheQuery := `
	CREATE TABLE IF NOT EXISTS location_cache (
        postcode TEXT PRIMARY KEY,
        lat REAL NOT NULL,
        lon REAL NOT NULL,
        region TEXT NOT NULL DEFAULT '',
        district TEXT NOT NULL DEFAULT '',
        last_accessed TIMESTAMP NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_location_cache_last_accessed
    ON location_cache(last_accessed);
	`

	statements := []string{
		createUsersQuery,
		createJourneysQuery,
		createActiveJourneyIndexQuery,
		createSavedLocationsQuery,
		createLocationCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
