package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postcode-tracker/internal/domain"
)

// SQLite-backed implementation of the SavedLocationRepository port.
type SqliteSavedLocationRepository struct{ DB *sql.DB }

func NewSqliteSavedLocationRepository(db *sql.DB) *SqliteSavedLocationRepository {
	return &SqliteSavedLocationRepository{DB: db}
}

func (s *SqliteSavedLocationRepository) CreateLocation(ctx context.Context, l *domain.SavedLocation) error {
	if s.DB == nil {
		return errors.New("sqlite saved location repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `
	INSERT INTO saved_locations (
		user_id,
		label,
		postcode,
		lat,
		lon,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?);
	`, l.UserID, l.Label, l.Postcode, l.Lat, l.Lon, l.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create saved location: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create saved location: last insert id: %w", err)
	}
	l.ID = id

	return nil
}

// Return the user's saved locations, most recent first.
func (s *SqliteSavedLocationRepository) ListLocations(ctx context.Context, userID int64) ([]*domain.SavedLocation, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite saved location repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT
		id,
		user_id,
		label,
		postcode,
		lat,
		lon,
		created_at
	FROM saved_locations
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC;
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved locations: query saved_locations table: %w", err)
	}
	defer rows.Close()

	locs := make([]*domain.SavedLocation, 0, 16)
	for rows.Next() {
		var l domain.SavedLocation
		if err := rows.Scan(&l.ID, &l.UserID, &l.Label, &l.Postcode, &l.Lat, &l.Lon, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("list saved locations: scan row: %w", err)
		}
		locs = append(locs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list saved locations: row iteration: %w", err)
	}

	return locs, nil
}

func (s *SqliteSavedLocationRepository) DeleteLocation(ctx context.Context, userID, id int64) error {
	if s.DB == nil {
		return errors.New("sqlite saved location repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM saved_locations WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return fmt.Errorf("delete saved location %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved location %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete saved location %d: %w", id, domain.ErrNotFound)
	}

	return nil
}
