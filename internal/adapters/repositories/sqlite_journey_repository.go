package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"postcode-tracker/internal/domain"
)

// SQLite-backed implementation of the JourneyRepository port.
type SqliteJourneyRepository struct{ DB *sql.DB }

func NewSqliteJourneyRepository(db *sql.DB) *SqliteJourneyRepository {
	return &SqliteJourneyRepository{DB: db}
}

const journeyColumns = `
		id,
		user_id,
		start_postcode,
		start_lat,
		start_lon,
		start_time,
		end_postcode,
		end_lat,
		end_lon,
		end_time,
		distance_miles,
		is_manual`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJourney(row rowScanner) (*domain.Journey, error) {
	var (
		j           domain.Journey
		endPostcode sql.NullString
		endLat      sql.NullFloat64
		endLon      sql.NullFloat64
		endTime     sql.NullTime
		distance    sql.NullFloat64
	)

	err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.StartPostcode,
		&j.Start.Lat,
		&j.Start.Lon,
		&j.StartTime,
		&endPostcode,
		&endLat,
		&endLon,
		&endTime,
		&distance,
		&j.IsManual,
	)
	if err != nil {
		return nil, err
	}

	j.EndPostcode = endPostcode.String
	if endLat.Valid && endLon.Valid {
		j.End = &domain.Coordinates{Lat: endLat.Float64, Lon: endLon.Float64}
	}
	if endTime.Valid {
		t := endTime.Time
		j.EndTime = &t
	}
	if distance.Valid {
		d := distance.Float64
		j.DistanceMiles = &d
	}

	return &j, nil
}

// Insert a journey and set its ID. A second active journey for the same
// user violates idx_journeys_one_active and is reported as ErrActiveJourney.
func (s *SqliteJourneyRepository) CreateJourney(ctx context.Context, j *domain.Journey) error {
	if s.DB == nil {
		return errors.New("sqlite journey repository: DB is nil")
	}

	var endLat, endLon any
	if j.End != nil {
		endLat, endLon = j.End.Lat, j.End.Lon
	}

	res, err := s.DB.ExecContext(ctx, `
	INSERT INTO journeys (
		user_id,
		start_postcode,
		start_lat,
		start_lon,
		start_time,
		end_postcode,
		end_lat,
		end_lon,
		end_time,
		distance_miles,
		is_manual
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		j.UserID,
		j.StartPostcode,
		j.Start.Lat,
		j.Start.Lon,
		j.StartTime.UTC(),
		nullString(j.EndPostcode),
		endLat,
		endLon,
		nullTime(j.EndTime),
		nullFloat(j.DistanceMiles),
		j.IsManual,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create journey: %w", domain.ErrActiveJourney)
		}
		return fmt.Errorf("create journey: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create journey: last insert id: %w", err)
	}
	j.ID = id

	return nil
}

// Write the end fields of a journey that is still active in storage.
func (s *SqliteJourneyRepository) CompleteJourney(ctx context.Context, j *domain.Journey) error {
	if s.DB == nil {
		return errors.New("sqlite journey repository: DB is nil")
	}
	if j.Active() || j.End == nil || j.DistanceMiles == nil {
		return fmt.Errorf("complete journey %d: journey has no end state", j.ID)
	}

	res, err := s.DB.ExecContext(ctx, `
	UPDATE journeys
	SET end_postcode = ?,
		end_lat = ?,
		end_lon = ?,
		end_time = ?,
		distance_miles = ?
	WHERE id = ? AND user_id = ? AND end_time IS NULL;
	`,
		j.EndPostcode,
		j.End.Lat,
		j.End.Lon,
		j.EndTime.UTC(),
		*j.DistanceMiles,
		j.ID,
		j.UserID,
	)
	if err != nil {
		return fmt.Errorf("complete journey %d: update: %w", j.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete journey %d: rows affected: %w", j.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("complete journey %d: %w", j.ID, domain.ErrNoActiveJourney)
	}

	return nil
}

func (s *SqliteJourneyRepository) GetJourney(ctx context.Context, userID, id int64) (*domain.Journey, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite journey repository: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT`+journeyColumns+` FROM journeys WHERE id = ? AND user_id = ?;`,
		id, userID,
	)
	j, err := scanJourney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get journey %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get journey %d: scan row: %w", id, err)
	}

	return j, nil
}

// Return the user's active journey, or domain.ErrNoActiveJourney.
func (s *SqliteJourneyRepository) ActiveJourney(ctx context.Context, userID int64) (*domain.Journey, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite journey repository: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT`+journeyColumns+` FROM journeys WHERE user_id = ? AND end_time IS NULL;`,
		userID,
	)
	j, err := scanJourney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoActiveJourney
	}
	if err != nil {
		return nil, fmt.Errorf("active journey: scan row: %w", err)
	}

	return j, nil
}

func (s *SqliteJourneyRepository) ListCompletedJourneys(
	ctx context.Context,
	userID int64,
	ids []int64,
) ([]*domain.Journey, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite journey repository: DB is nil")
	}

	args := make([]any, 0, 1+len(ids))
	args = append(args, userID)

	filter := ""
	if len(ids) > 0 {
		ph := make([]string, 0, len(ids))
		for _, id := range ids {
			ph = append(ph, "?")
			args = append(args, id)
		}
		// SQLite does not support binding slices directly in an IN (...) clause.
		// Only the placeholder structure is interpolated; all values remain parameterized.
		filter = fmt.Sprintf(" AND id IN (%s)", strings.Join(ph, ","))
	}

	query := `SELECT` + journeyColumns + `
	FROM journeys
	WHERE user_id = ? AND end_time IS NOT NULL` + filter + `
	ORDER BY end_time DESC, id DESC;`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journeys: query journeys table: %w", err)
	}
	defer rows.Close()

	journeys := make([]*domain.Journey, 0, 16)
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, fmt.Errorf("list journeys: scan row: %w", err)
		}
		journeys = append(journeys, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list journeys: row iteration: %w", err)
	}

	return journeys, nil
}

func (s *SqliteJourneyRepository) DeleteJourney(ctx context.Context, userID, id int64) error {
	if s.DB == nil {
		return errors.New("sqlite journey repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM journeys WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return fmt.Errorf("delete journey %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete journey %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete journey %d: %w", id, domain.ErrNotFound)
	}

	return nil
}
