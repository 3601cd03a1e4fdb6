package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/obs"
)

// SQLite backed cache mapping normalized postcodes to resolved locations.
// Postcode keys are expected to be normalized by the caller.
type SqliteLocationCache struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSqliteLocationCache(db *sql.DB) *SqliteLocationCache {
	return &SqliteLocationCache{DB: db, now: time.Now}
}

// Fetch the cached location for a postcode.
func (s *SqliteLocationCache) Get(ctx context.Context, postcode string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, "location.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("location cache: db is nil")
	}

	q := `
	SELECT
        postcode,
        lat,
        lon,
        region,
        district,
        last_accessed
    FROM location_cache
    WHERE postcode = ?;
	`

	var e domain.CacheEntry
	err = s.DB.QueryRowContext(ctx, q, strings.TrimSpace(postcode)).Scan(
		&e.Location.Postcode,
		&e.Location.Lat,
		&e.Location.Lon,
		&e.Location.Region,
		&e.Location.District,
		&e.LastAccessed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get location cache: query location_cache table: %w", err)
	}

	return e, true, nil
}

// Store a resolved location, overwriting any existing row for the postcode.
func (s *SqliteLocationCache) Upsert(ctx context.Context, loc domain.ResolvedLocation) error {
	if s.DB == nil {
		return errors.New("location cache: db is nil")
	}

	if strings.TrimSpace(loc.Postcode) == "" {
		return errors.New("insert location cache: empty postcode key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO location_cache (
        postcode,
        lat,
        lon,
        region,
        district,
        last_accessed
    )
    VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (postcode) DO UPDATE
	SET lat = excluded.lat,
		lon = excluded.lon,
		region = excluded.region,
		district = excluded.district,
		last_accessed = excluded.last_accessed;
	`, loc.Postcode, loc.Lat, loc.Lon, loc.Region, loc.District, s.now().UTC())
	if err != nil {
		return fmt.Errorf("insert location cache postcode=%q: %w", loc.Postcode, err)
	}

	return nil
}

// Bump the access time of a cached postcode. Missing rows are ignored.
func (s *SqliteLocationCache) Touch(ctx context.Context, postcode string) error {
	if s.DB == nil {
		return errors.New("location cache: db is nil")
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE location_cache SET last_accessed = ? WHERE postcode = ?;`,
		s.now().UTC(), postcode,
	)
	if err != nil {
		return fmt.Errorf("touch location cache postcode=%q: %w", postcode, err)
	}

	return nil
}

// Delete entries not accessed since cutoff and report how many were removed.
func (s *SqliteLocationCache) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("location cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM location_cache WHERE last_accessed < ?;`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune location cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune location cache: rows affected: %w", err)
	}

	return n, nil
}
