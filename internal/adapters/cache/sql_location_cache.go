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

// SQLLocationCache is a Postgres-backed cache mapping normalized postcodes
// to resolved locations.
type SQLLocationCache struct {
	DB *sql.DB
}

func NewSQLLocationCache(db *sql.DB) *SQLLocationCache {
	return &SQLLocationCache{DB: db}
}

// InitSchema creates the location_cache table and its access-time index.
func (s *SQLLocationCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("location cache: db is nil")
	}

	statements := []string{
		`
	CREATE TABLE IF NOT EXISTS location_cache (
        postcode TEXT PRIMARY KEY,
        lat DOUBLE PRECISION NOT NULL,
        lon DOUBLE PRECISION NOT NULL,
        region TEXT NOT NULL DEFAULT '',
        district TEXT NOT NULL DEFAULT '',
        last_accessed TIMESTAMPTZ NOT NULL DEFAULT now()
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_location_cache_last_accessed
    ON location_cache(last_accessed);
	`,
	}

	for _, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init location cache schema: %w", err)
		}
	}

	return nil
}

// Fetch the cached location for a postcode.
func (s *SQLLocationCache) Get(ctx context.Context, postcode string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, "location.cache.sql.Get")(&err)

	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("location cache: db is nil")
	}

	q := `
	SELECT postcode, lat, lon, region, district, last_accessed
    FROM location_cache
    WHERE postcode = $1;
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
func (s *SQLLocationCache) Upsert(ctx context.Context, loc domain.ResolvedLocation) error {
	if s.DB == nil {
		return errors.New("location cache: db is nil")
	}

	if strings.TrimSpace(loc.Postcode) == "" {
		return errors.New("insert location cache: empty postcode key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO location_cache (postcode, lat, lon, region, district, last_accessed)
    VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (postcode) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		region = EXCLUDED.region,
		district = EXCLUDED.district,
		last_accessed = EXCLUDED.last_accessed;
	`, loc.Postcode, loc.Lat, loc.Lon, loc.Region, loc.District)
	if err != nil {
		return fmt.Errorf("insert location cache postcode=%q: %w", loc.Postcode, err)
	}

	return nil
}

// Bump the access time of a cached postcode. Missing rows are ignored.
func (s *SQLLocationCache) Touch(ctx context.Context, postcode string) error {
	if s.DB == nil {
		return errors.New("location cache: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE location_cache SET last_accessed = now() WHERE postcode = $1;`, postcode,
	); err != nil {
		return fmt.Errorf("touch location cache postcode=%q: %w", postcode, err)
	}

	return nil
}

// Delete entries not accessed since cutoff and report how many were removed.
func (s *SQLLocationCache) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("location cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM location_cache WHERE last_accessed < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune location cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune location cache: rows affected: %w", err)
	}

	return n, nil
}
