package cache

import (
	"context"
	"testing"
	"time"

	"postcode-tracker/internal/adapters/repositories"
	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/db"
)

func newSqliteCache(t *testing.T) *SqliteLocationCache {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := repositories.InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return NewSqliteLocationCache(conn)
}

func TestSqliteLocationCacheUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	c := newSqliteCache(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	_, found, err := c.Get(ctx, "SW1A1AA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected miss on empty cache")
	}

	loc := domain.ResolvedLocation{
		Postcode:    "SW1A1AA",
		Coordinates: domain.Coordinates{Lat: 51.501009, Lon: -0.141588},
		Region:      "London",
		District:    "Westminster",
	}
	if err := c.Upsert(ctx, loc); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// a second writer for the same postcode overwrites rather than failing
	loc.District = "City of Westminster"
	if err := c.Upsert(ctx, loc); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	e, found, err := c.Get(ctx, "SW1A1AA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("expected hit after upsert")
	}
	if e.Location != loc {
		t.Errorf("Location = %+v, want %+v", e.Location, loc)
	}
	if !e.LastAccessed.Equal(base) {
		t.Errorf("LastAccessed = %v, want %v", e.LastAccessed, base)
	}
}

func TestSqliteLocationCacheTouchAndPrune(t *testing.T) {
	ctx := context.Background()
	c := newSqliteCache(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	for _, pc := range []string{"M11AE", "L18JQ"} {
		if err := c.Upsert(ctx, domain.ResolvedLocation{Postcode: pc, Coordinates: domain.Coordinates{Lat: 53.4, Lon: -2.2}}); err != nil {
			t.Fatalf("upsert %s: %v", pc, err)
		}
	}

	later := base.Add(48 * time.Hour)
	c.now = func() time.Time { return later }
	if err := c.Touch(ctx, "M11AE"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := c.Touch(ctx, "ZZ99ZZ"); err != nil {
		t.Fatalf("touch of missing postcode should be a no-op: %v", err)
	}

	e, _, err := c.Get(ctx, "M11AE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.LastAccessed.Equal(later) {
		t.Errorf("LastAccessed = %v, want %v", e.LastAccessed, later)
	}

	n, err := c.PruneBefore(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned = %d, want 1", n)
	}

	if _, found, _ := c.Get(ctx, "L18JQ"); found {
		t.Errorf("L18JQ should have been pruned")
	}
	if _, found, _ := c.Get(ctx, "M11AE"); !found {
		t.Errorf("M11AE should have survived the prune")
	}
}
