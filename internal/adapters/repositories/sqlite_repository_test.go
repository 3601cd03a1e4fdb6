package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	// schema creation is idempotent
	if err := InitSchema(conn); err != nil {
		t.Fatalf("second init schema: %v", err)
	}
	return conn
}

func createUser(t *testing.T, conn *sql.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, PasswordHash: "x", CreatedAt: time.Now()}
	if err := NewSqliteUserRepository(conn).CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestSqliteUserRepository(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	repo := NewSqliteUserRepository(conn)

	u := createUser(t, conn, "alice")
	if u.ID == 0 {
		t.Fatalf("CreateUser did not set ID")
	}

	err := repo.CreateUser(ctx, &domain.User{Username: "alice", PasswordHash: "y", CreatedAt: time.Now()})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("duplicate username err = %v, want ErrUsernameTaken", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %d, want %d", got.ID, u.ID)
	}

	if _, err := repo.GetUser(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser(999) err = %v, want ErrNotFound", err)
	}
}

func TestSqliteJourneyRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	repo := NewSqliteJourneyRepository(conn)
	u := createUser(t, conn, "bob")

	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	j := domain.NewJourney(u.ID, domain.ResolvedLocation{
		Postcode:    "SW1A1AA",
		Coordinates: domain.Coordinates{Lat: 51.501, Lon: -0.141},
	}, start)

	if err := repo.CreateJourney(ctx, j); err != nil {
		t.Fatalf("create journey: %v", err)
	}

	second := domain.NewJourney(u.ID, domain.ResolvedLocation{Postcode: "M11AE"}, start)
	if err := repo.CreateJourney(ctx, second); !errors.Is(err, domain.ErrActiveJourney) {
		t.Fatalf("second active journey err = %v, want ErrActiveJourney", err)
	}

	active, err := repo.ActiveJourney(ctx, u.ID)
	if err != nil {
		t.Fatalf("active journey: %v", err)
	}
	if active.ID != j.ID || active.StartPostcode != "SW1A1AA" || !active.StartTime.Equal(start) {
		t.Fatalf("active = %+v, want journey %d", active, j.ID)
	}
	if active.End != nil || active.DistanceMiles != nil {
		t.Fatalf("active journey has end fields: %+v", active)
	}

	end := domain.ResolvedLocation{Postcode: "EH11BB", Coordinates: domain.Coordinates{Lat: 55.952, Lon: -3.189}}
	if err := active.Complete(end, 331.5, start.Add(6*time.Hour)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := repo.CompleteJourney(ctx, active); err != nil {
		t.Fatalf("persist completion: %v", err)
	}
	if err := repo.CompleteJourney(ctx, active); !errors.Is(err, domain.ErrNoActiveJourney) {
		t.Fatalf("second completion err = %v, want ErrNoActiveJourney", err)
	}

	if _, err := repo.ActiveJourney(ctx, u.ID); !errors.Is(err, domain.ErrNoActiveJourney) {
		t.Fatalf("ActiveJourney after completion err = %v, want ErrNoActiveJourney", err)
	}

	got, err := repo.GetJourney(ctx, u.ID, j.ID)
	if err != nil {
		t.Fatalf("get journey: %v", err)
	}
	if got.EndPostcode != "EH11BB" || got.DistanceMiles == nil || *got.DistanceMiles != 331.5 {
		t.Fatalf("completed journey = %+v", got)
	}
	if got.End == nil || got.End.Lat != 55.952 {
		t.Fatalf("End = %v", got.End)
	}

	other := createUser(t, conn, "carol")
	if _, err := repo.GetJourney(ctx, other.ID, j.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign GetJourney err = %v, want ErrNotFound", err)
	}

	if err := repo.DeleteJourney(ctx, u.ID, j.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteJourney(ctx, u.ID, j.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSqliteJourneyRepositoryListCompleted(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	repo := NewSqliteJourneyRepository(conn)
	u := createUser(t, conn, "dave")

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	ids := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		startAt := base.Add(time.Duration(i) * 24 * time.Hour)
		endAt := startAt.Add(time.Hour)
		d := float64(10 * (i + 1))
		j := &domain.Journey{
			UserID:        u.ID,
			StartPostcode: "M11AE",
			StartTime:     startAt,
			EndPostcode:   "L18JQ",
			End:           &domain.Coordinates{Lat: 53.4, Lon: -2.98},
			EndTime:       &endAt,
			DistanceMiles: &d,
			IsManual:      true,
		}
		if err := repo.CreateJourney(ctx, j); err != nil {
			t.Fatalf("create journey %d: %v", i, err)
		}
		ids = append(ids, j.ID)
	}

	// an active journey must not be listed
	if err := repo.CreateJourney(ctx, domain.NewJourney(u.ID, domain.ResolvedLocation{Postcode: "B338TH"}, base)); err != nil {
		t.Fatalf("create active journey: %v", err)
	}

	all, err := repo.ListCompletedJourneys(ctx, u.ID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("order = %d,%d,%d; want newest first", all[0].ID, all[1].ID, all[2].ID)
	}
	if !all[0].IsManual {
		t.Errorf("IsManual = false, want true")
	}

	some, err := repo.ListCompletedJourneys(ctx, u.ID, []int64{ids[0], ids[1], 999})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(some) != 2 {
		t.Fatalf("len = %d, want 2", len(some))
	}
}

func TestSqliteSavedLocationRepository(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	repo := NewSqliteSavedLocationRepository(conn)
	u := createUser(t, conn, "erin")

	home := &domain.SavedLocation{
		UserID:      u.ID,
		Label:       "Home",
		Postcode:    "SW1A1AA",
		Coordinates: domain.Coordinates{Lat: 51.501, Lon: -0.141},
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	work := &domain.SavedLocation{
		UserID:      u.ID,
		Label:       "Work",
		Postcode:    "EC1A1BB",
		Coordinates: domain.Coordinates{Lat: 51.52, Lon: -0.097},
		CreatedAt:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	for _, l := range []*domain.SavedLocation{home, work} {
		if err := repo.CreateLocation(ctx, l); err != nil {
			t.Fatalf("create %s: %v", l.Label, err)
		}
	}

	locs, err := repo.ListLocations(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(locs) != 2 || locs[0].Label != "Work" {
		t.Fatalf("locations = %+v, want Work first", locs)
	}

	if err := repo.DeleteLocation(ctx, u.ID, home.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteLocation(ctx, u.ID+1, work.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
}
