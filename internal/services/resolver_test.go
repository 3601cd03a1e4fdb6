package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"postcode-tracker/internal/adapters/cache"
	"postcode-tracker/internal/adapters/postcodes"
	"postcode-tracker/internal/domain"
)

var (
	london = domain.ResolvedLocation{
		Postcode:    "SW1A1AA",
		Coordinates: domain.Coordinates{Lat: 51.501009, Lon: -0.141588},
		Region:      "London",
		District:    "Westminster",
	}
	edinburgh = domain.ResolvedLocation{
		Postcode:    "EH11YZ",
		Coordinates: domain.Coordinates{Lat: 55.952061, Lon: -3.189249},
		Region:      "Scotland",
		District:    "City of Edinburgh",
	}
)

func newTestResolver(t *testing.T) (*Resolver, *postcodes.MockGeocoder, *cache.MemoryLocationCache) {
	t.Helper()
	geocoder := postcodes.NewMockGeocoder([]domain.ResolvedLocation{london, edinburgh})
	c := cache.NewMemoryLocationCache()
	return NewResolver(geocoder, c), geocoder, c
}

func TestResolveByPostcodeCachesResult(t *testing.T) {
	ctx := context.Background()
	r, geocoder, c := newTestResolver(t)

	for i := 0; i < 2; i++ {
		loc, err := r.ResolveByPostcode(ctx, " sw1a 1aa ")
		if err != nil {
			t.Fatalf("resolve #%d: unexpected error: %v", i, err)
		}
		if loc != london {
			t.Fatalf("resolve #%d = %+v, want %+v", i, loc, london)
		}
	}

	if lookups, _, _ := geocoder.Calls(); lookups != 1 {
		t.Fatalf("lookups = %d, want 1", lookups)
	}
	if c.Len() != 1 {
		t.Fatalf("cache size = %d, want 1", c.Len())
	}
}

func TestResolveByPostcodeInvalidMakesNoCalls(t *testing.T) {
	r, geocoder, _ := newTestResolver(t)

	for _, pc := range []string{"12345", "", "SW1A", "SW1A 1AAA"} {
		_, err := r.ResolveByPostcode(context.Background(), pc)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("resolve %q err = %v, want ErrValidation", pc, err)
		}
	}

	if lookups, _, _ := geocoder.Calls(); lookups != 0 {
		t.Fatalf("lookups = %d, want 0", lookups)
	}
}

func TestResolveByPostcodeNotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	r, geocoder, c := newTestResolver(t)

	for i := 0; i < 2; i++ {
		_, err := r.ResolveByPostcode(ctx, "ZZ9 9ZZ")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}

	if lookups, _, _ := geocoder.Calls(); lookups != 2 {
		t.Fatalf("lookups = %d, want 2", lookups)
	}
	if c.Len() != 0 {
		t.Fatalf("cache size = %d, want 0", c.Len())
	}
}

func TestResolveByPostcodeUpstreamError(t *testing.T) {
	r, geocoder, _ := newTestResolver(t)
	geocoder.FailWith(&domain.UpstreamError{Endpoint: "mirror", Attempts: 6, Err: errors.New("boom")})

	_, err := r.ResolveByPostcode(context.Background(), "SW1A1AA")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.Attempts != 6 {
		t.Fatalf("err = %#v, want *UpstreamError with 6 attempts", err)
	}
}

func TestResolveByPostcodeServesCacheWhenUpstreamDown(t *testing.T) {
	ctx := context.Background()
	r, geocoder, _ := newTestResolver(t)

	if _, err := r.ResolveByPostcode(ctx, "SW1A1AA"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	geocoder.FailWith(&domain.UpstreamError{Endpoint: "primary", Err: errors.New("down")})

	loc, err := r.ResolveByPostcode(ctx, "SW1A1AA")
	if err != nil {
		t.Fatalf("cached resolve: unexpected error: %v", err)
	}
	if loc.Postcode != "SW1A1AA" {
		t.Fatalf("postcode = %q, want SW1A1AA", loc.Postcode)
	}
}

// gatedGeocoder holds every postcode lookup until release is closed.
type gatedGeocoder struct {
	*postcodes.MockGeocoder
	lookups atomic.Int64
	entered chan struct{}
	release chan struct{}
}

func (g *gatedGeocoder) LookupPostcode(ctx context.Context, postcode string) (domain.ResolvedLocation, error) {
	if g.lookups.Add(1) == 1 {
		close(g.entered)
	}
	<-g.release
	return g.MockGeocoder.LookupPostcode(ctx, postcode)
}

type countingCache struct {
	*cache.MemoryLocationCache
	gets atomic.Int64
}

func (c *countingCache) Get(ctx context.Context, postcode string) (domain.CacheEntry, bool, error) {
	c.gets.Add(1)
	return c.MemoryLocationCache.Get(ctx, postcode)
}

func TestResolveByPostcodeConcurrentMisses(t *testing.T) {
	const callers = 20

	geocoder := &gatedGeocoder{
		MockGeocoder: postcodes.NewMockGeocoder([]domain.ResolvedLocation{edinburgh}),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	c := &countingCache{MemoryLocationCache: cache.NewMemoryLocationCache()}
	r := NewResolver(geocoder, c)

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.ResolveByPostcode(context.Background(), "EH1 1YZ"); err != nil {
				errs <- err
			}
		}()
	}

	<-geocoder.entered
	deadline := time.Now().Add(2 * time.Second)
	for c.gets.Load() < callers {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d callers reached the cache", c.gets.Load(), callers)
		}
		time.Sleep(time.Millisecond)
	}
	// every caller has missed; give them time to join the in-flight lookup
	time.Sleep(50 * time.Millisecond)
	close(geocoder.release)

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := geocoder.lookups.Load(); n != 1 {
		t.Fatalf("lookups = %d, want 1", n)
	}
}

func TestResolveByCoordinates(t *testing.T) {
	ctx := context.Background()
	r, geocoder, c := newTestResolver(t)

	pt := domain.Coordinates{Lat: 51.5, Lon: -0.14}
	geocoder.SetNearest(pt, "SW1A1AA")

	loc, err := r.ResolveByCoordinates(ctx, pt.Lat, pt.Lon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Postcode != "SW1A1AA" {
		t.Fatalf("postcode = %q, want SW1A1AA", loc.Postcode)
	}

	if _, found, _ := c.Get(ctx, "SW1A1AA"); !found {
		t.Fatalf("reverse result was not cached")
	}

	// a later postcode resolution is served from the cache
	if _, err := r.ResolveByPostcode(ctx, "SW1A 1AA"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookups, reverses, _ := geocoder.Calls(); lookups != 0 || reverses != 1 {
		t.Fatalf("calls = (%d lookups, %d reverses), want (0, 1)", lookups, reverses)
	}
}

func TestResolveByCoordinatesValidation(t *testing.T) {
	r, geocoder, _ := newTestResolver(t)

	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"lat too high", 95, 0},
		{"lat too low", -90.5, 0},
		{"lon too high", 0, 181},
		{"nan", math.NaN(), 0},
		{"inf", 0, math.Inf(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.ResolveByCoordinates(context.Background(), tc.lat, tc.lon)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	if _, reverses, _ := geocoder.Calls(); reverses != 0 {
		t.Fatalf("reverses = %d, want 0", reverses)
	}
}

func TestResolveByCoordinatesOutsideUK(t *testing.T) {
	r, _, _ := newTestResolver(t)

	_, err := r.ResolveByCoordinates(context.Background(), 40.7128, -74.006)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveDistance(t *testing.T) {
	r, _, _ := newTestResolver(t)

	d, err := r.ResolveDistance(
		context.Background(),
		domain.PostcodeQuery("SW1A1AA"),
		domain.CoordinatesQuery(edinburgh.Lat, edinburgh.Lon),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.From.Postcode != "SW1A1AA" || d.To.Postcode != "EH11YZ" {
		t.Fatalf("endpoints = %s -> %s, want SW1A1AA -> EH11YZ", d.From.Postcode, d.To.Postcode)
	}
	if math.Abs(d.Miles-332) > 1 {
		t.Fatalf("miles = %v, want 332 +/- 1", d.Miles)
	}
}

func TestResolveDistancePropagatesFirstFailure(t *testing.T) {
	r, geocoder, _ := newTestResolver(t)

	_, err := r.ResolveDistance(
		context.Background(),
		domain.PostcodeQuery("ZZ99ZZ"),
		domain.PostcodeQuery("not a postcode"),
	)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if errors.Is(err, domain.ErrValidation) {
		t.Fatalf("second query should not have been resolved")
	}
	if lookups, _, _ := geocoder.Calls(); lookups != 1 {
		t.Fatalf("lookups = %d, want 1", lookups)
	}
}

func TestValidatePostcode(t *testing.T) {
	ctx := context.Background()
	r, geocoder, _ := newTestResolver(t)

	ok, err := r.ValidatePostcode(ctx, "12345")
	if err != nil || ok {
		t.Fatalf("ValidatePostcode(12345) = %v, %v; want false, nil", ok, err)
	}

	ok, err = r.ValidatePostcode(ctx, "eh1 1yz")
	if err != nil || !ok {
		t.Fatalf("ValidatePostcode(eh1 1yz) = %v, %v; want true, nil", ok, err)
	}

	ok, err = r.ValidatePostcode(ctx, "ZZ9 9ZZ")
	if err != nil || ok {
		t.Fatalf("ValidatePostcode(ZZ9 9ZZ) = %v, %v; want false, nil", ok, err)
	}

	if _, _, validates := geocoder.Calls(); validates != 2 {
		t.Fatalf("validates = %d, want 2", validates)
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (domain.CacheEntry, bool, error) {
	return domain.CacheEntry{}, false, errors.New("connection refused")
}

func (brokenCache) Upsert(context.Context, domain.ResolvedLocation) error {
	return errors.New("connection refused")
}

func (brokenCache) Touch(context.Context, string) error { return nil }

func TestResolveByPostcodeCacheFailureFallsThrough(t *testing.T) {
	geocoder := postcodes.NewMockGeocoder([]domain.ResolvedLocation{london})
	r := NewResolver(geocoder, brokenCache{})

	loc, err := r.ResolveByPostcode(context.Background(), "SW1A1AA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Postcode != "SW1A1AA" {
		t.Fatalf("postcode = %q, want SW1A1AA", loc.Postcode)
	}
}

func TestResolveByPostcodeCallerCancelled(t *testing.T) {
	r, _, _ := newTestResolver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ResolveByPostcode(ctx, "SW1A1AA")
	if err == nil {
		// the shared fetch may win the race against ctx.Done
		return
	}
	if !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want context.Canceled wrapped as upstream unavailable", err)
	}
}
