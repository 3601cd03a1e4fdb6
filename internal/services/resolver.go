package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/geo"
	"postcode-tracker/internal/platform/logger"
	"postcode-tracker/internal/platform/metrics"
	"postcode-tracker/internal/platform/obs"
	"postcode-tracker/internal/ports"
)

// Resolver turns postcodes and coordinates into resolved locations using a
// cache-aside lookup in front of the geocoding provider.
//
// Concurrent misses for the same key within this process share a single
// upstream call. Across processes duplicate fetches are possible and
// harmless because cache writes are upserts.
type Resolver struct {
	geocoder ports.Geocoder
	cache    ports.LocationCache
	group    singleflight.Group
	log      *zap.SugaredLogger
}

func NewResolver(geocoder ports.Geocoder, cache ports.LocationCache) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		cache:    cache,
		log:      logger.GetLogger("resolver"),
	}
}

// A resolved pair of locations and the great-circle distance between them.
type Distance struct {
	From  domain.ResolvedLocation
	To    domain.ResolvedLocation
	Miles float64
}

// ResolveByPostcode normalizes and validates postcode, then serves it from
// the cache or the geocoding provider.
func (r *Resolver) ResolveByPostcode(ctx context.Context, postcode string) (_ domain.ResolvedLocation, err error) {
	defer obs.Time(ctx, "resolver.ResolveByPostcode")(&err)

	pc, err := domain.ParsePostcode(postcode)
	if err != nil {
		return domain.ResolvedLocation{}, err
	}

	if loc, ok := r.fromCache(ctx, pc); ok {
		return loc, nil
	}

	return r.fetch(ctx, "pc:"+pc, func(ctx context.Context) (domain.ResolvedLocation, error) {
		return r.geocoder.LookupPostcode(ctx, pc)
	})
}

// ResolveByCoordinates finds the postcode nearest to (lat, lon) and caches it.
func (r *Resolver) ResolveByCoordinates(ctx context.Context, lat, lon float64) (_ domain.ResolvedLocation, err error) {
	defer obs.Time(ctx, "resolver.ResolveByCoordinates")(&err)

	pt := domain.Coordinates{Lat: lat, Lon: lon}
	if err := pt.Validate(); err != nil {
		return domain.ResolvedLocation{}, err
	}

	key := "ll:" + strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
	return r.fetch(ctx, key, func(ctx context.Context) (domain.ResolvedLocation, error) {
		return r.geocoder.NearestPostcode(ctx, pt)
	})
}

// Resolve dispatches on the form of q.
func (r *Resolver) Resolve(ctx context.Context, q domain.LocationQuery) (domain.ResolvedLocation, error) {
	if q.IsCoordinates() {
		return r.ResolveByCoordinates(ctx, q.Coords.Lat, q.Coords.Lon)
	}
	return r.ResolveByPostcode(ctx, q.Postcode)
}

// DistanceMiles is the Haversine distance between two resolved locations.
func (r *Resolver) DistanceMiles(a, b domain.ResolvedLocation) (float64, error) {
	return geo.DistanceMiles(a.Coordinates, b.Coordinates)
}

// ResolveDistance resolves both queries in order and measures between them.
// The first resolution failure is returned unchanged.
func (r *Resolver) ResolveDistance(ctx context.Context, a, b domain.LocationQuery) (Distance, error) {
	from, err := r.Resolve(ctx, a)
	if err != nil {
		return Distance{}, fmt.Errorf("resolve %s: %w", a, err)
	}

	to, err := r.Resolve(ctx, b)
	if err != nil {
		return Distance{}, fmt.Errorf("resolve %s: %w", b, err)
	}

	miles, err := r.DistanceMiles(from, to)
	if err != nil {
		return Distance{}, err
	}

	return Distance{From: from, To: to, Miles: miles}, nil
}

// ValidatePostcode reports whether postcode exists. Badly shaped input is
// simply invalid; a cached postcode is valid without asking upstream.
func (r *Resolver) ValidatePostcode(ctx context.Context, postcode string) (bool, error) {
	pc, err := domain.ParsePostcode(postcode)
	if err != nil {
		return false, nil
	}

	if _, ok := r.fromCache(ctx, pc); ok {
		return true, nil
	}

	return r.geocoder.ValidatePostcode(ctx, pc)
}

// fromCache returns a cached location and refreshes its access time. Cache
// failures are logged and treated as misses.
func (r *Resolver) fromCache(ctx context.Context, pc string) (domain.ResolvedLocation, bool) {
	if r.cache == nil {
		return domain.ResolvedLocation{}, false
	}

	entry, found, err := r.cache.Get(ctx, pc)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		r.log.Warnw("location cache read failed", "req_id", obs.RequestID(ctx), "postcode", pc, "err", err)
		return domain.ResolvedLocation{}, false
	}
	if !found {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return domain.ResolvedLocation{}, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	if err := r.cache.Touch(ctx, pc); err != nil {
		r.log.Warnw("location cache touch failed", "req_id", obs.RequestID(ctx), "postcode", pc, "err", err)
	}

	return entry.Location, true
}

// fetch runs lookup once per key across concurrent callers and stores the
// result. The shared call is detached from any single caller's cancellation;
// the geocoder's own total deadline bounds it.
func (r *Resolver) fetch(
	ctx context.Context,
	key string,
	lookup func(context.Context) (domain.ResolvedLocation, error),
) (domain.ResolvedLocation, error) {
	shared := context.WithoutCancel(ctx)

	ch := r.group.DoChan(key, func() (any, error) {
		loc, err := lookup(shared)
		if err != nil {
			return nil, err
		}
		r.store(shared, loc)
		return loc, nil
	})

	select {
	case <-ctx.Done():
		return domain.ResolvedLocation{}, &domain.UpstreamError{
			Endpoint: "resolver",
			Err:      ctx.Err(),
		}
	case res := <-ch:
		if res.Err != nil {
			return domain.ResolvedLocation{}, res.Err
		}
		return res.Val.(domain.ResolvedLocation), nil
	}
}

func (r *Resolver) store(ctx context.Context, loc domain.ResolvedLocation) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Upsert(ctx, loc); err != nil {
		r.log.Warnw("location cache write failed", "req_id", obs.RequestID(ctx), "postcode", loc.Postcode, "err", err)
	}
}
