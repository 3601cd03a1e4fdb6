package ports

import (
	"context"
	"postcode-tracker/internal/domain"
)

// Contract for a postcode geocoding provider such as postcodes.io.
// Implementations return domain.ErrNotFound for a definitive miss and
// *domain.UpstreamError once their retry budget is spent.
type Geocoder interface {
	// Resolve a normalized postcode to its location.
	LookupPostcode(ctx context.Context, postcode string) (domain.ResolvedLocation, error)
	// Return the postcode nearest to the given point.
	NearestPostcode(ctx context.Context, c domain.Coordinates) (domain.ResolvedLocation, error)
	// Ask the provider whether a normalized postcode exists.
	ValidatePostcode(ctx context.Context, postcode string) (bool, error)
}
