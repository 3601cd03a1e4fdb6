// Package geo computes great-circle distances between resolved locations.
package geo

import (
	"fmt"
	"math"

	"postcode-tracker/internal/domain"

	"github.com/umahmood/haversine"
)

// MilesPerKilometer converts the haversine kilometre result (mean earth
// radius 6371 km) to statute miles.
const MilesPerKilometer = 0.621371

// DistanceMiles returns the Haversine distance between a and b in miles,
// rounded to two decimal places.
func DistanceMiles(a, b domain.Coordinates) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("distance from: %w", err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("distance to: %w", err)
	}

	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lon},
		haversine.Coord{Lat: b.Lat, Lon: b.Lon},
	)

	return roundTo(km*MilesPerKilometer, 2), nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
