package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/ports"
)

type LocationSeed struct {
	Postcode  string  `json:"postcode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Region    string  `json:"region"`
	District  string  `json:"admin_district"`
}

// Warm a location cache from a JSON array of postcode records, e.g. an
// export of a previous cache or a postcodes.io bulk download.
func SeedFromJSON(ctx context.Context, c ports.LocationCache, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed locations: read %q: %w", jsonPath, err)
	}

	var data []LocationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed locations: parse json: %w", err)
	}

	locs := make([]domain.ResolvedLocation, 0, len(data))
	for i, item := range data {
		pc, err := domain.ParsePostcode(item.Postcode)
		if err != nil {
			return 0, fmt.Errorf("seed locations: item at index %d: %w", i+1, err)
		}

		loc := domain.ResolvedLocation{
			Postcode:    pc,
			Coordinates: domain.Coordinates{Lat: item.Latitude, Lon: item.Longitude},
			Region:      item.Region,
			District:    item.District,
		}
		if err := loc.Coordinates.Validate(); err != nil {
			return 0, fmt.Errorf("seed locations: item at index %d: %w", i+1, err)
		}
		locs = append(locs, loc)
	}

	for _, loc := range locs {
		if err := c.Upsert(ctx, loc); err != nil {
			return 0, fmt.Errorf("seed locations: %w", err)
		}
	}

	return len(locs), nil
}
