package dto

import (
	"fmt"
	"strings"
	"time"

	"postcode-tracker/internal/domain"
)

// LocationQuery is the request form of a location: either a postcode or a
// latitude/longitude pair, never both.
type LocationQuery struct {
	Postcode  string   `json:"postcode,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (q LocationQuery) ToDomain() (domain.LocationQuery, error) {
	pc := strings.TrimSpace(q.Postcode)
	hasCoords := q.Latitude != nil || q.Longitude != nil

	switch {
	case pc != "" && hasCoords:
		return domain.LocationQuery{}, fmt.Errorf("%w: give either postcode or latitude/longitude, not both", domain.ErrValidation)
	case pc != "":
		return domain.PostcodeQuery(pc), nil
	case q.Latitude != nil && q.Longitude != nil:
		return domain.CoordinatesQuery(*q.Latitude, *q.Longitude), nil
	case hasCoords:
		return domain.LocationQuery{}, fmt.Errorf("%w: latitude and longitude must be given together", domain.ErrValidation)
	default:
		return domain.LocationQuery{}, fmt.Errorf("%w: postcode or latitude/longitude is required", domain.ErrValidation)
	}
}

type LocationResponse struct {
	Postcode  string  `json:"postcode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Region    string  `json:"region,omitempty"`
	District  string  `json:"district,omitempty"`
}

func NewLocationResponse(l domain.ResolvedLocation) LocationResponse {
	return LocationResponse{
		Postcode:  domain.FormatPostcode(l.Postcode),
		Latitude:  l.Lat,
		Longitude: l.Lon,
		Region:    l.Region,
		District:  l.District,
	}
}

type ValidateResponse struct {
	Postcode string `json:"postcode"`
	Valid    bool   `json:"valid"`
}

type DistanceRequest struct {
	From LocationQuery `json:"from"`
	To   LocationQuery `json:"to"`
}

type DistanceResponse struct {
	From          LocationResponse `json:"from"`
	To            LocationResponse `json:"to"`
	DistanceMiles float64          `json:"distance_miles"`
}

type SaveLocationRequest struct {
	Label string `json:"label"`
	LocationQuery
}

type SavedLocationResponse struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Postcode  string    `json:"postcode"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

type ListSavedLocationsResponse struct {
	Locations []SavedLocationResponse `json:"locations"`
}

func NewSavedLocationResponse(l *domain.SavedLocation) SavedLocationResponse {
	return SavedLocationResponse{
		ID:        l.ID,
		Label:     l.Label,
		Postcode:  domain.FormatPostcode(l.Postcode),
		Latitude:  l.Lat,
		Longitude: l.Lon,
		CreatedAt: l.CreatedAt,
	}
}
