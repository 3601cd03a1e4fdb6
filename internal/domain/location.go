package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// UK postcode shape once whitespace is removed: outward code of 1-2 letters,
// a digit and an optional alphanumeric, then an inward code of a digit and
// two letters. Regex only, no checksum.
var postcodePattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]?[0-9][A-Z]{2}$`)

// NormalizePostcode uppercases and strips all whitespace.
func NormalizePostcode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// ParsePostcode normalizes s and rejects anything that is not shaped like a
// UK postcode.
func ParsePostcode(s string) (string, error) {
	pc := NormalizePostcode(s)
	if pc == "" {
		return "", fmt.Errorf("%w: postcode is required", ErrValidation)
	}
	if !postcodePattern.MatchString(pc) {
		return "", fmt.Errorf("%w: %q is not a valid UK postcode", ErrValidation, s)
	}
	return pc, nil
}

// FormatPostcode renders a normalized postcode with the single space between
// outward and inward codes.
func FormatPostcode(pc string) string {
	if len(pc) < 5 {
		return pc
	}
	return pc[:len(pc)-3] + " " + pc[len(pc)-3:]
}

// A postcode resolved to a point. Produced by the resolver and never mutated.
type ResolvedLocation struct {
	Postcode string
	Coordinates
	Region   string
	District string
}

// LocationQuery identifies a location either by postcode or by raw
// coordinates. Exactly one of the two forms is set.
type LocationQuery struct {
	Postcode string
	Coords   *Coordinates
}

func PostcodeQuery(pc string) LocationQuery { return LocationQuery{Postcode: pc} }

func CoordinatesQuery(lat, lon float64) LocationQuery {
	return LocationQuery{Coords: &Coordinates{Lat: lat, Lon: lon}}
}

func (q LocationQuery) IsCoordinates() bool { return q.Coords != nil }

func (q LocationQuery) String() string {
	if q.Coords != nil {
		return fmt.Sprintf("(%.6f,%.6f)", q.Coords.Lat, q.Coords.Lon)
	}
	return q.Postcode
}

// CacheEntry is a cached resolution plus the time it was last served.
type CacheEntry struct {
	Location     ResolvedLocation
	LastAccessed time.Time
}
