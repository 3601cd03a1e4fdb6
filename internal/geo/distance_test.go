package geo

import (
	"errors"
	"math"
	"testing"

	"postcode-tracker/internal/domain"
)

var (
	london    = domain.Coordinates{Lat: 51.5074, Lon: -0.1278}
	edinburgh = domain.Coordinates{Lat: 55.9533, Lon: -3.1883}
	cardiff   = domain.Coordinates{Lat: 51.4816, Lon: -3.1791}
)

func TestDistanceMilesReflexive(t *testing.T) {
	for _, p := range []domain.Coordinates{london, edinburgh, cardiff, {Lat: 0, Lon: 0}} {
		got, err := DistanceMiles(p, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("DistanceMiles(%v, %v) = %v, want 0", p, p, got)
		}
	}
}

func TestDistanceMilesSymmetric(t *testing.T) {
	pairs := [][2]domain.Coordinates{{london, edinburgh}, {london, cardiff}, {cardiff, edinburgh}}
	for _, p := range pairs {
		ab, err := DistanceMiles(p[0], p[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := DistanceMiles(p[1], p[0])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ab != ba {
			t.Errorf("asymmetric distance: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceMilesLondonEdinburgh(t *testing.T) {
	got, err := DistanceMiles(london, edinburgh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-332) > 1 {
		t.Fatalf("distance = %v, want 332 +/- 1", got)
	}
	if got != math.Round(got*100)/100 {
		t.Errorf("distance %v is not rounded to 2 decimal places", got)
	}
}

func TestDistanceMilesRejectsInvalidInput(t *testing.T) {
	bad := []domain.Coordinates{{Lat: 95, Lon: 0}, {Lat: 0, Lon: -200}, {Lat: math.NaN(), Lon: 0}}
	for _, b := range bad {
		if _, err := DistanceMiles(london, b); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("DistanceMiles(london, %v) err = %v, want ErrValidation", b, err)
		}
	}
}
