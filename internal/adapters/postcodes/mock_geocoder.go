package postcodes

import (
	"context"
	"fmt"
	"sync"

	"postcode-tracker/internal/domain"
)

// MockGeocoder is an in-memory ports.Geocoder for tests. It counts upstream
// calls so callers can assert on cache behaviour.
type MockGeocoder struct {
	mu        sync.Mutex
	byCode    map[string]domain.ResolvedLocation
	nearest   map[domain.Coordinates]string
	err       error
	lookups   int
	reverses  int
	validates int
}

func NewMockGeocoder(locs []domain.ResolvedLocation) *MockGeocoder {
	m := &MockGeocoder{
		byCode:  make(map[string]domain.ResolvedLocation, len(locs)),
		nearest: make(map[domain.Coordinates]string),
	}
	for _, l := range locs {
		m.byCode[l.Postcode] = l
		m.nearest[l.Coordinates] = l.Postcode
	}
	return m
}

// SetNearest maps an arbitrary point to a known postcode for reverse lookups.
func (m *MockGeocoder) SetNearest(c domain.Coordinates, postcode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nearest[c] = postcode
}

// FailWith makes every subsequent call return err. nil restores normal behaviour.
func (m *MockGeocoder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockGeocoder) LookupPostcode(ctx context.Context, postcode string) (domain.ResolvedLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++

	if m.err != nil {
		return domain.ResolvedLocation{}, m.err
	}
	l, ok := m.byCode[postcode]
	if !ok {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %s", domain.ErrNotFound, postcode)
	}
	return l, nil
}

func (m *MockGeocoder) NearestPostcode(ctx context.Context, c domain.Coordinates) (domain.ResolvedLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reverses++

	if m.err != nil {
		return domain.ResolvedLocation{}, m.err
	}
	pc, ok := m.nearest[c]
	if !ok {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: no postcode near %v", domain.ErrNotFound, c)
	}
	return m.byCode[pc], nil
}

func (m *MockGeocoder) ValidatePostcode(ctx context.Context, postcode string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validates++

	if m.err != nil {
		return false, m.err
	}
	_, ok := m.byCode[postcode]
	return ok, nil
}

// Calls returns the number of lookup, reverse and validate calls made so far.
func (m *MockGeocoder) Calls() (lookups, reverses, validates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups, m.reverses, m.validates
}
