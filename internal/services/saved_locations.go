package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/ports"
)

const maxLabelLength = 100

type SavedLocationService struct {
	repo     ports.SavedLocationRepository
	resolver *Resolver
	now      func() time.Time
}

func NewSavedLocationService(repo ports.SavedLocationRepository, resolver *Resolver) *SavedLocationService {
	return &SavedLocationService{repo: repo, resolver: resolver, now: time.Now}
}

// SaveLocation resolves q and stores it under label for the user.
func (s *SavedLocationService) SaveLocation(ctx context.Context, userID int64, label string, q domain.LocationQuery) (*domain.SavedLocation, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", domain.ErrValidation)
	}
	if len(label) > maxLabelLength {
		return nil, fmt.Errorf("%w: label is longer than %d characters", domain.ErrValidation, maxLabelLength)
	}

	loc, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}

	l := &domain.SavedLocation{
		UserID:      userID,
		Label:       label,
		Postcode:    loc.Postcode,
		Coordinates: loc.Coordinates,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateLocation(ctx, l); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	return l, nil
}

func (s *SavedLocationService) ListLocations(ctx context.Context, userID int64) ([]*domain.SavedLocation, error) {
	return s.repo.ListLocations(ctx, userID)
}

func (s *SavedLocationService) DeleteLocation(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteLocation(ctx, userID, id)
}
