package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/obs"
	"postcode-tracker/internal/ports"
)

// JourneyService owns the journey lifecycle: start at one location, end at
// another and record the distance between them.
type JourneyService struct {
	repo     ports.JourneyRepository
	resolver *Resolver
	now      func() time.Time
}

func NewJourneyService(repo ports.JourneyRepository, resolver *Resolver) *JourneyService {
	return &JourneyService{repo: repo, resolver: resolver, now: time.Now}
}

type ManualJourneyRequest struct {
	Start     domain.LocationQuery
	End       domain.LocationQuery
	StartTime *time.Time
	EndTime   *time.Time
}

func (s *JourneyService) StartJourney(ctx context.Context, userID int64, q domain.LocationQuery) (_ *domain.Journey, err error) {
	defer obs.Time(ctx, "journeys.StartJourney")(&err)

	if _, err := s.repo.ActiveJourney(ctx, userID); err == nil {
		return nil, domain.ErrActiveJourney
	} else if !errors.Is(err, domain.ErrNoActiveJourney) {
		return nil, fmt.Errorf("start journey: %w", err)
	}

	start, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("start journey: %w", err)
	}

	j := domain.NewJourney(userID, start, s.now().UTC())
	if err := s.repo.CreateJourney(ctx, j); err != nil {
		if errors.Is(err, domain.ErrActiveJourney) {
			return nil, err
		}
		return nil, fmt.Errorf("start journey: %w", err)
	}
	return j, nil
}

// EndJourney completes the user's active journey. If the end location or the
// distance cannot be computed the journey is left active.
func (s *JourneyService) EndJourney(ctx context.Context, userID int64, q domain.LocationQuery) (_ *domain.Journey, err error) {
	defer obs.Time(ctx, "journeys.EndJourney")(&err)

	j, err := s.repo.ActiveJourney(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveJourney) {
			return nil, err
		}
		return nil, fmt.Errorf("end journey: %w", err)
	}

	end, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("end journey: %w", err)
	}

	start := domain.ResolvedLocation{Postcode: j.StartPostcode, Coordinates: j.Start}
	miles, err := s.resolver.DistanceMiles(start, end)
	if err != nil {
		return nil, fmt.Errorf("end journey: %w", err)
	}

	if err := j.Complete(end, miles, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("end journey: %w", err)
	}
	if err := s.repo.CompleteJourney(ctx, j); err != nil {
		if errors.Is(err, domain.ErrNoActiveJourney) {
			return nil, err
		}
		return nil, fmt.Errorf("end journey: %w", err)
	}
	return j, nil
}

// CreateManualJourney records an already-finished journey in one step.
// Missing times default to now; a missing end time equals the start time.
func (s *JourneyService) CreateManualJourney(ctx context.Context, userID int64, req ManualJourneyRequest) (_ *domain.Journey, err error) {
	defer obs.Time(ctx, "journeys.CreateManualJourney")(&err)

	startTime := s.now().UTC()
	if req.StartTime != nil {
		startTime = req.StartTime.UTC()
	}
	endTime := startTime
	if req.EndTime != nil {
		endTime = req.EndTime.UTC()
	}
	if endTime.Before(startTime) {
		return nil, fmt.Errorf("%w: end time is before start time", domain.ErrValidation)
	}

	d, err := s.resolver.ResolveDistance(ctx, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("create manual journey: %w", err)
	}

	j := domain.NewJourney(userID, d.From, startTime)
	j.IsManual = true
	if err := j.Complete(d.To, d.Miles, endTime); err != nil {
		return nil, fmt.Errorf("create manual journey: %w", err)
	}

	if err := s.repo.CreateJourney(ctx, j); err != nil {
		return nil, fmt.Errorf("create manual journey: %w", err)
	}
	return j, nil
}

func (s *JourneyService) ActiveJourney(ctx context.Context, userID int64) (*domain.Journey, error) {
	return s.repo.ActiveJourney(ctx, userID)
}

// ListJourneys returns completed journeys newest first, optionally limited to ids.
func (s *JourneyService) ListJourneys(ctx context.Context, userID int64, ids []int64) ([]*domain.Journey, error) {
	js, err := s.repo.ListCompletedJourneys(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list journeys: %w", err)
	}
	return js, nil
}

func (s *JourneyService) GetJourney(ctx context.Context, userID, id int64) (*domain.Journey, error) {
	return s.repo.GetJourney(ctx, userID, id)
}

func (s *JourneyService) DeleteJourney(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteJourney(ctx, userID, id)
}
