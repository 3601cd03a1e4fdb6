package ports

import (
	"context"
	"postcode-tracker/internal/domain"
)

// Port: persistence for journeys. Every call is scoped to one user.
type JourneyRepository interface {
	CreateJourney(ctx context.Context, j *domain.Journey) error
	// Persist the end fields of a completed journey.
	CompleteJourney(ctx context.Context, j *domain.Journey) error
	GetJourney(ctx context.Context, userID, id int64) (*domain.Journey, error)
	ActiveJourney(ctx context.Context, userID int64) (*domain.Journey, error)
	// Completed journeys, newest first. An empty ids slice means all.
	ListCompletedJourneys(ctx context.Context, userID int64, ids []int64) ([]*domain.Journey, error)
	DeleteJourney(ctx context.Context, userID, id int64) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type SavedLocationRepository interface {
	CreateLocation(ctx context.Context, l *domain.SavedLocation) error
	ListLocations(ctx context.Context, userID int64) ([]*domain.SavedLocation, error)
	DeleteLocation(ctx context.Context, userID, id int64) error
}
