package domain

import (
	"fmt"
	"time"
)

// Journey is a trip between two resolved postcodes owned by a single user.
// A journey is active while EndTime is nil. It is completed exactly once,
// at which point the end location and distance are fixed.
type Journey struct {
	ID            int64
	UserID        int64
	StartPostcode string
	Start         Coordinates
	StartTime     time.Time
	EndPostcode   string
	End           *Coordinates
	EndTime       *time.Time
	DistanceMiles *float64
	IsManual      bool
}

// Start a new active journey at the given location.
func NewJourney(userID int64, start ResolvedLocation, at time.Time) *Journey {
	return &Journey{
		UserID:        userID,
		StartPostcode: start.Postcode,
		Start:         start.Coordinates,
		StartTime:     at,
	}
}

func (j *Journey) Active() bool { return j.EndTime == nil }

// Complete fixes the end location, end time and distance of an active journey.
func (j *Journey) Complete(end ResolvedLocation, distanceMiles float64, at time.Time) error {
	if !j.Active() {
		return fmt.Errorf("complete journey %d: %w", j.ID, ErrJourneyComplete)
	}
	if at.Before(j.StartTime) {
		return fmt.Errorf("complete journey %d: %w: end time %s precedes start time %s",
			j.ID, ErrValidation, at.Format(time.RFC3339), j.StartTime.Format(time.RFC3339))
	}

	endCoords := end.Coordinates
	d := distanceMiles
	t := at

	j.EndPostcode = end.Postcode
	j.End = &endCoords
	j.EndTime = &t
	j.DistanceMiles = &d
	return nil
}
