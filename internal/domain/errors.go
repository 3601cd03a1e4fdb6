package domain

import (
	"errors"
	"fmt"
	"time"
)

// Resolution failures. Callers match these with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Journey and account failures.
var (
	ErrActiveJourney   = errors.New("an active journey is already in progress")
	ErrNoActiveJourney = errors.New("no active journey")
	ErrJourneyComplete = errors.New("journey already completed")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrBadCredentials  = errors.New("invalid credentials")
)

// UpstreamError is returned once every attempt against every geocoding
// endpoint has failed for transport reasons.
type UpstreamError struct {
	Endpoint   string
	Attempts   int
	RetryAfter time.Duration
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("geocoder %s unavailable after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}
