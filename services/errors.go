package services

import (
	"errors"
	"fmt"

	"greenMuensterAPI/internal/directions"
)

var (
	ErrLocationNotFound   = errors.New("location not found")
	ErrNoRouteFound       = directions.ErrNoRoute
	ErrMissingCredentials = directions.ErrMissingAPIKey
	ErrPersistence        = errors.New("persistence error")

	ErrProfileNotFound   = errors.New("profile not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrAlreadyEnrolled   = errors.New("challenge already started")
	ErrInvalidMetric     = errors.New("invalid leaderboard metric")
)

// SaveStep names one round trip of the save-trip sequence.
type SaveStep string

const (
	StepInsertTrip      SaveStep = "insert_trip"
	StepUpdateProfile   SaveStep = "update_profile"
	StepFetchChallenges SaveStep = "fetch_challenges"
	StepUpdateProgress  SaveStep = "update_challenge_progress"
	StepListTrips       SaveStep = "list_trips"
)

// PersistenceError reports which step of the save sequence the database
// rejected. Steps before it stay committed.
type PersistenceError struct {
	Step SaveStep
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
