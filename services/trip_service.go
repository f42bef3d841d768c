package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/metrics"
	"greenMuensterAPI/internal/types/challenge"
	"greenMuensterAPI/internal/types/profile"
	"greenMuensterAPI/internal/types/trip"
	"greenMuensterAPI/utils"
)

const (
	DefaultRecentTrips = 5
	MaxRecentTrips     = 50
)

type TripStore interface {
	InsertTrip(ctx context.Context, t *trip.Trip) error
	AddProfileTotals(ctx context.Context, userID uuid.UUID, delta profile.Totals) (*profile.Profile, error)
	ListInProgressEnrollments(ctx context.Context, userID uuid.UUID) ([]challenge.Enrollment, error)
	AddEnrollmentProgress(ctx context.Context, enrollmentID uuid.UUID, delta float64) (float64, error)
	ListRecentTrips(ctx context.Context, userID uuid.UUID, limit int) ([]*trip.Trip, error)
}

// TierNotifier is told when a trip lifts an enrollment into a higher medal.
type TierNotifier interface {
	NotifyTierReached(ctx context.Context, userID uuid.UUID, challengeTitle string, tier challenge.Tier) error
}

type ProgressUpdate struct {
	UserChallengeID uuid.UUID      `json:"user_challenge_id"`
	ChallengeID     uuid.UUID      `json:"challenge_id"`
	Title           string         `json:"title"`
	CurrentProgress float64        `json:"current_progress"`
	Progress        float64        `json:"progress"`
	Tier            challenge.Tier `json:"tier"`
}

type SaveTripResult struct {
	Trip              *trip.Trip       `json:"trip"`
	Profile           *profile.Profile `json:"profile,omitempty"`
	UpdatedChallenges []ProgressUpdate `json:"updated_challenges"`
}

type TripService struct {
	store    TripStore
	notifier TierNotifier
	log      *logrus.Entry
	now      func() time.Time
}

func NewTripService(store TripStore, log *logrus.Entry) *TripService {
	return &TripService{
		store: store,
		log:   log.WithField("component", "trip_service"),
		now:   time.Now,
	}
}

// SetTierNotifier enables medal push notifications. Without one, saving
// trips works the same but nobody is notified.
func (s *TripService) SetTierNotifier(n TierNotifier) {
	s.notifier = n
}

// SaveTrip stores the trip, adds it to the profile totals and advances every
// matching in-progress challenge, in that order. The steps are independent
// writes: on a *PersistenceError the returned result holds whatever was
// already written (the trip after a profile failure, the trip, profile and
// earlier challenge updates after a progress failure).
func (s *TripService) SaveTrip(ctx context.Context, userID uuid.UUID, c trip.Candidate) (*SaveTripResult, error) {
	reward := utils.CalculateReward(c.Distance, c.Mode)

	t := &trip.Trip{
		ID:            uuid.New(),
		UserID:        userID,
		FromLocation:  c.FromLocation,
		ToLocation:    c.ToLocation,
		FromLat:       c.From.Lat,
		FromLng:       c.From.Lng,
		ToLat:         c.To.Lat,
		ToLng:         c.To.Lng,
		TransportMode: c.Mode,
		Distance:      c.Distance,
		CO2Saved:      reward.CO2Saved,
		PointsEarned:  reward.Points,
		CreatedAt:     s.now(),
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"trip_id": t.ID,
		"mode":    c.Mode,
	})

	if err := s.store.InsertTrip(ctx, t); err != nil {
		log.WithError(err).Error("Failed to insert trip")
		return nil, &PersistenceError{Step: StepInsertTrip, Err: err}
	}
	metrics.RecordTrip(string(c.Mode), reward.CO2Saved, reward.Points)

	result := &SaveTripResult{Trip: t, UpdatedChallenges: []ProgressUpdate{}}

	p, err := s.store.AddProfileTotals(ctx, userID, profile.Totals{
		Points:   reward.Points,
		CO2Saved: reward.CO2Saved,
		Distance: c.Distance,
	})
	if err != nil {
		log.WithError(err).Error("Trip saved but profile totals were not updated")
		return result, &PersistenceError{Step: StepUpdateProfile, Err: err}
	}
	result.Profile = p

	enrollments, err := s.store.ListInProgressEnrollments(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch in-progress challenges")
		return result, &PersistenceError{Step: StepFetchChallenges, Err: err}
	}

	// progress never moves backwards, even for a degenerate route
	delta := math.Max(0, c.Distance)

	for _, e := range enrollments {
		if !e.Matches(string(c.Mode)) {
			continue
		}

		current, err := s.store.AddEnrollmentProgress(ctx, e.ID, delta)
		if err != nil {
			log.WithError(err).WithField("user_challenge_id", e.ID).Error("Failed to update challenge progress")
			return result, &PersistenceError{Step: StepUpdateProgress, Err: err}
		}

		pct := challenge.ProgressPercent(current, e.TargetValue)
		update := ProgressUpdate{
			UserChallengeID: e.ID,
			ChallengeID:     e.ChallengeID,
			Title:           e.Title,
			CurrentProgress: current,
			Progress:        pct,
			Tier:            challenge.TierFor(pct),
		}
		result.UpdatedChallenges = append(result.UpdatedChallenges, update)

		s.notifyTierCrossing(ctx, userID, e, update.Tier)
	}

	log.WithFields(logrus.Fields{
		"distance":           c.Distance,
		"co2_saved":          reward.CO2Saved,
		"points":             reward.Points,
		"updated_challenges": len(result.UpdatedChallenges),
	}).Info("Trip saved")

	return result, nil
}

func (s *TripService) notifyTierCrossing(ctx context.Context, userID uuid.UUID, e challenge.Enrollment, after challenge.Tier) {
	if s.notifier == nil {
		return
	}

	before := challenge.TierFor(challenge.ProgressPercent(e.CurrentProgress, e.TargetValue))
	if after.Rank() <= before.Rank() {
		return
	}

	if err := s.notifier.NotifyTierReached(ctx, userID, e.Title, after); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":           userID,
			"user_challenge_id": e.ID,
			"tier":              after,
		}).Warn("Failed to send tier notification")
	}
}

func (s *TripService) ListRecentTrips(ctx context.Context, userID uuid.UUID, limit int) ([]*trip.Trip, error) {
	if limit <= 0 {
		limit = DefaultRecentTrips
	}
	if limit > MaxRecentTrips {
		limit = MaxRecentTrips
	}

	trips, err := s.store.ListRecentTrips(ctx, userID, limit)
	if err != nil {
		return nil, &PersistenceError{Step: StepListTrips, Err: err}
	}
	if trips == nil {
		trips = []*trip.Trip{}
	}
	return trips, nil
}
