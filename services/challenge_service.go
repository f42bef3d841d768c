package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/store"
	"greenMuensterAPI/internal/types/challenge"
)

type ChallengeStore interface {
	ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error)
	GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	ListUserChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.UserChallenge, error)
	CreateUserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error)
	UpsertChallenge(ctx context.Context, c *challenge.Challenge) (uuid.UUID, error)
}

type ChallengeService struct {
	store ChallengeStore
	log   *logrus.Entry
}

func NewChallengeService(store ChallengeStore, log *logrus.Entry) *ChallengeService {
	return &ChallengeService{
		store: store,
		log:   log.WithField("component", "challenge_service"),
	}
}

// ListChallenges returns every active challenge with the user's enrollment,
// if any, and its medal projection. Tier is derived from live progress; the
// stored status is not consulted.
func (s *ChallengeService) ListChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.ChallengeWithProgress, error) {
	challenges, err := s.store.ListActiveChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	enrolled, err := s.store.ListUserChallenges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	byChallenge := make(map[uuid.UUID]*challenge.UserChallenge, len(enrolled))
	for _, uc := range enrolled {
		byChallenge[uc.ChallengeID] = uc
	}

	out := make([]*challenge.ChallengeWithProgress, 0, len(challenges))
	for _, c := range challenges {
		item := &challenge.ChallengeWithProgress{
			Challenge: *c,
			Tier:      challenge.TierNone,
		}
		if uc, ok := byChallenge[c.ID]; ok {
			item.UserChallenge = uc
			item.Progress = challenge.ProgressPercent(uc.CurrentProgress, c.TargetValue)
			item.Tier = challenge.TierFor(item.Progress)
		}
		item.PointsAvailable = c.PointsAvailable(item.Progress)
		out = append(out, item)
	}

	return out, nil
}

func (s *ChallengeService) StartChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrChallengeNotFound
	}

	uc, err := s.store.CreateUserChallenge(ctx, userID, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"challenge_id": challengeID,
		"title":        c.Title,
	}).Info("Challenge started")

	return uc, nil
}

// Seed upserts a catalog of challenges keyed by title and returns how many
// were written.
func (s *ChallengeService) Seed(ctx context.Context, catalog []challenge.Challenge) (int, error) {
	for i := range catalog {
		id, err := s.store.UpsertChallenge(ctx, &catalog[i])
		if err != nil {
			return i, err
		}
		s.log.WithFields(logrus.Fields{"id": id, "title": catalog[i].Title}).Debug("Seeded challenge")
	}
	return len(catalog), nil
}
