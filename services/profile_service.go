package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/store"
	"greenMuensterAPI/internal/types/profile"
)

var ErrUsernameTaken = errors.New("username already taken")

type ProfileStore interface {
	GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	UpsertProfile(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error)
	UpdateProfile(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error)
	DeleteProfileByClerkID(ctx context.Context, clerkID string) error
}

type ProfileService struct {
	store ProfileStore
	log   *logrus.Entry
}

func NewProfileService(store ProfileStore, log *logrus.Entry) *ProfileService {
	return &ProfileService{
		store: store,
		log:   log.WithField("component", "profile_service"),
	}
}

func mapProfileErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrProfileNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrUsernameTaken
	default:
		return err
	}
}

func (s *ProfileService) GetByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	p, err := s.store.GetProfileByClerkID(ctx, clerkID)
	if err != nil {
		return nil, mapProfileErr(err)
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, mapProfileErr(err)
	}
	return p, nil
}

// CreateOrUpdate is idempotent per Clerk user: replaying the same signup
// refreshes the display fields and keeps the totals.
func (s *ProfileService) CreateOrUpdate(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		req.Username = DefaultUsername(req.ClerkID)
	}

	p, err := s.store.UpsertProfile(ctx, req)
	if err != nil {
		return nil, mapProfileErr(err)
	}

	s.log.WithFields(logrus.Fields{"clerk_id": req.ClerkID, "profile_id": p.ID}).Info("Profile saved")
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	req.Username = strings.TrimSpace(req.Username)
	p, err := s.store.UpdateProfile(ctx, clerkID, req)
	if err != nil {
		return nil, mapProfileErr(err)
	}
	return p, nil
}

func (s *ProfileService) Delete(ctx context.Context, clerkID string) error {
	if err := s.store.DeleteProfileByClerkID(ctx, clerkID); err != nil {
		return mapProfileErr(err)
	}
	s.log.WithField("clerk_id", clerkID).Info("Profile deleted")
	return nil
}

// DefaultUsername derives a stable placeholder from the Clerk user ID, e.g.
// "user_2abcXYZ" becomes "eco_2abcxyz".
func DefaultUsername(clerkID string) string {
	id := strings.ToLower(strings.TrimPrefix(clerkID, "user_"))
	if len(id) > 12 {
		id = id[:12]
	}
	return fmt.Sprintf("eco_%s", id)
}
