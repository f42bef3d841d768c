package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"greenMuensterAPI/internal/types/profile"
)

const profileColumns = `id, clerk_id, username, full_name, avatar_url, total_points, co2_saved, total_distance, created_at, updated_at`

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	p := &profile.Profile{}
	err := row.Scan(
		&p.ID,
		&p.ClerkID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.TotalPoints,
		&p.CO2Saved,
		&p.TotalDistance,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *Store) GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE clerk_id = $1`
	p, err := scanProfile(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile creates the profile for a Clerk user, or refreshes its
// display fields when it already exists. Totals are never touched.
func (s *Store) UpsertProfile(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error) {
	var avatar *string
	if req.AvatarURL != "" {
		avatar = &req.AvatarURL
	}

	query := `
	INSERT INTO profiles (id, clerk_id, username, full_name, avatar_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (clerk_id) DO UPDATE SET
		username = EXCLUDED.username,
		full_name = EXCLUDED.full_name,
		avatar_url = EXCLUDED.avatar_url,
		updated_at = NOW()
	RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(ctx, query, uuid.New(), req.ClerkID, req.Username, req.FullName, avatar))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %q: %w", req.Username, ErrConflict)
		}
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return p, nil
}

// UpdateProfile applies the non-empty fields of req.
func (s *Store) UpdateProfile(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	query := `
	UPDATE profiles SET
		username = COALESCE(NULLIF($2, ''), username),
		full_name = COALESCE(NULLIF($3, ''), full_name),
		avatar_url = COALESCE(NULLIF($4, ''), avatar_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(ctx, query, clerkID, req.Username, req.FullName, req.AvatarURL))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %q: %w", req.Username, ErrConflict)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

func (s *Store) DeleteProfileByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddProfileTotals increments the running totals in place, so concurrent
// saves for the same user cannot overwrite each other.
func (s *Store) AddProfileTotals(ctx context.Context, userID uuid.UUID, delta profile.Totals) (*profile.Profile, error) {
	query := `
	UPDATE profiles SET
		total_points = total_points + $2,
		co2_saved = co2_saved + $3,
		total_distance = total_distance + $4,
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(ctx, query, userID, delta.Points, delta.CO2Saved, delta.Distance))
	if err != nil {
		return nil, fmt.Errorf("failed to update profile totals: %w", err)
	}
	return p, nil
}
