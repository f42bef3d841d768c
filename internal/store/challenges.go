package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"greenMuensterAPI/internal/types/challenge"
)

const challengeColumns = `id, title, description, type, target_value, target_unit, points_bronze, points_silver, points_gold, is_active, created_at`

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Type,
		&c.TargetValue,
		&c.TargetUnit,
		&c.PointsBronze,
		&c.PointsSilver,
		&c.PointsGold,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *Store) ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE is_active = true ORDER BY created_at, title`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	challenges := []*challenge.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (s *Store) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	c, err := scanChallenge(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

// UpsertChallenge inserts c or updates the challenge with the same title.
func (s *Store) UpsertChallenge(ctx context.Context, c *challenge.Challenge) (uuid.UUID, error) {
	query := `
	INSERT INTO challenges (id, title, description, type, target_value, target_unit,
		points_bronze, points_silver, points_gold, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	ON CONFLICT (title) DO UPDATE SET
		description = EXCLUDED.description,
		type = EXCLUDED.type,
		target_value = EXCLUDED.target_value,
		target_unit = EXCLUDED.target_unit,
		points_bronze = EXCLUDED.points_bronze,
		points_silver = EXCLUDED.points_silver,
		points_gold = EXCLUDED.points_gold,
		is_active = EXCLUDED.is_active
	RETURNING id
	`

	var id uuid.UUID
	err := s.db.QueryRow(ctx, query,
		uuid.New(),
		c.Title,
		c.Description,
		c.Type,
		c.TargetValue,
		c.TargetUnit,
		c.PointsBronze,
		c.PointsSilver,
		c.PointsGold,
		c.IsActive,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert challenge %q: %w", c.Title, err)
	}
	return id, nil
}

func (s *Store) ListUserChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.UserChallenge, error) {
	query := `
	SELECT id, user_id, challenge_id, current_progress, status, started_at, completed_at
	FROM user_challenges
	WHERE user_id = $1
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user challenges: %w", err)
	}
	defer rows.Close()

	var out []*challenge.UserChallenge
	for rows.Next() {
		uc := &challenge.UserChallenge{}
		if err := rows.Scan(
			&uc.ID,
			&uc.UserID,
			&uc.ChallengeID,
			&uc.CurrentProgress,
			&uc.Status,
			&uc.StartedAt,
			&uc.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user challenge: %w", err)
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}

// CreateUserChallenge enrolls the user at zero progress. A second
// enrollment in the same challenge returns ErrConflict.
func (s *Store) CreateUserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error) {
	query := `
	INSERT INTO user_challenges (id, user_id, challenge_id, current_progress, status, started_at)
	VALUES ($1, $2, $3, 0, $4, NOW())
	RETURNING id, user_id, challenge_id, current_progress, status, started_at, completed_at
	`

	uc := &challenge.UserChallenge{}
	err := s.db.QueryRow(ctx, query, uuid.New(), userID, challengeID, challenge.StatusInProgress).Scan(
		&uc.ID,
		&uc.UserID,
		&uc.ChallengeID,
		&uc.CurrentProgress,
		&uc.Status,
		&uc.StartedAt,
		&uc.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to start challenge: %w", err)
	}
	return uc, nil
}

func (s *Store) ListInProgressEnrollments(ctx context.Context, userID uuid.UUID) ([]challenge.Enrollment, error) {
	query := `
	SELECT uc.id, uc.challenge_id, c.title, uc.current_progress, c.type, c.target_value, c.target_unit
	FROM user_challenges uc
	JOIN challenges c ON c.id = uc.challenge_id
	WHERE uc.user_id = $1 AND uc.status = $2
	`

	rows, err := s.db.Query(ctx, query, userID, challenge.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrollments: %w", err)
	}
	defer rows.Close()

	var out []challenge.Enrollment
	for rows.Next() {
		var e challenge.Enrollment
		if err := rows.Scan(
			&e.ID,
			&e.ChallengeID,
			&e.Title,
			&e.CurrentProgress,
			&e.Type,
			&e.TargetValue,
			&e.TargetUnit,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddEnrollmentProgress increments progress in place and returns the new
// value.
func (s *Store) AddEnrollmentProgress(ctx context.Context, enrollmentID uuid.UUID, delta float64) (float64, error) {
	var current float64
	err := s.db.QueryRow(ctx,
		`UPDATE user_challenges SET current_progress = current_progress + $2 WHERE id = $1 RETURNING current_progress`,
		enrollmentID, delta,
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to update progress: %w", notFound(err))
	}
	return current, nil
}
