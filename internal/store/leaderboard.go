package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"greenMuensterAPI/internal/types/leaderboard"
)

// Leaderboard ranks profiles by the metric's column. The user's own row is
// looked up separately so it is present even outside the top entries.
func (s *Store) Leaderboard(ctx context.Context, metric leaderboard.Metric, userID uuid.UUID, limit int) (*leaderboard.Leaderboard, error) {
	column, ok := metric.Column()
	if !ok {
		return nil, fmt.Errorf("unknown leaderboard metric %q", metric)
	}

	// column comes from a fixed whitelist. Ties share no rank; username
	// breaks them so positions are stable between requests.
	ranked := `
	SELECT id, username, full_name, avatar_url, total_points, co2_saved, total_distance,
		ROW_NUMBER() OVER (ORDER BY ` + column + ` DESC, username, id) AS rank
	FROM profiles
	`

	rows, err := s.db.Query(ctx, ranked+` ORDER BY rank LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	board := &leaderboard.Leaderboard{Metric: metric, Entries: []*leaderboard.LeaderboardEntry{}}

	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.FullName,
			&entry.AvatarURL,
			&entry.TotalPoints,
			&entry.CO2Saved,
			&entry.TotalDistance,
			&entry.Rank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		board.Entries = append(board.Entries, entry)
		if entry.UserID == userID {
			board.UserPosition = entry
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	if board.UserPosition == nil && userID != uuid.Nil {
		entry := &leaderboard.LeaderboardEntry{}
		err := s.db.QueryRow(ctx, `SELECT * FROM (`+ranked+`) r WHERE r.id = $1`, userID).Scan(
			&entry.UserID,
			&entry.Username,
			&entry.FullName,
			&entry.AvatarURL,
			&entry.TotalPoints,
			&entry.CO2Saved,
			&entry.TotalDistance,
			&entry.Rank,
		)
		if err == nil {
			board.UserPosition = entry
		} else if notFound(err) != ErrNotFound {
			return nil, fmt.Errorf("failed to fetch user position: %w", err)
		}
	}

	err = s.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_distance), 0) FROM profiles`,
	).Scan(&board.TotalUsers, &board.CommunityDistance)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch community totals: %w", err)
	}

	return board, nil
}
