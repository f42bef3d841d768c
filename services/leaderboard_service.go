package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"greenMuensterAPI/internal/types/leaderboard"
)

type LeaderboardStore interface {
	Leaderboard(ctx context.Context, metric leaderboard.Metric, userID uuid.UUID, limit int) (*leaderboard.Leaderboard, error)
}

type LeaderboardService struct {
	store LeaderboardStore
}

func NewLeaderboardService(store LeaderboardStore) *LeaderboardService {
	return &LeaderboardService{store: store}
}

// ParseMetric defaults to points on an empty value.
func ParseMetric(s string) (leaderboard.Metric, error) {
	m := leaderboard.Metric(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return leaderboard.MetricPoints, nil
	}
	if _, ok := m.Column(); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
	}
	return m, nil
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, metric leaderboard.Metric, userID uuid.UUID) (*leaderboard.Leaderboard, error) {
	if _, ok := metric.Column(); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetric, metric)
	}

	board, err := s.store.Leaderboard(ctx, metric, userID, leaderboard.Size)
	if err != nil {
		return nil, err
	}

	for _, e := range board.Entries {
		e.EarthPercent = leaderboard.EarthPercent(e.TotalDistance)
	}
	if board.UserPosition != nil {
		board.UserPosition.EarthPercent = leaderboard.EarthPercent(board.UserPosition.TotalDistance)
	}
	board.CommunityEarthPercent = leaderboard.EarthPercent(board.CommunityDistance)

	return board, nil
}
