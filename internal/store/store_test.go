package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenMuensterAPI/internal/types/challenge"
	"greenMuensterAPI/internal/types/leaderboard"
	"greenMuensterAPI/internal/types/profile"
	"greenMuensterAPI/internal/types/trip"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the schema. Tests
// are skipped when it is unset.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	t.Cleanup(pool.Close)
	return pool
}

func createTestProfile(t *testing.T, s *Store) *profile.Profile {
	t.Helper()

	clerkID := "user_test_" + uuid.NewString()
	p, err := s.UpsertProfile(context.Background(), &profile.CreateProfileRequest{
		ClerkID:  clerkID,
		Username: "test_" + clerkID[len(clerkID)-12:],
		FullName: "Test User",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		s.DeleteProfileByClerkID(context.Background(), clerkID)
	})
	return p
}

func TestProfileLifecycle(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	p := createTestProfile(t, s)
	assert.Equal(t, 0, p.TotalPoints)

	got, err := s.GetProfileByClerkID(ctx, p.ClerkID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	updated, err := s.UpdateProfile(ctx, p.ClerkID, &profile.UpdateProfileRequest{FullName: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)
	assert.Equal(t, p.Username, updated.Username)

	_, err = s.GetProfileByClerkID(ctx, "user_does_not_exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddProfileTotals_Accumulates(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	p := createTestProfile(t, s)

	_, err := s.AddProfileTotals(ctx, p.ID, profile.Totals{Points: 4, CO2Saved: 0.4416, Distance: 2.3})
	require.NoError(t, err)
	got, err := s.AddProfileTotals(ctx, p.ID, profile.Totals{Points: 4, CO2Saved: 0.4416, Distance: 2.3})
	require.NoError(t, err)

	assert.Equal(t, 8, got.TotalPoints)
	assert.InDelta(t, 4.6, got.TotalDistance, 1e-9)
}

func TestTripsAndEnrollments(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	p := createTestProfile(t, s)

	cid, err := s.UpsertChallenge(ctx, &challenge.Challenge{
		Title:        fmt.Sprintf("Test Challenge %d", time.Now().UnixNano()),
		Type:         challenge.TypeCycling,
		TargetValue:  60,
		TargetUnit:   challenge.UnitKm,
		PointsBronze: 20,
		PointsSilver: 40,
		PointsGold:   80,
		IsActive:     true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.db.Exec(context.Background(), `DELETE FROM challenges WHERE id = $1`, cid)
	})

	uc, err := s.CreateUserChallenge(ctx, p.ID, cid)
	require.NoError(t, err)
	_, err = s.CreateUserChallenge(ctx, p.ID, cid)
	assert.ErrorIs(t, err, ErrConflict)

	enrollments, err := s.ListInProgressEnrollments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, uc.ID, enrollments[0].ID)

	current, err := s.AddEnrollmentProgress(ctx, uc.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, current)

	tr := &trip.Trip{
		ID:            uuid.New(),
		UserID:        p.ID,
		FromLocation:  "Hauptbahnhof",
		ToLocation:    "Prinzipalmarkt",
		TransportMode: trip.ModeCycling,
		Distance:      5,
		CO2Saved:      0.96,
		PointsEarned:  10,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, s.InsertTrip(ctx, tr))

	trips, err := s.ListRecentTrips(ctx, p.ID, 5)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, trip.ModeCycling, trips[0].TransportMode)
}

func TestLeaderboard_IncludesUserPosition(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	p := createTestProfile(t, s)

	board, err := s.Leaderboard(ctx, leaderboard.MetricPoints, p.ID, 1000)
	require.NoError(t, err)
	require.NotNil(t, board.UserPosition)
	assert.Equal(t, p.ID, board.UserPosition.UserID)
	assert.GreaterOrEqual(t, board.TotalUsers, 1)
}
