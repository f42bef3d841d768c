package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"greenMuensterAPI/internal/types/trip"
)

func (s *Store) InsertTrip(ctx context.Context, t *trip.Trip) error {
	query := `
	INSERT INTO trips (id, user_id, from_location, to_location, from_lat, from_lng, to_lat, to_lng,
		transport_mode, distance, co2_saved, points_earned, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.FromLocation,
		t.ToLocation,
		t.FromLat,
		t.FromLng,
		t.ToLat,
		t.ToLng,
		t.TransportMode,
		t.Distance,
		t.CO2Saved,
		t.PointsEarned,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

func (s *Store) ListRecentTrips(ctx context.Context, userID uuid.UUID, limit int) ([]*trip.Trip, error) {
	query := `
	SELECT id, user_id, from_location, to_location, from_lat, from_lng, to_lat, to_lng,
		transport_mode, distance, co2_saved, points_earned, created_at
	FROM trips
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := []*trip.Trip{}
	for rows.Next() {
		t := &trip.Trip{}
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.FromLocation,
			&t.ToLocation,
			&t.FromLat,
			&t.FromLng,
			&t.ToLat,
			&t.ToLng,
			&t.TransportMode,
			&t.Distance,
			&t.CO2Saved,
			&t.PointsEarned,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}

	return trips, rows.Err()
}
