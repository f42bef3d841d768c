package trip

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TransportMode string

const (
	ModeWalking TransportMode = "walking"
	ModeJogging TransportMode = "jogging"
	ModeCycling TransportMode = "cycling"
	ModeDriving TransportMode = "driving"
)

// ParseMode accepts the four supported modes. "car" is what the web
// client historically sent for driving.
func ParseMode(s string) (TransportMode, error) {
	switch m := TransportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWalking, ModeJogging, ModeCycling, ModeDriving:
		return m, nil
	case "car":
		return ModeDriving, nil
	default:
		return "", fmt.Errorf("unsupported transport mode %q", s)
	}
}

func (m TransportMode) Motorized() bool {
	return m == ModeDriving
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Trip struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	FromLocation  string        `json:"from_location" db:"from_location"`
	ToLocation    string        `json:"to_location" db:"to_location"`
	FromLat       float64       `json:"from_lat" db:"from_lat"`
	FromLng       float64       `json:"from_lng" db:"from_lng"`
	ToLat         float64       `json:"to_lat" db:"to_lat"`
	ToLng         float64       `json:"to_lng" db:"to_lng"`
	TransportMode TransportMode `json:"transport_mode" db:"transport_mode"`
	Distance      float64       `json:"distance" db:"distance"`
	CO2Saved      float64       `json:"co2_saved" db:"co2_saved"`
	PointsEarned  int           `json:"points_earned" db:"points_earned"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// Route is what the directions provider returns for one leg.
type Route struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	Geometry        string  `json:"geometry"`
}

type Reward struct {
	CarCO2   float64 `json:"car_co2"`
	CO2Saved float64 `json:"co2_saved"`
	Points   int     `json:"points"`
}

type Estimate struct {
	FromLocation string        `json:"from_location"`
	ToLocation   string        `json:"to_location"`
	From         Coordinates   `json:"from"`
	To           Coordinates   `json:"to"`
	Mode         TransportMode `json:"transport_mode"`
	Route
	Reward Reward `json:"reward"`
}
