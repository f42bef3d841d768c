package leaderboard

import "github.com/google/uuid"

type Metric string

const (
	MetricPoints   Metric = "points"
	MetricCO2      Metric = "co2"
	MetricDistance Metric = "distance"
)

const (
	Size                 = 50
	EarthCircumferenceKm = 40075.0
)

// EarthPercent is how far around the equator distanceKm would reach.
func EarthPercent(distanceKm float64) float64 {
	return distanceKm / EarthCircumferenceKm * 100
}

// Column returns the profiles column the metric orders by.
func (m Metric) Column() (string, bool) {
	switch m {
	case MetricPoints:
		return "total_points", true
	case MetricCO2:
		return "co2_saved", true
	case MetricDistance:
		return "total_distance", true
	default:
		return "", false
	}
}

type LeaderboardEntry struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	FullName      string    `json:"full_name" db:"full_name"`
	AvatarURL     *string   `json:"avatar_url" db:"avatar_url"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	CO2Saved      float64   `json:"co2_saved" db:"co2_saved"`
	TotalDistance float64   `json:"total_distance" db:"total_distance"`
	Rank          int       `json:"rank" db:"rank"`
	EarthPercent  float64   `json:"earth_percent" db:"-"`
}

type Leaderboard struct {
	Metric                Metric              `json:"metric"`
	Entries               []*LeaderboardEntry `json:"entries"`
	UserPosition          *LeaderboardEntry   `json:"user_position"`
	TotalUsers            int                 `json:"total_users"`
	CommunityDistance     float64             `json:"community_distance"`
	CommunityEarthPercent float64             `json:"community_earth_percent"`
}
