package profile

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ClerkID       string    `json:"clerk_id" db:"clerk_id"`
	Username      string    `json:"username" db:"username"`
	FullName      string    `json:"full_name" db:"full_name"`
	AvatarURL     *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	CO2Saved      float64   `json:"co2_saved" db:"co2_saved"`
	TotalDistance float64   `json:"total_distance" db:"total_distance"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Totals is the additive contribution of one trip to a profile.
type Totals struct {
	Points   int
	CO2Saved float64
	Distance float64
}
