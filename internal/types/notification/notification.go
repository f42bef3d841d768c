package notification

import (
	"time"

	"github.com/google/uuid"
)

type DeviceToken struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android web"`
}

// ProgressEvent is published whenever an enrollment's progress row changes.
type ProgressEvent struct {
	UserChallengeID uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	ChallengeID     uuid.UUID `json:"challenge_id"`
	CurrentProgress float64   `json:"current_progress"`
	Status          string    `json:"status"`
}
