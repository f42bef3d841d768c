package challenge

import (
	"time"

	"github.com/google/uuid"
)

// Type is what a challenge measures. Besides the transport modes there is
// the generic "distance" type which counts any mode.
type Type string

const (
	TypeWalking  Type = "walking"
	TypeJogging  Type = "jogging"
	TypeCycling  Type = "cycling"
	TypeDistance Type = "distance"
)

type TargetUnit string

const (
	UnitKm    TargetUnit = "km"
	UnitTrips TargetUnit = "trips"
	UnitDays  TargetUnit = "days"
)

type Status string

const (
	StatusInProgress      Status = "in_progress"
	StatusCompletedBronze Status = "completed_bronze"
	StatusCompletedSilver Status = "completed_silver"
	StatusCompletedGold   Status = "completed_gold"
)

type Tier string

const (
	TierNone   Tier = "none"
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

const (
	BronzeThreshold = 33.0
	SilverThreshold = 66.0
	GoldThreshold   = 100.0
)

type Challenge struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Type         Type       `json:"type" db:"type"`
	TargetValue  float64    `json:"target_value" db:"target_value"`
	TargetUnit   TargetUnit `json:"target_unit" db:"target_unit"`
	PointsBronze int        `json:"points_bronze" db:"points_bronze"`
	PointsSilver int        `json:"points_silver" db:"points_silver"`
	PointsGold   int        `json:"points_gold" db:"points_gold"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type UserChallenge struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID     uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	CurrentProgress float64    `json:"current_progress" db:"current_progress"`
	Status          Status     `json:"status" db:"status"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Enrollment is an in-progress UserChallenge joined with the challenge
// fields the progress propagator needs.
type Enrollment struct {
	ID              uuid.UUID
	ChallengeID     uuid.UUID
	Title           string
	CurrentProgress float64
	Type            Type
	TargetValue     float64
	TargetUnit      TargetUnit
}

type ChallengeWithProgress struct {
	Challenge
	UserChallenge   *UserChallenge `json:"user_challenge,omitempty"`
	Progress        float64        `json:"progress"`
	Tier            Tier           `json:"tier"`
	PointsAvailable int            `json:"points_available"`
}

// ProgressPercent is current/target*100. A non-positive target never
// produces progress.
func ProgressPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return current / target * 100
}

// TierFor maps a progress percentage onto the medal it would earn.
func TierFor(progress float64) Tier {
	switch {
	case progress >= GoldThreshold:
		return TierGold
	case progress >= SilverThreshold:
		return TierSilver
	case progress >= BronzeThreshold:
		return TierBronze
	default:
		return TierNone
	}
}

func (t Tier) Rank() int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	default:
		return 0
	}
}

// PointsAvailable is the reward shown for the current progress: gold
// points once complete, silver past the silver mark, bronze otherwise.
func (c Challenge) PointsAvailable(progress float64) int {
	switch {
	case progress >= GoldThreshold:
		return c.PointsGold
	case progress >= SilverThreshold:
		return c.PointsSilver
	default:
		return c.PointsBronze
	}
}

// Matches reports whether a trip in the given mode counts towards e.
func (e Enrollment) Matches(mode string) bool {
	if e.TargetUnit != UnitKm {
		return false
	}
	return string(e.Type) == mode || e.Type == TypeDistance
}
