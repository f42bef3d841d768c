// Package catalog reads the challenge catalog shipped with the seed command.
package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"greenMuensterAPI/internal/types/challenge"
	"greenMuensterAPI/utils"
)

type File struct {
	Challenges []Entry `toml:"challenge"`
}

type Entry struct {
	Title        string  `toml:"title" validate:"notblank"`
	Description  string  `toml:"description"`
	Type         string  `toml:"type" validate:"oneof=walking jogging cycling distance"`
	TargetValue  float64 `toml:"target_value" validate:"gt=0"`
	TargetUnit   string  `toml:"target_unit" validate:"oneof=km trips days"`
	PointsBronze int     `toml:"points_bronze" validate:"gte=0"`
	PointsSilver int     `toml:"points_silver" validate:"gtefield=PointsBronze"`
	PointsGold   int     `toml:"points_gold" validate:"gtefield=PointsSilver"`
	Inactive     bool    `toml:"inactive"`
}

func Load(path string) ([]challenge.Challenge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode parses and validates a catalog. Titles must be unique since they
// key the upsert.
func Decode(r io.Reader) ([]challenge.Challenge, error) {
	var f File
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Challenges))
	out := make([]challenge.Challenge, 0, len(f.Challenges))

	for i, e := range f.Challenges {
		if err := utils.Validate.Struct(e); err != nil {
			return nil, fmt.Errorf("challenge %d (%q): %v", i+1, e.Title, utils.FieldErrors(err))
		}
		if seen[e.Title] {
			return nil, fmt.Errorf("duplicate challenge title %q", e.Title)
		}
		seen[e.Title] = true

		out = append(out, challenge.Challenge{
			Title:        e.Title,
			Description:  e.Description,
			Type:         challenge.Type(e.Type),
			TargetValue:  e.TargetValue,
			TargetUnit:   challenge.TargetUnit(e.TargetUnit),
			PointsBronze: e.PointsBronze,
			PointsSilver: e.PointsSilver,
			PointsGold:   e.PointsGold,
			IsActive:     !e.Inactive,
		})
	}

	return out, nil
}
