package utils

import (
	"math"

	"greenMuensterAPI/internal/types/trip"
)

// kg of CO2 per km. Only driving emits.
var EmissionFactors = map[trip.TransportMode]float64{
	trip.ModeDriving: 0.192,
	trip.ModeCycling: 0,
	trip.ModeWalking: 0,
	trip.ModeJogging: 0,
}

const PointsPerKgCO2 = 10

func EmissionFactor(mode trip.TransportMode) float64 {
	if !mode.Motorized() {
		return 0
	}
	return EmissionFactors[mode]
}

// CalculateReward compares the chosen mode against driving the same
// distance. Avoided emissions never go below zero.
func CalculateReward(distanceKm float64, mode trip.TransportMode) trip.Reward {
	carCO2 := distanceKm * EmissionFactor(trip.ModeDriving)
	modeCO2 := distanceKm * EmissionFactor(mode)

	saved := math.Max(0, carCO2-modeCO2)

	return trip.Reward{
		CarCO2:   carCO2,
		CO2Saved: saved,
		Points:   int(math.Round(saved * PointsPerKgCO2)),
	}
}
