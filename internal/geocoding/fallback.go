package geocoding

import (
	"strings"

	"greenMuensterAPI/internal/types/trip"
)

type Landmark struct {
	Name   string
	Coords trip.Coordinates
}

// FallbackLandmarks resolve without calling the geocoder. Order matters:
// the first landmark contained in the query wins.
var FallbackLandmarks = []Landmark{
	{Name: "Hauptbahnhof", Coords: trip.Coordinates{Lat: 51.9625, Lng: 7.6251}},
	{Name: "Prinzipalmarkt", Coords: trip.Coordinates{Lat: 51.9609, Lng: 7.626}},
	{Name: "Schloss Münster", Coords: trip.Coordinates{Lat: 51.9618, Lng: 7.6178}},
}

// LookupFallback matches when the lower-cased place contains a landmark name.
func LookupFallback(place string) (trip.Coordinates, bool) {
	p := strings.ToLower(place)
	for _, l := range FallbackLandmarks {
		if strings.Contains(p, strings.ToLower(l.Name)) {
			return l.Coords, true
		}
	}
	return trip.Coordinates{}, false
}
