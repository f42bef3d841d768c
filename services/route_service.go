package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/geocoding"
	"greenMuensterAPI/internal/types/trip"
	"greenMuensterAPI/utils"
)

type Geocoder interface {
	Search(ctx context.Context, place string) (*trip.Coordinates, error)
}

type DirectionsProvider interface {
	Directions(ctx context.Context, from, to trip.Coordinates, mode trip.TransportMode) (*trip.Route, error)
}

// RouteService turns two place names into a route and its reward estimate.
type RouteService struct {
	geocoder   Geocoder
	directions DirectionsProvider
	log        *logrus.Entry
}

func NewRouteService(geocoder Geocoder, directions DirectionsProvider, log *logrus.Entry) *RouteService {
	return &RouteService{
		geocoder:   geocoder,
		directions: directions,
		log:        log.WithField("component", "route_service"),
	}
}

// Geocode checks the landmark table first and only then asks the geocoder.
func (s *RouteService) Geocode(ctx context.Context, place string) (*trip.Coordinates, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, fmt.Errorf("%w: empty place name", ErrLocationNotFound)
	}

	if coords, ok := geocoding.LookupFallback(place); ok {
		return &coords, nil
	}

	coords, err := s.geocoder.Search(ctx, place)
	if err != nil {
		if errors.Is(err, geocoding.ErrNoResults) {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, place)
		}
		return nil, err
	}
	if coords == nil {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, place)
	}
	return coords, nil
}

func (s *RouteService) Route(ctx context.Context, from, to trip.Coordinates, mode trip.TransportMode) (*trip.Route, error) {
	return s.directions.Directions(ctx, from, to, mode)
}

// Estimate resolves both places, then routes between them. Each step waits
// for the previous one; nothing is retried.
func (s *RouteService) Estimate(ctx context.Context, fromPlace, toPlace string, mode trip.TransportMode) (*trip.Estimate, error) {
	from, err := s.Geocode(ctx, fromPlace)
	if err != nil {
		return nil, err
	}

	to, err := s.Geocode(ctx, toPlace)
	if err != nil {
		return nil, err
	}

	route, err := s.Route(ctx, *from, *to, mode)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"from":     fromPlace,
		"to":       toPlace,
		"mode":     mode,
		"distance": route.DistanceKm,
	}).Info("Route estimated")

	return &trip.Estimate{
		FromLocation: fromPlace,
		ToLocation:   toPlace,
		From:         *from,
		To:           *to,
		Mode:         mode,
		Route:        *route,
		Reward:       utils.CalculateReward(route.DistanceKm, mode),
	}, nil
}

func (s *RouteService) Suggest(query string, limit int) []string {
	return geocoding.Suggest(query, limit)
}
