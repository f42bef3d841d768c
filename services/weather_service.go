package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/weather"
)

const weatherTTL = 10 * time.Minute

type WeatherProvider interface {
	Current(ctx context.Context) (*weather.Current, error)
}

// WeatherService serves the current conditions in Münster, refreshed at
// most every ten minutes. A stale reading is returned if a refresh fails.
type WeatherService struct {
	provider WeatherProvider
	log      *logrus.Entry
	now      func() time.Time

	mu        sync.Mutex
	cached    *weather.Current
	fetchedAt time.Time
}

func NewWeatherService(provider WeatherProvider, log *logrus.Entry) *WeatherService {
	return &WeatherService{
		provider: provider,
		log:      log.WithField("component", "weather_service"),
		now:      time.Now,
	}
}

func (s *WeatherService) Current(ctx context.Context) (*weather.Current, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.fetchedAt) < weatherTTL {
		return s.cached, nil
	}

	current, err := s.provider.Current(ctx)
	if err != nil {
		if s.cached != nil {
			s.log.WithError(err).Warn("Weather refresh failed, serving cached reading")
			return s.cached, nil
		}
		return nil, err
	}

	s.cached = current
	s.fetchedAt = s.now()
	return current, nil
}
