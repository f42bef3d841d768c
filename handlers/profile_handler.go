package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/leaderboard"
	"greenMuensterAPI/internal/types/profile"
	"greenMuensterAPI/internal/types/trip"
	"greenMuensterAPI/internal/types/weather"
	"greenMuensterAPI/middleware"
	"greenMuensterAPI/services"
)

type ProfileManager interface {
	ProfileResolver
	CreateOrUpdate(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error)
	Update(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error)
	Delete(ctx context.Context, clerkID string) error
}

type TripLister interface {
	ListRecentTrips(ctx context.Context, userID uuid.UUID, limit int) ([]*trip.Trip, error)
}

type WeatherReader interface {
	Current(ctx context.Context) (*weather.Current, error)
}

type ProfileHandler struct {
	profiles ProfileManager
	trips    TripLister
	weather  WeatherReader
	log      *logrus.Entry
}

func NewProfileHandler(profiles ProfileManager, trips TripLister, weather WeatherReader, log *logrus.Entry) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		trips:    trips,
		weather:  weather,
		log:      log.WithField("component", "profile_handler"),
	}
}

type Dashboard struct {
	Profile      *profile.Profile `json:"profile"`
	EarthPercent float64          `json:"earth_percent"`
	RecentTrips  []*trip.Trip     `json:"recent_trips"`
	Weather      *weather.Current `json:"weather,omitempty"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// CreateProfile lets a client create its own profile when the signup
// webhook has not arrived yet. Repeating it is harmless.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body profile.UpdateProfileRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	p, err := h.profiles.CreateOrUpdate(ctx, &profile.CreateProfileRequest{
		ClerkID:   clerkID,
		Username:  body.Username,
		FullName:  body.FullName,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req profile.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.profiles.Update(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.profiles.Delete(ctx, clerkID); err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// GetDashboard bundles the profile totals, the latest trips and the
// weather. A weather outage leaves the field out instead of failing.
func (h *ProfileHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	trips, err := h.trips.ListRecentTrips(ctx, p.ID, services.DefaultRecentTrips)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	dashboard := Dashboard{
		Profile:      p,
		EarthPercent: leaderboard.EarthPercent(p.TotalDistance),
		RecentTrips:  trips,
	}

	if h.weather != nil {
		current, err := h.weather.Current(ctx)
		if err != nil {
			h.log.WithError(err).Warn("Weather unavailable for dashboard")
		} else {
			dashboard.Weather = current
		}
	}

	respondWithJSON(w, http.StatusOK, dashboard)
}

func (h *ProfileHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	current, err := h.weather.Current(ctx)
	if err != nil {
		h.log.WithError(err).Error("Failed to fetch weather")
		respondWithError(w, http.StatusBadGateway, "Weather service unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, current)
}
