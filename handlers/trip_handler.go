package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/trip"
	"greenMuensterAPI/services"
)

const defaultSuggestions = 5

type RouteEstimator interface {
	Estimate(ctx context.Context, fromPlace, toPlace string, mode trip.TransportMode) (*trip.Estimate, error)
	Suggest(query string, limit int) []string
}

type TripRecorder interface {
	SaveTrip(ctx context.Context, userID uuid.UUID, c trip.Candidate) (*services.SaveTripResult, error)
	ListRecentTrips(ctx context.Context, userID uuid.UUID, limit int) ([]*trip.Trip, error)
}

type TripHandler struct {
	routes   RouteEstimator
	trips    TripRecorder
	profiles ProfileResolver
	log      *logrus.Entry
}

func NewTripHandler(routes RouteEstimator, trips TripRecorder, profiles ProfileResolver, log *logrus.Entry) *TripHandler {
	return &TripHandler{
		routes:   routes,
		trips:    trips,
		profiles: profiles,
		log:      log.WithField("component", "trip_handler"),
	}
}

// EstimateRoute geocodes both places, asks for a route and prices it.
// Nothing is stored.
func (h *TripHandler) EstimateRoute(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	var req trip.EstimateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	mode, err := trip.ParseMode(req.TransportMode)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	estimate, err := h.routes.Estimate(ctx, req.FromLocation, req.ToLocation, mode)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, estimate)
}

func (h *TripHandler) SuggestPlaces(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Search query parameter 'q' is required")
		return
	}

	limit := defaultSuggestions
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": h.routes.Suggest(query, limit),
	})
}

func (h *TripHandler) SaveTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	var req trip.SaveTripRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	mode, err := trip.ParseMode(req.TransportMode)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.trips.SaveTrip(ctx, p.ID, trip.Candidate{
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		From:         req.From,
		To:           req.To,
		Mode:         mode,
		Distance:     req.Distance,
	})
	if err != nil {
		var perr *services.PersistenceError
		if errors.As(err, &perr) && result != nil && result.Trip != nil {
			h.log.WithError(err).WithField("step", perr.Step).Error("Trip partially saved")
			respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   "Trip saved but follow-up updates failed",
				"step":    perr.Step,
				"trip_id": result.Trip.ID,
			})
			return
		}
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	trips, err := h.trips.ListRecentTrips(ctx, p.ID, limit)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, trips)
}
