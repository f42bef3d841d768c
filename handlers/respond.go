package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/profile"
	"greenMuensterAPI/middleware"
	"greenMuensterAPI/services"
	"greenMuensterAPI/utils"
)

const requestTimeout = 5 * time.Second

// ProfileResolver maps the authenticated Clerk subject to a profile.
type ProfileResolver interface {
	GetByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// decodeAndValidate reads a JSON body into dst and runs the struct's
// validate tags. It writes the 400 itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := utils.Validate.Struct(dst); err != nil {
		if fields := utils.FieldErrors(err); fields != nil {
			respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "Validation failed",
				"fields": fields,
			})
			return false
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// currentProfile resolves the caller's profile, answering 401/404 itself.
func currentProfile(ctx context.Context, w http.ResponseWriter, profiles ProfileResolver) (*profile.Profile, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return nil, false
	}

	p, err := profiles.GetByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return nil, false
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return nil, false
	}
	return p, true
}

func parseUUID(w http.ResponseWriter, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrLocationNotFound),
		errors.Is(err, services.ErrNoRouteFound),
		errors.Is(err, services.ErrChallengeNotFound),
		errors.Is(err, services.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrInvalidMetric):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes the mapped status. Persistence failures
// name the step so clients can tell what was already written.
func respondWithServiceError(w http.ResponseWriter, log *logrus.Entry, err error) {
	code := statusFor(err)

	var perr *services.PersistenceError
	if errors.As(err, &perr) {
		log.WithError(err).WithField("step", perr.Step).Error("Persistence failure")
		respondWithJSON(w, code, map[string]interface{}{
			"error": "Failed to save data",
			"step":  perr.Step,
		})
		return
	}

	if code >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		if code == http.StatusInternalServerError {
			respondWithError(w, code, "Internal server error")
			return
		}
	}
	respondWithError(w, code, err.Error())
}
