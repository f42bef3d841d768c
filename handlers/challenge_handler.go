package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/challenge"
	"greenMuensterAPI/internal/types/leaderboard"
	"greenMuensterAPI/services"
)

type ChallengeLister interface {
	ListChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.ChallengeWithProgress, error)
	StartChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error)
}

type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, metric leaderboard.Metric, userID uuid.UUID) (*leaderboard.Leaderboard, error)
}

type ChallengeHandler struct {
	challenges  ChallengeLister
	leaderboard LeaderboardReader
	profiles    ProfileResolver
	log         *logrus.Entry
}

func NewChallengeHandler(challenges ChallengeLister, leaderboard LeaderboardReader, profiles ProfileResolver, log *logrus.Entry) *ChallengeHandler {
	return &ChallengeHandler{
		challenges:  challenges,
		leaderboard: leaderboard,
		profiles:    profiles,
		log:         log.WithField("component", "challenge_handler"),
	}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	challenges, err := h.challenges.ListChallenges(ctx, p.ID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) StartChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	challengeID, ok := parseUUID(w, mux.Vars(r)["id"], "challenge id")
	if !ok {
		return
	}

	uc, err := h.challenges.StartChallenge(ctx, p.ID, challengeID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, uc)
}

// GetLeaderboard reads ?metric=points|co2|distance, points by default.
func (h *ChallengeHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	metric, err := services.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid metric, use points, co2 or distance")
		return
	}

	board, err := h.leaderboard.GetLeaderboard(ctx, metric, p.ID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
