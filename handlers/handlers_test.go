package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"greenMuensterAPI/internal/logger"
	"greenMuensterAPI/internal/types/challenge"
	"greenMuensterAPI/internal/types/leaderboard"
	"greenMuensterAPI/internal/types/profile"
	"greenMuensterAPI/internal/types/trip"
	"greenMuensterAPI/internal/types/weather"
	"greenMuensterAPI/middleware"
	"greenMuensterAPI/services"
)

const testClerkID = "user_2abcXYZ"

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) GetByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	args := m.Called(ctx, clerkID)
	p, _ := args.Get(0).(*profile.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) CreateOrUpdate(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*profile.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) Update(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	args := m.Called(ctx, clerkID, req)
	p, _ := args.Get(0).(*profile.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) Delete(ctx context.Context, clerkID string) error {
	return m.Called(ctx, clerkID).Error(0)
}

type mockRoutes struct{ mock.Mock }

func (m *mockRoutes) Estimate(ctx context.Context, fromPlace, toPlace string, mode trip.TransportMode) (*trip.Estimate, error) {
	args := m.Called(ctx, fromPlace, toPlace, mode)
	e, _ := args.Get(0).(*trip.Estimate)
	return e, args.Error(1)
}

func (m *mockRoutes) Suggest(query string, limit int) []string {
	return m.Called(query, limit).Get(0).([]string)
}

type mockTrips struct{ mock.Mock }

func (m *mockTrips) SaveTrip(ctx context.Context, userID uuid.UUID, c trip.Candidate) (*services.SaveTripResult, error) {
	args := m.Called(ctx, userID, c)
	r, _ := args.Get(0).(*services.SaveTripResult)
	return r, args.Error(1)
}

func (m *mockTrips) ListRecentTrips(ctx context.Context, userID uuid.UUID, limit int) ([]*trip.Trip, error) {
	args := m.Called(ctx, userID, limit)
	t, _ := args.Get(0).([]*trip.Trip)
	return t, args.Error(1)
}

type mockChallenges struct{ mock.Mock }

func (m *mockChallenges) ListChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.ChallengeWithProgress, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]*challenge.ChallengeWithProgress)
	return c, args.Error(1)
}

func (m *mockChallenges) StartChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error) {
	args := m.Called(ctx, userID, challengeID)
	uc, _ := args.Get(0).(*challenge.UserChallenge)
	return uc, args.Error(1)
}

type mockLeaderboard struct{ mock.Mock }

func (m *mockLeaderboard) GetLeaderboard(ctx context.Context, metric leaderboard.Metric, userID uuid.UUID) (*leaderboard.Leaderboard, error) {
	args := m.Called(ctx, metric, userID)
	b, _ := args.Get(0).(*leaderboard.Leaderboard)
	return b, args.Error(1)
}

type stubWeather struct {
	current *weather.Current
	err     error
}

func (s stubWeather) Current(ctx context.Context) (*weather.Current, error) {
	return s.current, s.err
}

func signedInProfile(m *mockProfiles) *profile.Profile {
	p := &profile.Profile{ID: uuid.New(), ClerkID: testClerkID, Username: "eco_2abcxyz", TotalDistance: 400.75}
	m.On("GetByClerkID", mock.Anything, testClerkID).Return(p, nil)
	return p
}

func authedRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(middleware.WithClerkID(req.Context(), testClerkID))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrLocationNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrNoRouteFound), http.StatusNotFound},
		{services.ErrChallengeNotFound, http.StatusNotFound},
		{services.ErrProfileNotFound, http.StatusNotFound},
		{services.ErrMissingCredentials, http.StatusServiceUnavailable},
		{services.ErrInvalidMetric, http.StatusBadRequest},
		{services.ErrAlreadyEnrolled, http.StatusConflict},
		{services.ErrUsernameTaken, http.StatusConflict},
		{&services.PersistenceError{Step: services.StepInsertTrip, Err: errors.New("boom")}, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestEstimateRoute(t *testing.T) {
	estimate := &trip.Estimate{
		FromLocation: "Hauptbahnhof",
		ToLocation:   "Prinzipalmarkt",
		Mode:         trip.ModeCycling,
		Route:        trip.Route{DistanceKm: 2.3, DurationMinutes: 9},
		Reward:       trip.Reward{CarCO2: 0.4416, CO2Saved: 0.4416, Points: 4},
	}

	t.Run("ok", func(t *testing.T) {
		routes := new(mockRoutes)
		routes.On("Estimate", mock.Anything, "Hauptbahnhof", "Prinzipalmarkt", trip.ModeCycling).Return(estimate, nil)
		h := NewTripHandler(routes, new(mockTrips), new(mockProfiles), logger.Discard())

		rr := httptest.NewRecorder()
		h.EstimateRoute(rr, authedRequest(http.MethodPost, "/api/v1/routes/estimate", trip.EstimateRequest{
			FromLocation: "Hauptbahnhof", ToLocation: "Prinzipalmarkt", TransportMode: "cycling",
		}))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, 2.3, body["distance_km"])
		assert.Equal(t, float64(4), body["reward"].(map[string]interface{})["points"])
	})

	t.Run("missing destination", func(t *testing.T) {
		h := NewTripHandler(new(mockRoutes), new(mockTrips), new(mockProfiles), logger.Discard())

		rr := httptest.NewRecorder()
		h.EstimateRoute(rr, authedRequest(http.MethodPost, "/api/v1/routes/estimate", map[string]string{
			"from_location": "Hauptbahnhof", "transport_mode": "cycling",
		}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		fields := decodeBody(t, rr)["fields"].(map[string]interface{})
		assert.Contains(t, fields, "to_location")
	})

	t.Run("unsupported mode", func(t *testing.T) {
		h := NewTripHandler(new(mockRoutes), new(mockTrips), new(mockProfiles), logger.Discard())

		rr := httptest.NewRecorder()
		h.EstimateRoute(rr, authedRequest(http.MethodPost, "/api/v1/routes/estimate", trip.EstimateRequest{
			FromLocation: "a", ToLocation: "b", TransportMode: "teleport",
		}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("service errors", func(t *testing.T) {
		cases := map[error]int{
			services.ErrLocationNotFound:   http.StatusNotFound,
			services.ErrNoRouteFound:       http.StatusNotFound,
			services.ErrMissingCredentials: http.StatusServiceUnavailable,
		}
		for svcErr, code := range cases {
			routes := new(mockRoutes)
			routes.On("Estimate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, svcErr)
			h := NewTripHandler(routes, new(mockTrips), new(mockProfiles), logger.Discard())

			rr := httptest.NewRecorder()
			h.EstimateRoute(rr, authedRequest(http.MethodPost, "/api/v1/routes/estimate", trip.EstimateRequest{
				FromLocation: "Nowhere", ToLocation: "Prinzipalmarkt", TransportMode: "walking",
			}))
			assert.Equal(t, code, rr.Code, svcErr.Error())
		}
	})
}

func TestSuggestPlaces(t *testing.T) {
	routes := new(mockRoutes)
	routes.On("Suggest", "prinz", 3).Return([]string{"Prinzipalmarkt"})
	h := NewTripHandler(routes, new(mockTrips), new(mockProfiles), logger.Discard())

	rr := httptest.NewRecorder()
	h.SuggestPlaces(rr, httptest.NewRequest(http.MethodGet, "/api/v1/places/suggest?q=prinz&limit=3", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{"Prinzipalmarkt"}, decodeBody(t, rr)["suggestions"])

	rr = httptest.NewRecorder()
	h.SuggestPlaces(rr, httptest.NewRequest(http.MethodGet, "/api/v1/places/suggest", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveTrip(t *testing.T) {
	req := trip.SaveTripRequest{
		FromLocation:  "Hauptbahnhof",
		ToLocation:    "Prinzipalmarkt",
		From:          trip.Coordinates{Lat: 51.9625, Lng: 7.6251},
		To:            trip.Coordinates{Lat: 51.9609, Lng: 7.626},
		TransportMode: "cycling",
		Distance:      2.3,
	}

	t.Run("created", func(t *testing.T) {
		profiles := new(mockProfiles)
		p := signedInProfile(profiles)
		trips := new(mockTrips)
		saved := &trip.Trip{ID: uuid.New(), UserID: p.ID, Distance: 2.3, PointsEarned: 4}
		trips.On("SaveTrip", mock.Anything, p.ID, mock.MatchedBy(func(c trip.Candidate) bool {
			return c.Mode == trip.ModeCycling && c.Distance == 2.3 && c.From.Lat == 51.9625
		})).Return(&services.SaveTripResult{Trip: saved, UpdatedChallenges: []services.ProgressUpdate{}}, nil)

		h := NewTripHandler(new(mockRoutes), trips, profiles, logger.Discard())
		rr := httptest.NewRecorder()
		h.SaveTrip(rr, authedRequest(http.MethodPost, "/api/v1/trips", req))

		require.Equal(t, http.StatusCreated, rr.Code)
		trips.AssertExpectations(t)
	})

	t.Run("distance over bound", func(t *testing.T) {
		profiles := new(mockProfiles)
		signedInProfile(profiles)
		trips := new(mockTrips)

		tooFar := req
		tooFar.Distance = 5000

		h := NewTripHandler(new(mockRoutes), trips, profiles, logger.Discard())
		rr := httptest.NewRecorder()
		h.SaveTrip(rr, authedRequest(http.MethodPost, "/api/v1/trips", tooFar))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Contains(t, body["fields"], "distance")
		trips.AssertNotCalled(t, "SaveTrip", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("profile step failed after insert", func(t *testing.T) {
		profiles := new(mockProfiles)
		p := signedInProfile(profiles)
		saved := &trip.Trip{ID: uuid.New(), UserID: p.ID}
		trips := new(mockTrips)
		trips.On("SaveTrip", mock.Anything, p.ID, mock.Anything).Return(
			&services.SaveTripResult{Trip: saved},
			&services.PersistenceError{Step: services.StepUpdateProfile, Err: errors.New("conn reset")},
		)

		h := NewTripHandler(new(mockRoutes), trips, profiles, logger.Discard())
		rr := httptest.NewRecorder()
		h.SaveTrip(rr, authedRequest(http.MethodPost, "/api/v1/trips", req))

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "update_profile", body["step"])
		assert.Equal(t, saved.ID.String(), body["trip_id"])
	})

	t.Run("insert failed", func(t *testing.T) {
		profiles := new(mockProfiles)
		p := signedInProfile(profiles)
		trips := new(mockTrips)
		trips.On("SaveTrip", mock.Anything, p.ID, mock.Anything).Return(
			nil, &services.PersistenceError{Step: services.StepInsertTrip, Err: errors.New("down")},
		)

		h := NewTripHandler(new(mockRoutes), trips, profiles, logger.Discard())
		rr := httptest.NewRecorder()
		h.SaveTrip(rr, authedRequest(http.MethodPost, "/api/v1/trips", req))

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "insert_trip", body["step"])
		assert.NotContains(t, body, "trip_id")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := NewTripHandler(new(mockRoutes), new(mockTrips), new(mockProfiles), logger.Discard())
		rr := httptest.NewRecorder()
		h.SaveTrip(rr, httptest.NewRequest(http.MethodPost, "/api/v1/trips", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("no profile yet", func(t *testing.T) {
		profiles := new(mockProfiles)
		profiles.On("GetByClerkID", mock.Anything, testClerkID).Return(nil, services.ErrProfileNotFound)
		h := NewTripHandler(new(mockRoutes), new(mockTrips), profiles, logger.Discard())

		rr := httptest.NewRecorder()
		h.SaveTrip(rr, authedRequest(http.MethodPost, "/api/v1/trips", req))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListTrips_PassesLimit(t *testing.T) {
	profiles := new(mockProfiles)
	p := signedInProfile(profiles)
	trips := new(mockTrips)
	trips.On("ListRecentTrips", mock.Anything, p.ID, 10).Return([]*trip.Trip{}, nil)

	h := NewTripHandler(new(mockRoutes), trips, profiles, logger.Discard())
	rr := httptest.NewRecorder()
	h.ListTrips(rr, authedRequest(http.MethodGet, "/api/v1/trips?limit=10", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestStartChallenge(t *testing.T) {
	challengeID := uuid.New()

	t.Run("already enrolled", func(t *testing.T) {
		profiles := new(mockProfiles)
		p := signedInProfile(profiles)
		challenges := new(mockChallenges)
		challenges.On("StartChallenge", mock.Anything, p.ID, challengeID).Return(nil, services.ErrAlreadyEnrolled)

		h := NewChallengeHandler(challenges, new(mockLeaderboard), profiles, logger.Discard())
		req := mux.SetURLVars(authedRequest(http.MethodPost, "/api/v1/challenges/x/start", nil), map[string]string{"id": challengeID.String()})
		rr := httptest.NewRecorder()
		h.StartChallenge(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("started", func(t *testing.T) {
		profiles := new(mockProfiles)
		p := signedInProfile(profiles)
		challenges := new(mockChallenges)
		challenges.On("StartChallenge", mock.Anything, p.ID, challengeID).Return(&challenge.UserChallenge{
			ID: uuid.New(), UserID: p.ID, ChallengeID: challengeID, Status: challenge.StatusInProgress,
		}, nil)

		h := NewChallengeHandler(challenges, new(mockLeaderboard), profiles, logger.Discard())
		req := mux.SetURLVars(authedRequest(http.MethodPost, "/", nil), map[string]string{"id": challengeID.String()})
		rr := httptest.NewRecorder()
		h.StartChallenge(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "in_progress", decodeBody(t, rr)["status"])
	})

	t.Run("bad id", func(t *testing.T) {
		profiles := new(mockProfiles)
		signedInProfile(profiles)
		h := NewChallengeHandler(new(mockChallenges), new(mockLeaderboard), profiles, logger.Discard())

		req := mux.SetURLVars(authedRequest(http.MethodPost, "/", nil), map[string]string{"id": "not-a-uuid"})
		rr := httptest.NewRecorder()
		h.StartChallenge(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetLeaderboard(t *testing.T) {
	profiles := new(mockProfiles)
	p := signedInProfile(profiles)
	board := new(mockLeaderboard)
	board.On("GetLeaderboard", mock.Anything, leaderboard.MetricCO2, p.ID).Return(&leaderboard.Leaderboard{
		Metric:  leaderboard.MetricCO2,
		Entries: []*leaderboard.LeaderboardEntry{{UserID: p.ID, Rank: 1}},
	}, nil)

	h := NewChallengeHandler(new(mockChallenges), board, profiles, logger.Discard())

	rr := httptest.NewRecorder()
	h.GetLeaderboard(rr, authedRequest(http.MethodGet, "/api/v1/leaderboard?metric=co2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "co2", decodeBody(t, rr)["metric"])

	rr = httptest.NewRecorder()
	h.GetLeaderboard(rr, authedRequest(http.MethodGet, "/api/v1/leaderboard?metric=karma", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetDashboard_SurvivesWeatherOutage(t *testing.T) {
	profiles := new(mockProfiles)
	p := signedInProfile(profiles)
	trips := new(mockTrips)
	trips.On("ListRecentTrips", mock.Anything, p.ID, services.DefaultRecentTrips).Return([]*trip.Trip{{ID: uuid.New()}}, nil)

	h := NewProfileHandler(profiles, trips, stubWeather{err: errors.New("open-meteo down")}, logger.Discard())
	rr := httptest.NewRecorder()
	h.GetDashboard(rr, authedRequest(http.MethodGet, "/api/v1/dashboard", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.NotContains(t, body, "weather")
	assert.Len(t, body["recent_trips"], 1)
	assert.InDelta(t, 1.0, body["earth_percent"], 0.001)
}

func TestCreateProfile_UsesAuthSubject(t *testing.T) {
	profiles := new(mockProfiles)
	profiles.On("CreateOrUpdate", mock.Anything, mock.MatchedBy(func(req *profile.CreateProfileRequest) bool {
		return req.ClerkID == testClerkID && req.Username == "radler"
	})).Return(&profile.Profile{ID: uuid.New(), ClerkID: testClerkID, Username: "radler"}, nil)

	h := NewProfileHandler(profiles, new(mockTrips), nil, logger.Discard())
	rr := httptest.NewRecorder()
	h.CreateProfile(rr, authedRequest(http.MethodPost, "/api/v1/profile", map[string]string{
		"username": "radler", "clerk_id": "user_someone_else",
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	profiles.AssertExpectations(t)
}

func TestUpdateProfile_UsernameTaken(t *testing.T) {
	profiles := new(mockProfiles)
	profiles.On("Update", mock.Anything, testClerkID, mock.Anything).Return(nil, services.ErrUsernameTaken)

	h := NewProfileHandler(profiles, new(mockTrips), nil, logger.Discard())
	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, authedRequest(http.MethodPut, "/api/v1/profile", map[string]string{"username": "taken"}))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestGetWeather(t *testing.T) {
	h := NewProfileHandler(new(mockProfiles), new(mockTrips), stubWeather{current: &weather.Current{Temperature: 14, Description: "Rain", Icon: "rain"}}, logger.Discard())
	rr := httptest.NewRecorder()
	h.GetWeather(rr, httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Rain", decodeBody(t, rr)["description"])

	h = NewProfileHandler(new(mockProfiles), new(mockTrips), stubWeather{err: errors.New("down")}, logger.Discard())
	rr = httptest.NewRecorder()
	h.GetWeather(rr, httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
