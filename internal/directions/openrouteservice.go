package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/trip"
)

var (
	ErrMissingAPIKey = errors.New("OpenRouteService API key is missing")
	ErrNoRoute       = errors.New("no route found")
)

// Profiles maps our transport modes onto the ORS vocabulary. Walking and
// jogging share the pedestrian profile.
var Profiles = map[trip.TransportMode]string{
	trip.ModeWalking: "foot-walking",
	trip.ModeJogging: "foot-walking",
	trip.ModeCycling: "cycling-regular",
	trip.ModeDriving: "driving-car",
}

type ORSClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Entry
}

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
	// ORS sends either {"code":..,"message":..} or a bare string here
	Error json.RawMessage `json:"error,omitempty"`
}

func (r directionsResponse) errorMessage() string {
	if len(r.Error) == 0 {
		return ""
	}
	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Error, &detail); err == nil && detail.Message != "" {
		return detail.Message
	}
	var plain string
	if err := json.Unmarshal(r.Error, &plain); err == nil {
		return plain
	}
	return string(r.Error)
}

func NewORSClient(baseURL, apiKey string, httpClient *http.Client, log *logrus.Entry) *ORSClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ORSClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log.WithField("component", "openrouteservice"),
	}
}

// Directions requests a single route between two points.
func (c *ORSClient) Directions(ctx context.Context, from, to trip.Coordinates, mode trip.TransportMode) (*trip.Route, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	profile, ok := Profiles[mode]
	if !ok {
		return nil, fmt.Errorf("no routing profile for mode %q", mode)
	}

	body, err := json.Marshal(directionsRequest{
		Coordinates: [][2]float64{
			{from.Lng, from.Lat},
			{to.Lng, to.Lat},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode directions request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/directions/"+profile, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build directions request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var data directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode directions response (status %d): %w", resp.StatusCode, err)
	}

	if len(data.Routes) == 0 {
		// ORS answers 404 when a point cannot be snapped to the network
		if resp.StatusCode < 300 || resp.StatusCode == http.StatusNotFound {
			return nil, ErrNoRoute
		}
		msg := data.errorMessage()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("directions failed: status %d: %s", resp.StatusCode, msg)
	}

	route := data.Routes[0]

	c.log.WithFields(logrus.Fields{
		"profile":  profile,
		"distance": route.Summary.Distance,
	}).Debug("Route calculated")

	return &trip.Route{
		DistanceKm:      route.Summary.Distance / 1000,
		DurationMinutes: route.Summary.Duration / 60,
		Geometry:        route.Geometry,
	}, nil
}
