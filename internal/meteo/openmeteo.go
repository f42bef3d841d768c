package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"greenMuensterAPI/internal/types/trip"
	"greenMuensterAPI/internal/types/weather"
)

// Muenster is where the current conditions are read for.
var Muenster = trip.Coordinates{Lat: 51.9625, Lng: 7.6251}

type OpenMeteoClient struct {
	baseURL    string
	location   trip.Coordinates
	timezone   string
	httpClient *http.Client
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

func NewOpenMeteoClient(baseURL string, httpClient *http.Client) *OpenMeteoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenMeteoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		location:   Muenster,
		timezone:   "Europe/Berlin",
		httpClient: httpClient,
	}
}

func (c *OpenMeteoClient) Current(ctx context.Context) (*weather.Current, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.location.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.location.Lng, 'f', -1, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")
	params.Set("timezone", c.timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch weather data: status %d", resp.StatusCode)
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	desc, icon := weather.Describe(data.Current.WeatherCode)

	return &weather.Current{
		Temperature: int(math.Round(data.Current.Temperature)),
		Description: desc,
		Humidity:    data.Current.Humidity,
		WindSpeed:   data.Current.WindSpeed,
		Icon:        icon,
	}, nil
}
