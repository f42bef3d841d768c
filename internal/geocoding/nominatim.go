package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"greenMuensterAPI/internal/types/trip"
)

const (
	// public Nominatim allows one request per second
	defaultRate      = rate.Limit(1)
	defaultCacheSize = 512
	userAgent        = "greenMuensterAPI/1.0"
	citySuffix       = ", Muenster, Germany"
)

var ErrNoResults = errors.New("geocoder returned no results")

// NominatimClient resolves free text places within Münster.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache
	limiter    *rate.Limiter
	log        *logrus.Entry
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatimClient(baseURL string, httpClient *http.Client, log *logrus.Entry) (*NominatimClient, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	cache, err := lru.New(defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode cache: %w", err)
	}

	return &NominatimClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      cache,
		limiter:    rate.NewLimiter(defaultRate, 1),
		log:        log.WithField("component", "nominatim"),
	}, nil
}

// SetRateLimit overrides the outbound request rate, e.g. for a self-hosted
// instance.
func (c *NominatimClient) SetRateLimit(limit rate.Limit, burst int) {
	c.limiter = rate.NewLimiter(limit, burst)
}

// CityQuery scopes a place to the city unless it already names it.
func CityQuery(place string) string {
	p := strings.ToLower(place)
	if strings.Contains(p, "muenster") || strings.Contains(p, "münster") {
		return place
	}
	return place + citySuffix
}

// Search returns the first match for place. ErrNoResults means the
// geocoder answered but found nothing.
func (c *NominatimClient) Search(ctx context.Context, place string) (*trip.Coordinates, error) {
	query := CityQuery(strings.TrimSpace(place))
	key := strings.ToLower(query)

	if v, ok := c.cache.Get(key); ok {
		coords := v.(trip.Coordinates)
		return &coords, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoding rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geocoding failed: status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}

	coords := trip.Coordinates{Lat: lat, Lng: lng}
	c.cache.Add(key, coords)

	c.log.WithFields(logrus.Fields{
		"query": query,
		"match": results[0].DisplayName,
	}).Debug("Geocoded place")

	return &coords, nil
}
