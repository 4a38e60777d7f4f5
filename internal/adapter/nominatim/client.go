// Package nominatim forward geocodes places through the OpenStreetMap
// Nominatim search API. It needs no token and serves as the fallback place
// geocoder when Mapbox is not configured.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/anyjiujitsu/openmat-service/internal/observability"
)

const (
	provider = "nominatim"

	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	userAgent = "openmat-service/1.0"
)

// Client implements domain.Geocoder.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode searches for "city, state, USA" and returns the first hit.
// No hit is an empty result with a nil error.
func (c *Client) ForwardGeocode(ctx context.Context, city, state string) (domain.GeocodingResult, error) {
	params := url.Values{
		"format": {"json"},
		"limit":  {"1"},
		"q":      {fmt.Sprintf("%s, %s, USA", city, state)},
	}

	start := time.Now()
	result, err := c.search(ctx, c.baseURL+"/search?"+params.Encode())
	c.metrics.GeocodeAPIDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues(provider, "error").Inc()
	case result.FormattedAddress == "":
		c.metrics.GeocodeRequests.WithLabelValues(provider, "empty").Inc()
		c.logger.Debug("nominatim returned no match", "city", city, "state", state)
	default:
		c.metrics.GeocodeRequests.WithLabelValues(provider, "success").Inc()
	}
	return result, err
}

func (c *Client) search(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}
	// Nominatim's usage policy rejects requests without an identifying agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("nominatim search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodingResult{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var hits []hit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(hits) == 0 {
		return domain.GeocodingResult{}, nil
	}

	h := hits[0]
	lat, latErr := strconv.ParseFloat(h.Lat, 64)
	lon, lonErr := strconv.ParseFloat(h.Lon, 64)
	if latErr != nil || lonErr != nil {
		return domain.GeocodingResult{}, fmt.Errorf("nominatim coordinates %q,%q are not numeric", h.Lat, h.Lon)
	}
	return domain.GeocodingResult{
		Lat:              lat,
		Lon:              lon,
		FormattedAddress: h.DisplayName,
		PlaceName:        h.Name,
		Confidence:       h.Importance,
	}, nil
}

// Nominatim API response types. Coordinates arrive as strings.

type hit struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Name        string  `json:"name"`
	Importance  float64 `json:"importance"`
}
