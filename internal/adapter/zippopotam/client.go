// Package zippopotam resolves US ZIP codes through the Zippopotam.us API.
package zippopotam

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
)

// DefaultBaseURL is the public Zippopotam.us endpoint for US postal codes.
const DefaultBaseURL = "https://api.zippopotam.us/us"

// Client implements domain.ZipResolver.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Zippopotam client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// ResolveZip returns the centroid of the first place listed for zip.
// A 404, an empty place list or unparseable coordinates wrap
// domain.ErrZipNotFound; any other failure is transient.
func (c *Client) ResolveZip(ctx context.Context, zip string) (domain.Geo, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(zip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("zip lookup request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Geo{}, fmt.Errorf("zippopotam %s: %w", zip, domain.ErrZipNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Geo{}, fmt.Errorf("zippopotam API error: status %d: %s", resp.StatusCode, body)
	}

	var zr response
	if err := json.NewDecoder(resp.Body).Decode(&zr); err != nil {
		return domain.Geo{}, fmt.Errorf("decode response: %w", err)
	}
	if len(zr.Places) == 0 {
		return domain.Geo{}, fmt.Errorf("zippopotam %s has no places: %w", zip, domain.ErrZipNotFound)
	}

	p := zr.Places[0]
	lat, latErr := strconv.ParseFloat(p.Latitude, 64)
	lon, lonErr := strconv.ParseFloat(p.Longitude, 64)
	g := domain.Geo{Lat: lat, Lon: lon}
	if latErr != nil || lonErr != nil || !g.Valid() {
		c.logger.Warn("zippopotam returned bad coordinates", "zip", zip, "latitude", p.Latitude, "longitude", p.Longitude)
		return domain.Geo{}, fmt.Errorf("zippopotam %s coordinates: %w", zip, domain.ErrZipNotFound)
	}
	return g, nil
}

// Zippopotam API response types. Coordinates arrive as strings.

type response struct {
	PostCode string  `json:"post code"`
	Country  string  `json:"country"`
	Places   []place `json:"places"`
}

type place struct {
	Name      string `json:"place name"`
	State     string `json:"state abbreviation"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}
