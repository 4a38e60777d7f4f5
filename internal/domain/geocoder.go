package domain

import (
	"context"
	"errors"
)

// ErrZipNotFound is returned by a ZipResolver when the ZIP code does not
// exist. It is a definitive answer; any other error is transient.
var ErrZipNotFound = errors.New("zip code not found")

// ZipResolver looks up the centroid of a US ZIP code over the network.
type ZipResolver interface {
	ResolveZip(ctx context.Context, zip string) (Geo, error)
}

// CoordinateStore persists resolved ZIP coordinates across restarts.
type CoordinateStore interface {
	// Get returns the stored coordinates and whether they were present.
	Get(ctx context.Context, zip string) (Geo, bool, error)
	Set(ctx context.Context, zip string, g Geo) error
}

// GeocodingResult contains location data returned by a place geocoder.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geo returns the result's coordinates.
func (r GeocodingResult) Geo() Geo { return Geo{Lat: r.Lat, Lon: r.Lon} }

// Geocoder resolves a city and state to coordinates. It fills in directory
// rows that were entered without LAT/LON.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, city, state string) (GeocodingResult, error)
}
