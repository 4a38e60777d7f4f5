// Package source fetches the raw CSV text of a dataset from a local file, an
// HTTP(S) URL or an S3 object.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound means the dataset does not exist at its location. Callers treat
// it as "no rows" for optional datasets.
var ErrNotFound = errors.New("source not found")

// Source returns the full text of one CSV file.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	// Location identifies the source in logs.
	Location() string
}

// Options carries the settings shared by the network-backed sources.
type Options struct {
	HTTPTimeout time.Duration
	AWSRegion   string
}

// Open picks a Source for loc by scheme: s3://bucket/key, http(s)://... or a
// filesystem path (optionally file://).
func Open(ctx context.Context, loc string, opts Options) (Source, error) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return nil, fmt.Errorf("empty source location")
	}

	scheme, rest, ok := strings.Cut(loc, "://")
	if !ok {
		return NewFile(loc), nil
	}
	switch strings.ToLower(scheme) {
	case "file":
		return NewFile(rest), nil
	case "http", "https":
		if _, err := url.Parse(loc); err != nil {
			return nil, fmt.Errorf("parse source url: %w", err)
		}
		return NewHTTP(loc, opts.HTTPTimeout), nil
	case "s3":
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return nil, fmt.Errorf("s3 source %q must be s3://bucket/key", loc)
		}
		return NewS3(ctx, bucket, key, opts.AWSRegion)
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", scheme)
	}
}
