// Package locator resolves US ZIP codes to coordinates for the distance filter.
//
// Lookups go memory → persisted store → network. Answers are memoized for the
// life of the process since postal-code centroids do not move. At most one
// resolution per ZIP is in flight at a time; every caller that asks while it
// runs joins the same flight.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/anyjiujitsu/openmat-service/internal/observability"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a background resolution started by Locate.
const DefaultTimeout = 10 * time.Second

type memoEntry struct {
	geo   domain.Geo
	found bool
}

// Locator implements domain.ZipLocator.
type Locator struct {
	resolver domain.ZipResolver
	store    domain.CoordinateStore
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	group singleflight.Group

	mu   sync.RWMutex
	memo map[string]memoEntry
}

// New creates a Locator. store may be nil, in which case answers live only in
// memory. A non-positive timeout selects DefaultTimeout.
func New(resolver domain.ZipResolver, store domain.CoordinateStore, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Locator{
		resolver: resolver,
		store:    store,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
		memo:     make(map[string]memoEntry),
	}
}

// Locate answers from memory when it can. Otherwise it joins or starts a
// background resolution, returns domain.LocatePending, and calls onUpdate
// exactly once when that resolution ends, whatever its outcome.
func (l *Locator) Locate(zip string, onUpdate func()) (domain.Geo, domain.LocateStatus) {
	if !domain.ValidZIP(zip) {
		return domain.Geo{}, domain.LocateUnresolvable
	}
	if e, ok := l.cached(zip); ok {
		l.metrics.ZipLookups.WithLabelValues("memory").Inc()
		if !e.found {
			return domain.Geo{}, domain.LocateUnresolvable
		}
		return e.geo, domain.LocateResolved
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		if _, err := l.resolve(ctx, zip); err != nil && !errors.Is(err, domain.ErrZipNotFound) {
			l.logger.Warn("zip lookup failed", "zip", zip, "error", err)
		}
		if onUpdate != nil {
			onUpdate()
		}
	}()
	return domain.Geo{}, domain.LocatePending
}

// Resolve blocks until zip is resolved. It returns an error wrapping
// domain.ErrZipNotFound for malformed or nonexistent ZIP codes.
func (l *Locator) Resolve(ctx context.Context, zip string) (domain.Geo, error) {
	if !domain.ValidZIP(zip) {
		return domain.Geo{}, fmt.Errorf("invalid zip %q: %w", zip, domain.ErrZipNotFound)
	}
	if e, ok := l.cached(zip); ok {
		l.metrics.ZipLookups.WithLabelValues("memory").Inc()
		if !e.found {
			return domain.Geo{}, fmt.Errorf("zip %s: %w", zip, domain.ErrZipNotFound)
		}
		return e.geo, nil
	}
	return l.resolve(ctx, zip)
}

func (l *Locator) cached(zip string) (memoEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.memo[zip]
	return e, ok
}

func (l *Locator) remember(zip string, e memoEntry) {
	l.mu.Lock()
	l.memo[zip] = e
	l.mu.Unlock()
}

func (l *Locator) resolve(ctx context.Context, zip string) (domain.Geo, error) {
	v, err, _ := l.group.Do(zip, func() (any, error) {
		return l.lookup(ctx, zip)
	})
	if err != nil {
		return domain.Geo{}, err
	}
	return v.(domain.Geo), nil
}

// lookup runs inside the single flight for zip.
func (l *Locator) lookup(ctx context.Context, zip string) (domain.Geo, error) {
	// A flight that finished between the caller's memo check and this one
	// starting has already answered.
	if e, ok := l.cached(zip); ok {
		if !e.found {
			return domain.Geo{}, fmt.Errorf("zip %s: %w", zip, domain.ErrZipNotFound)
		}
		return e.geo, nil
	}

	if l.store != nil {
		g, ok, err := l.store.Get(ctx, zip)
		switch {
		case err != nil:
			l.logger.Warn("zip store read failed", "zip", zip, "error", err)
		case ok:
			l.metrics.ZipLookups.WithLabelValues("store").Inc()
			l.remember(zip, memoEntry{geo: g, found: true})
			return g, nil
		}
	}

	start := time.Now()
	g, err := l.resolver.ResolveZip(ctx, zip)
	l.metrics.ZipAPIDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, domain.ErrZipNotFound) {
		l.metrics.ZipLookups.WithLabelValues("failed").Inc()
		l.remember(zip, memoEntry{})
		l.logger.Info("zip not found", "zip", zip)
		return domain.Geo{}, fmt.Errorf("zip %s: %w", zip, err)
	}
	if err != nil {
		l.metrics.ZipLookups.WithLabelValues("failed").Inc()
		return domain.Geo{}, fmt.Errorf("resolve zip %s: %w", zip, err)
	}

	l.metrics.ZipLookups.WithLabelValues("network").Inc()
	if l.store != nil {
		if err := l.store.Set(ctx, zip, g); err != nil {
			l.logger.Warn("zip store write failed", "zip", zip, "error", err)
		}
	}
	l.remember(zip, memoEntry{geo: g, found: true})
	l.logger.Debug("zip resolved", "zip", zip, "lat", g.Lat, "lon", g.Lon)
	return g, nil
}
