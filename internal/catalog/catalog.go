// Package catalog owns the live gym directory and events calendar. It loads
// both CSV datasets from their sources, keeps them as an immutable snapshot
// that is swapped atomically on reload, and answers filtered, grouped views
// against it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/adapter/source"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/anyjiujitsu/openmat-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Fetcher returns the text of one CSV dataset.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
	Location() string
}

// Snapshot is one consistent view of both datasets. It is never mutated
// after it has been published.
type Snapshot struct {
	Directory []domain.DirectoryRecord
	Events    []domain.EventRecord
	LoadedAt  time.Time
}

// Options configures a Catalog. Directory is required; everything else may
// be left zero.
type Options struct {
	Directory Fetcher
	Events    Fetcher           // nil serves zero events
	Geocoder  domain.Geocoder   // nil skips coordinate enrichment
	Locator   domain.ZipLocator // nil disables the distance filter
	Clock     clockwork.Clock
	Location  *time.Location // calendar zone for "today"; nil means time.Local
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// pendingSubmission is an admin row that is live in the snapshot but has not
// yet shown up in its CSV source.
type pendingSubmission struct {
	id    string // submission ID, for replay detection
	rowID string // RowID of the prepared row, for spotting it in the source
	sub   domain.Submission
	geo   *domain.Geo
}

// Catalog serves the current snapshot and keeps it fresh.
type Catalog struct {
	directory Fetcher
	events    Fetcher
	geocoder  domain.Geocoder
	locator   domain.ZipLocator
	clock     clockwork.Clock
	loc       *time.Location
	logger    *slog.Logger
	metrics   *observability.Metrics

	snap  atomic.Pointer[Snapshot]
	ready atomic.Bool

	// mu serializes snapshot writers: reloads and submissions.
	mu      sync.Mutex
	pending []pendingSubmission
}

// New creates a Catalog with an empty snapshot. Call Load or Run to fill it.
func New(opts Options) *Catalog {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	c := &Catalog{
		directory: opts.Directory,
		events:    opts.Events,
		geocoder:  opts.Geocoder,
		locator:   opts.Locator,
		clock:     clock,
		loc:       loc,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	c.snap.Store(&Snapshot{})
	return c
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (c *Catalog) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Now returns the catalog clock's current time in the calendar zone.
func (c *Catalog) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// CheckReadiness returns nil once a snapshot has been loaded.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("catalog has not loaded yet")
	}
	return nil
}

// Load fetches, parses and normalizes both datasets and publishes them as
// the new snapshot. A directory failure fails the load and leaves the
// previous snapshot in place. An events failure is logged and yields zero
// events.
func (c *Catalog) Load(ctx context.Context) error {
	start := time.Now()

	dirText, err := c.directory.Fetch(ctx)
	if err != nil {
		c.metrics.CatalogLoads.WithLabelValues(string(domain.DatasetDirectory), outcome(err)).Inc()
		return fmt.Errorf("load directory from %s: %w", c.directory.Location(), err)
	}
	dirRows := domain.ParseCSV(dirText)
	directory := domain.NormalizeDirectoryRows(dirRows)
	c.metrics.CatalogLoads.WithLabelValues(string(domain.DatasetDirectory), "success").Inc()
	c.metrics.RowsLoaded.WithLabelValues(string(domain.DatasetDirectory)).Add(float64(len(dirRows)))

	if c.geocoder != nil {
		var enriched int
		directory, enriched = domain.EnrichDirectoryRows(ctx, directory, c.geocoder, c.logger)
		if enriched > 0 {
			c.logger.Info("directory rows geocoded", "count", enriched)
		}
	}

	eventRows := c.loadEvents(ctx)
	events := domain.NormalizeEventRows(eventRows)

	c.mu.Lock()
	directory, events = c.reapplyPending(dirRows, eventRows, directory, events)
	snap := &Snapshot{Directory: directory, Events: events, LoadedAt: c.clock.Now()}
	c.snap.Store(snap)
	c.mu.Unlock()

	c.recordRows(snap)
	c.ready.Store(true)
	c.metrics.CatalogReady.Set(1)
	c.metrics.CatalogLoadDuration.Observe(time.Since(start).Seconds())
	c.logger.Info("catalog loaded",
		"gyms", len(snap.Directory),
		"events", len(snap.Events),
		"duration", time.Since(start),
	)
	return nil
}

func (c *Catalog) loadEvents(ctx context.Context) []domain.RawRow {
	if c.events == nil {
		return nil
	}
	text, err := c.events.Fetch(ctx)
	if err != nil {
		c.metrics.CatalogLoads.WithLabelValues(string(domain.DatasetEvents), outcome(err)).Inc()
		c.logger.Warn("events source unavailable, serving zero events",
			"source", c.events.Location(),
			"error", err,
		)
		return nil
	}
	rows := domain.ParseCSV(text)
	c.metrics.CatalogLoads.WithLabelValues(string(domain.DatasetEvents), "success").Inc()
	c.metrics.RowsLoaded.WithLabelValues(string(domain.DatasetEvents)).Add(float64(len(rows)))
	return rows
}

func outcome(err error) string {
	if errors.Is(err, source.ErrNotFound) {
		return "missing"
	}
	return "error"
}

func (c *Catalog) recordRows(snap *Snapshot) {
	c.metrics.CatalogRows.WithLabelValues(string(domain.DatasetDirectory)).Set(float64(len(snap.Directory)))
	c.metrics.CatalogRows.WithLabelValues(string(domain.DatasetEvents)).Set(float64(len(snap.Events)))
}

// Run loads the catalog immediately and then every interval until ctx is
// cancelled. Failed loads are retried with exponential backoff from 200ms to
// 5s; the last good snapshot keeps serving in the meantime.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) error {
	c.logger.Info("catalog reloader started", "interval", interval)

	backoff := initialBackoff
	for {
		wait := interval
		if err := c.Load(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("catalog load failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !c.sleep(ctx, wait) {
			c.logger.Info("catalog reloader stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (c *Catalog) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
