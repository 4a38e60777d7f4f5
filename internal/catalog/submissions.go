package catalog

import (
	"context"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
)

// SubmissionFetcher yields admin submissions one message at a time.
type SubmissionFetcher interface {
	Fetch(ctx context.Context) (domain.RawMessage, error)
}

// Submit makes an admin-submitted row visible immediately, ahead of the next
// reload. The row stays pending and is re-applied after each reload until
// the CSV source contains it. It reports false for a submission that is
// already pending.
func (c *Catalog) Submit(ctx context.Context, s domain.Submission) bool {
	if s.ID == "" {
		s.ID = domain.RowID(s.Dataset, s.Row)
	}
	prepared := domain.PrepareSubmission(s, c.Now())
	p := pendingSubmission{
		id:    s.ID,
		rowID: domain.RowID(prepared.Dataset, prepared.Row),
		sub:   prepared,
	}
	if prepared.Dataset == domain.DatasetDirectory && c.geocoder != nil {
		p.geo = domain.EnrichDirectoryGeo(ctx, domain.NormalizeDirectory(prepared.Row), c.geocoder, c.logger).Geo
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range c.pending {
		if q.id == p.id {
			c.logger.Debug("duplicate submission ignored", "id", p.id)
			return false
		}
	}

	cur := c.snap.Load()
	next := &Snapshot{LoadedAt: cur.LoadedAt}
	next.Directory, next.Events = appendSubmission(cur.Directory, cur.Events, p)
	c.pending = append(c.pending, p)
	c.snap.Store(next)

	c.recordRows(next)
	c.metrics.SubmissionsConsumed.WithLabelValues(string(prepared.Dataset)).Inc()
	c.logger.Info("submission applied", "id", p.id, "dataset", prepared.Dataset)
	return true
}

// Pending returns how many submissions are waiting to appear in their source.
func (c *Catalog) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ConsumeSubmissions applies submissions from f until ctx is cancelled.
// Malformed messages are logged, counted and committed so they are not
// redelivered. Fetch failures back off from 200ms to 5s.
func (c *Catalog) ConsumeSubmissions(ctx context.Context, f SubmissionFetcher) error {
	c.logger.Info("submission consumer started")

	backoff := initialBackoff
	for {
		raw, err := f.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("submission consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("fetch submission failed", "error", err, "retry_in", backoff)
			if !c.sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		sub, err := domain.ParseSubmission(raw)
		if err != nil {
			c.logger.Warn("invalid submission, skipping",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			c.metrics.SubmissionErrors.Inc()
			c.commit(ctx, raw)
			continue
		}

		c.Submit(ctx, sub)
		c.commit(ctx, raw)
	}
}

// commit commits the message offset if a commit function is available.
func (c *Catalog) commit(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		c.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// reapplyPending drops pending submissions that the freshly loaded rows now
// contain and appends the rest. Must be called with mu held.
func (c *Catalog) reapplyPending(dirRows, eventRows []domain.RawRow, directory []domain.DirectoryRecord, events []domain.EventRecord) ([]domain.DirectoryRecord, []domain.EventRecord) {
	if len(c.pending) == 0 {
		return directory, events
	}

	loaded := make(map[string]struct{}, len(dirRows)+len(eventRows))
	for _, r := range dirRows {
		loaded[domain.RowID(domain.DatasetDirectory, r)] = struct{}{}
	}
	for _, r := range eventRows {
		loaded[domain.RowID(domain.DatasetEvents, r)] = struct{}{}
	}

	kept := make([]pendingSubmission, 0, len(c.pending))
	for _, p := range c.pending {
		if _, ok := loaded[p.rowID]; ok {
			c.logger.Debug("submission reached its source", "id", p.id)
			continue
		}
		kept = append(kept, p)
		directory, events = appendSubmission(directory, events, p)
	}
	c.pending = kept
	return directory, events
}

func appendSubmission(directory []domain.DirectoryRecord, events []domain.EventRecord, p pendingSubmission) ([]domain.DirectoryRecord, []domain.EventRecord) {
	switch p.sub.Dataset {
	case domain.DatasetDirectory:
		directory = domain.AppendDirectory(directory, p.sub)
		if last := &directory[len(directory)-1]; last.Geo == nil && p.geo != nil {
			*last = last.WithGeo(*p.geo)
		}
	case domain.DatasetEvents:
		events = domain.AppendEvent(events, p.sub)
	}
	return directory, events
}
