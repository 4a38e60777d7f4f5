package domain

import (
	"context"
	"log/slog"
)

// EnrichDirectoryGeo fills in coordinates for a gym that has none by forward
// geocoding its city and state. A nil geocoder, a row that already has
// coordinates, a row without city or state, a failed lookup or a zero result
// all return the record unchanged.
func EnrichDirectoryGeo(ctx context.Context, rec DirectoryRecord, geocoder Geocoder, logger *slog.Logger) DirectoryRecord {
	if geocoder == nil || rec.Geo != nil {
		return rec
	}
	if rec.City == "" || rec.State == "" {
		return rec
	}

	result, err := geocoder.ForwardGeocode(ctx, rec.City, rec.State)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"gym", rec.Name,
			"city", rec.City,
			"state", rec.State,
			"error", err,
		)
		return rec
	}
	g := result.Geo()
	if (g.Lat == 0 && g.Lon == 0) || !g.Valid() {
		return rec
	}
	return rec.WithGeo(g)
}

// EnrichDirectoryRows runs EnrichDirectoryGeo over every record and reports
// how many gained coordinates. The input slice is not modified.
func EnrichDirectoryRows(ctx context.Context, records []DirectoryRecord, geocoder Geocoder, logger *slog.Logger) ([]DirectoryRecord, int) {
	if geocoder == nil {
		return records, 0
	}
	out := make([]DirectoryRecord, len(records))
	enriched := 0
	for i, r := range records {
		if ctx.Err() != nil {
			copy(out[i:], records[i:])
			break
		}
		out[i] = EnrichDirectoryGeo(ctx, r, geocoder, logger)
		if r.Geo == nil && out[i].Geo != nil {
			enriched++
		}
	}
	return out, enriched
}
