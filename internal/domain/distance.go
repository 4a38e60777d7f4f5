package domain

import (
	"math"
	"regexp"
	"strings"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3958.7613

// milesPerDegreeLat approximates one degree of latitude.
const milesPerDegreeLat = 69.0

var zipRe = regexp.MustCompile(`^\d{5}$`)

// ValidZIP reports whether s is a five-digit US ZIP code.
func ValidZIP(s string) bool { return zipRe.MatchString(s) }

// HaversineMiles returns the great-circle distance between a and b.
func HaversineMiles(a, b Geo) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	s := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadiusMiles * 2 * math.Asin(math.Min(1, math.Sqrt(s)))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Box is a latitude/longitude rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether g lies inside the box, edges included.
func (b Box) Contains(g Geo) bool {
	return g.Lat >= b.MinLat && g.Lat <= b.MaxLat && g.Lon >= b.MinLon && g.Lon <= b.MaxLon
}

// BoundingBox returns a rectangle around origin that contains every point
// within miles of it. Longitude span is widened by 1/cos(lat), capped at 5x
// near the poles.
func BoundingBox(origin Geo, miles float64) Box {
	dLat := miles / milesPerDegreeLat
	dLon := miles / (milesPerDegreeLat * math.Max(0.2, math.Cos(toRad(origin.Lat))))
	return Box{
		MinLat: origin.Lat - dLat, MaxLat: origin.Lat + dLat,
		MinLon: origin.Lon - dLon, MaxLon: origin.Lon + dLon,
	}
}

// DistanceFilter is the "training near" selection: a ZIP origin and radius.
type DistanceFilter struct {
	OriginZIP   string  `json:"zip"`
	RadiusMiles float64 `json:"miles"`
}

// Enabled reports whether the filter has a positive radius and a valid ZIP.
func (f DistanceFilter) Enabled() bool {
	return f.RadiusMiles > 0 && !math.IsInf(f.RadiusMiles, 0) && ValidZIP(strings.TrimSpace(f.OriginZIP))
}

// DistanceResult is the outcome of ApplyDistanceFilter. Pending is 1 while
// the origin lookup is in flight; Active reports whether the filter applied.
type DistanceResult struct {
	Rows    []DirectoryRecord
	Pending int
	Active  bool
}

// LocateStatus is the state of a ZIP lookup.
type LocateStatus int

const (
	// LocateResolved means coordinates are available.
	LocateResolved LocateStatus = iota
	// LocatePending means a lookup is in flight; onUpdate fires when it ends.
	LocatePending
	// LocateUnresolvable means the ZIP is known not to exist.
	LocateUnresolvable
)

func (s LocateStatus) String() string {
	switch s {
	case LocateResolved:
		return "resolved"
	case LocatePending:
		return "pending"
	case LocateUnresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// ZipLocator resolves ZIP codes without blocking. When the answer is not yet
// known it starts a lookup, returns LocatePending and calls onUpdate once the
// lookup finishes so the caller can re-run the filter.
type ZipLocator interface {
	Locate(zip string, onUpdate func()) (Geo, LocateStatus)
}

// ApplyDistanceFilter keeps the records within f.RadiusMiles of f.OriginZIP.
// A disabled filter passes records through untouched. Records without
// coordinates never match an active filter.
func ApplyDistanceFilter(records []DirectoryRecord, f DistanceFilter, locator ZipLocator, onUpdate func()) DistanceResult {
	if !f.Enabled() || locator == nil {
		return DistanceResult{Rows: records}
	}

	origin, status := locator.Locate(strings.TrimSpace(f.OriginZIP), onUpdate)
	switch status {
	case LocatePending:
		return DistanceResult{Rows: []DirectoryRecord{}, Pending: 1, Active: true}
	case LocateUnresolvable:
		return DistanceResult{Rows: []DirectoryRecord{}, Active: true}
	}

	box := BoundingBox(origin, f.RadiusMiles)
	out := make([]DirectoryRecord, 0)
	for _, r := range records {
		if r.Geo == nil || !box.Contains(*r.Geo) {
			continue
		}
		if HaversineMiles(origin, *r.Geo) <= f.RadiusMiles {
			out = append(out, r)
		}
	}
	return DistanceResult{Rows: out, Active: true}
}
