package domain

// RawRow is one CSV data row keyed by header cell exactly as it appears in
// the file (trimmed, case preserved).
type RawRow map[string]string

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair lies inside the WGS-84 ranges.
func (g Geo) Valid() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// OTA flag values.
const (
	OTAYes     = "Y"
	OTANo      = "N"
	OTAUnknown = ""
)

// DirectoryRecord is a normalized gym directory row.
type DirectoryRecord struct {
	State         string `json:"state"`
	City          string `json:"city"`
	Name          string `json:"name"`
	Instagram     string `json:"instagram"`
	SaturdayHours string `json:"saturday_hours"`
	SundayHours   string `json:"sunday_hours"`
	DropIn        string `json:"ota"` // OTAYes, OTANo or OTAUnknown
	Geo           *Geo   `json:"geo,omitempty"`

	SearchBlob string `json:"-"`
}

// HasSaturday reports whether the gym lists Saturday open-mat hours.
func (r DirectoryRecord) HasSaturday() bool { return r.SaturdayHours != "" }

// HasSunday reports whether the gym lists Sunday open-mat hours.
func (r DirectoryRecord) HasSunday() bool { return r.SundayHours != "" }

// WithGeo returns a copy of the record with coordinates attached.
// Coordinates are not searchable, so the blob is carried over unchanged.
func (r DirectoryRecord) WithGeo(g Geo) DirectoryRecord {
	r.Geo = &g
	return r
}

// EventRecord is a normalized events-calendar row.
type EventRecord struct {
	Year      string `json:"year,omitempty"`
	State     string `json:"state"`
	City      string `json:"city"`
	Title     string `json:"title"`
	Venue     string `json:"venue"`
	EventType string `json:"type"`
	Date      string `json:"date"`
	Created   string `json:"created,omitempty"`

	// Fields keeps every source column under its original header so display
	// code can reach columns that normalization does not know about.
	Fields RawRow `json:"fields,omitempty"`

	SearchBlob string `json:"-"`
}
