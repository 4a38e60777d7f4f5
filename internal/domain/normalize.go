package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Field is a logical column name, independent of how a given file spells it.
type Field string

const (
	FieldYear      Field = "YEAR"
	FieldState     Field = "STATE"
	FieldCity      Field = "CITY"
	FieldName      Field = "NAME"
	FieldInstagram Field = "IG"
	FieldSaturday  Field = "SAT"
	FieldSunday    Field = "SUN"
	FieldOTA       Field = "OTA"
	FieldLat       Field = "LAT"
	FieldLon       Field = "LON"
	FieldTitle     Field = "TITLE"
	FieldWhere     Field = "WHERE"
	FieldType      Field = "TYPE"
	FieldDate      Field = "DATE"
	FieldCreated   Field = "CREATED"
)

// fieldSynonyms lists, per logical field, the header spellings to try in
// order. Matching is case-insensitive; the first non-empty value wins.
var fieldSynonyms = map[Field][]string{
	FieldYear:      {"YEAR"},
	FieldState:     {"STATE"},
	FieldCity:      {"CITY"},
	FieldName:      {"NAME"},
	FieldInstagram: {"IG", "INSTAGRAM"},
	FieldSaturday:  {"SAT", "SATURDAY"},
	FieldSunday:    {"SUN", "SUNDAY"},
	FieldOTA:       {"OTA"},
	FieldLat:       {"LAT", "LATITUDE"},
	FieldLon:       {"LON", "LNG", "LONG", "LONGITUDE"},
	FieldTitle:     {"TITLE", "EVENT", "NAME", "SUMMARY", "SEMINAR BY"},
	FieldWhere:     {"WHERE", "LOCATION", "VENUE", "GYM", "HOST", "IG"},
	FieldType:      {"TYPE", "EVENT TYPE", "CATEGORY", "EVENT"},
	FieldDate:      {"DATE", "EVENT DATE", "START DATE", "START", "WHEN"},
	FieldCreated:   {"CREATED", "CREATED AT", "CREATED_AT", "TIMESTAMP", "ADDED"},
}

// Lookup resolves a logical field against a row using the synonym table.
// Missing headers yield "".
func Lookup(row RawRow, f Field) string {
	return lookupUpper(upperKeys(row), f)
}

func lookupUpper(byUpper map[string]string, f Field) string {
	for _, name := range fieldSynonyms[f] {
		if v := strings.TrimSpace(byUpper[name]); v != "" {
			return v
		}
	}
	return ""
}

// upperKeys indexes a row by uppercased header so every field lookup is a
// map hit. On a case-insensitive header collision the non-empty value wins.
func upperKeys(row RawRow) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		key := strings.ToUpper(strings.TrimSpace(k))
		if prev, dup := out[key]; dup && strings.TrimSpace(v) == "" && prev != "" {
			continue
		}
		out[key] = v
	}
	return out
}

// NormalizeDirectory maps a directory CSV row onto a DirectoryRecord.
func NormalizeDirectory(row RawRow) DirectoryRecord {
	u := upperKeys(row)

	rec := DirectoryRecord{
		State:         strings.ToUpper(lookupUpper(u, FieldState)),
		City:          lookupUpper(u, FieldCity),
		Name:          lookupUpper(u, FieldName),
		Instagram:     lookupUpper(u, FieldInstagram),
		SaturdayHours: lookupUpper(u, FieldSaturday),
		SundayHours:   lookupUpper(u, FieldSunday),
		DropIn:        normalizeOTA(lookupUpper(u, FieldOTA)),
	}
	if g, ok := parseGeo(lookupUpper(u, FieldLat), lookupUpper(u, FieldLon)); ok {
		rec.Geo = &g
	}
	rec.SearchBlob = buildBlob(
		rec.State, rec.City, rec.Name, rec.Instagram,
		rec.SaturdayHours, rec.SundayHours, rec.DropIn,
	)
	return rec
}

// normalizeOTA canonicalizes the drop-in flag to Y, N or "".
func normalizeOTA(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "Y", "YES", "TRUE", "1":
		return OTAYes
	case "N", "NO", "FALSE", "0":
		return OTANo
	default:
		return OTAUnknown
	}
}

// parseGeo parses a coordinate pair; both halves must be present, numeric
// and in range.
func parseGeo(lat, lon string) (Geo, bool) {
	if lat == "" || lon == "" {
		return Geo{}, false
	}
	la, errLat := strconv.ParseFloat(lat, 64)
	lo, errLon := strconv.ParseFloat(lon, 64)
	if errLat != nil || errLon != nil {
		return Geo{}, false
	}
	g := Geo{Lat: la, Lon: lo}
	if !g.Valid() {
		return Geo{}, false
	}
	return g, true
}

// NormalizeEvent maps an events CSV row onto an EventRecord. Header matching
// falls back through fieldSynonyms because event spreadsheets are not
// schema-stable. All source columns are copied into Fields.
func NormalizeEvent(row RawRow) EventRecord {
	u := upperKeys(row)

	fields := make(RawRow, len(row))
	for k, v := range row {
		fields[k] = strings.TrimSpace(v)
	}

	rec := EventRecord{
		Year:      lookupUpper(u, FieldYear),
		State:     strings.ToUpper(lookupUpper(u, FieldState)),
		City:      lookupUpper(u, FieldCity),
		Title:     lookupUpper(u, FieldTitle),
		Venue:     lookupUpper(u, FieldWhere),
		EventType: lookupUpper(u, FieldType),
		Date:      lookupUpper(u, FieldDate),
		Created:   lookupUpper(u, FieldCreated),
		Fields:    fields,
	}

	headers := make([]string, 0, len(fields))
	for h := range fields {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	parts := make([]string, 0, len(headers)+8)
	for _, h := range headers {
		parts = append(parts, fields[h])
	}
	parts = append(parts,
		rec.Year, rec.State, rec.City, rec.Title,
		rec.Venue, rec.EventType, rec.Date, rec.Created,
	)
	rec.SearchBlob = buildBlob(parts...)
	return rec
}

// buildBlob joins the non-empty parts with single spaces and lowercases them.
func buildBlob(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.ToLower(strings.Join(kept, " "))
}

// NormalizeDirectoryRows normalizes every row in order.
func NormalizeDirectoryRows(rows []RawRow) []DirectoryRecord {
	out := make([]DirectoryRecord, len(rows))
	for i, r := range rows {
		out[i] = NormalizeDirectory(r)
	}
	return out
}

// NormalizeEventRows normalizes every row in order.
func NormalizeEventRows(rows []RawRow) []EventRecord {
	out := make([]EventRecord, len(rows))
	for i, r := range rows {
		out[i] = NormalizeEvent(r)
	}
	return out
}
