package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnknownDateLabel labels the group of events whose date cannot be parsed.
const UnknownDateLabel = "Unknown Date"

// NewEventWindowDays is how many days before today's local midnight a row's
// creation stamp may fall and still count as new.
const NewEventWindowDays = 4

var (
	slashLongYearRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	slashShortYearRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`)
	isoDateRe        = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// fallbackDateLayouts are tried in order once the numeric formats fail.
// Layouts without a zone are read in the caller's location.
var fallbackDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Monday, January 2, 2006",
	"Mon, January 2, 2006",
	"Mon, Jan 2, 2006",
	"Mon Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	"2006/01/02",
	"2006/1/2",
	"1-2-2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
}

// createdLayouts cover spreadsheet and form timestamps. They are tried before
// the event-date cascade when reading a creation stamp.
var createdLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseEventDate reads an event date. Numeric formats (M/D/YYYY, M/D/YY as
// 20YY, YYYY-MM-DD) resolve to midnight in loc and reject impossible
// month/day combinations. Everything else goes through fallbackDateLayouts.
func ParseEventDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if m := slashLongYearRe.FindStringSubmatch(s); m != nil {
		return civilDate(atoi(m[3]), atoi(m[1]), atoi(m[2]), loc)
	}
	if m := slashShortYearRe.FindStringSubmatch(s); m != nil {
		return civilDate(2000+atoi(m[3]), atoi(m[1]), atoi(m[2]), loc)
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), loc)
	}
	return parseLayouts(s, fallbackDateLayouts, loc)
}

// ParseCreated reads a row's creation stamp: timestamp layouts first, then
// the ParseEventDate cascade.
func ParseCreated(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, ok := parseLayouts(s, createdLayouts, loc); ok {
		return t, true
	}
	return ParseEventDate(s, loc)
}

func parseLayouts(s string, layouts []string, loc *time.Location) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func civilDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow (2/30 → 3/2); reject it instead.
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// LocalMidnight returns the start of now's calendar day in now's location.
func LocalMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// IsNew reports whether rec was created on or after local midnight
// NewEventWindowDays days before now. A blank or unparseable stamp is not new.
func IsNew(rec EventRecord, now time.Time) bool {
	created, ok := ParseCreated(rec.Created, now.Location())
	if !ok {
		return false
	}
	cutoff := LocalMidnight(now).AddDate(0, 0, -NewEventWindowDays)
	return !created.Before(cutoff)
}

// WeekendOf returns the Saturday and Sunday of the Monday–Sunday week that
// contains now, both at local midnight.
func WeekendOf(now time.Time) (sat, sun time.Time) {
	mid := LocalMidnight(now)
	offset := (int(mid.Weekday()) + 6) % 7 // Monday = 0
	monday := mid.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, 5), monday.AddDate(0, 0, 6)
}

// IsThisWeekend reports whether rec's date falls on the Saturday or Sunday of
// the current week. On a Sunday the weekend is the one ending that day.
func IsThisWeekend(rec EventRecord, now time.Time) bool {
	d, ok := ParseEventDate(rec.Date, now.Location())
	if !ok {
		return false
	}
	sat, sun := WeekendOf(now)
	return sameDay(d.In(now.Location()), sat) || sameDay(d.In(now.Location()), sun)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthYearLabel formats t as an English month-year group label such as
// "November 2025".
func MonthYearLabel(t time.Time) string {
	return t.Format("January 2006")
}

// EventYear resolves the year an event belongs to: the explicit YEAR column,
// else the year of the parsed DATE, else "".
func EventYear(rec EventRecord, loc *time.Location) string {
	if y := strings.TrimSpace(rec.Year); y != "" {
		return y
	}
	if m := slashLongYearRe.FindStringSubmatch(strings.TrimSpace(rec.Date)); m != nil {
		return m[3]
	}
	if t, ok := ParseEventDate(rec.Date, loc); ok {
		return strconv.Itoa(t.Year())
	}
	return ""
}

// searchMonthLabel is the lowercase month-year label appended to an event's
// search haystack so queries like "november 2025" match group headers.
func searchMonthLabel(rec EventRecord, loc *time.Location) string {
	t, ok := ParseEventDate(rec.Date, loc)
	if !ok {
		return ""
	}
	return strings.ToLower(MonthYearLabel(t.In(loc)))
}
