package domain

import (
	"sort"
	"strings"
	"time"
)

// Set is a multi-select facet. An empty or nil set places no restriction.
type Set map[string]struct{}

// NewSet builds a set from values, skipping blanks.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v unless it is blank.
func (s Set) Add(v string) {
	if v = strings.TrimSpace(v); v != "" {
		s[v] = struct{}{}
	}
}

// Remove deletes v.
func (s Set) Remove(v string) { delete(s, strings.TrimSpace(v)) }

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of selected values.
func (s Set) Len() int { return len(s) }

// Values returns the members in ascending order.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Opens facet values.
const (
	OpensAll      = "ALL"
	OpensSaturday = "SATURDAY"
	OpensSunday   = "SUNDAY"
)

// GuestsWelcome is the guests facet value; any selection means OTA must be Y.
const GuestsWelcome = "GUESTS WELCOME"

// DirectoryFilter is the directory view's selection state.
type DirectoryFilter struct {
	States Set
	Opens  Set
	Guests Set
	Query  string
}

// HasSelections reports whether any facet or the search box restricts the view.
func (f DirectoryFilter) HasSelections() bool {
	return f.States.Len() > 0 || f.Opens.Len() > 0 || f.Guests.Len() > 0 ||
		strings.TrimSpace(f.Query) != ""
}

// EventFilter is the events view's selection state.
type EventFilter struct {
	Years  Set
	States Set
	Types  Set
	Query  string
}

// HasSelections reports whether any facet or the search box restricts the view.
func (f EventFilter) HasSelections() bool {
	return f.Years.Len() > 0 || f.States.Len() > 0 || f.Types.Len() > 0 ||
		strings.TrimSpace(f.Query) != ""
}

// FilterState holds both views' selections. The caller owns it; filtering
// only reads it.
type FilterState struct {
	Directory DirectoryFilter
	Events    EventFilter
}

// FilterDirectory returns the records that pass every facet and every query
// clause, in input order. The input slice is not modified.
func FilterDirectory(records []DirectoryRecord, f DirectoryFilter) []DirectoryRecord {
	q := TokenizeClauses(f.Query)

	out := make([]DirectoryRecord, 0, len(records))
	for _, r := range records {
		if !directoryFacetsMatch(r, f) {
			continue
		}
		if !directoryClausesMatch(r, q.Clauses) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func directoryFacetsMatch(r DirectoryRecord, f DirectoryFilter) bool {
	if f.Opens.Len() > 0 {
		var ok bool
		if f.Opens.Has(OpensAll) {
			ok = r.HasSaturday() || r.HasSunday()
		} else {
			ok = (f.Opens.Has(OpensSaturday) && r.HasSaturday()) ||
				(f.Opens.Has(OpensSunday) && r.HasSunday())
		}
		if !ok {
			return false
		}
	}
	if f.Guests.Len() > 0 && r.DropIn != OTAYes {
		return false
	}
	if f.States.Len() > 0 && !f.States.Has(r.State) {
		return false
	}
	return true
}

func directoryClausesMatch(r DirectoryRecord, clauses []string) bool {
	for _, c := range clauses {
		if tok := parseDayToken(c); tok != noDayToken {
			if !tok.matches(r) {
				return false
			}
			continue
		}
		if !MatchClause(r.SearchBlob, c) {
			return false
		}
	}
	return true
}

// FilterEvents returns the events that pass every facet, phrase token and
// query clause, in input order. now anchors "new events" and "this weekend"
// and supplies the location dates are read in.
func FilterEvents(records []EventRecord, f EventFilter, now time.Time) []EventRecord {
	loc := now.Location()
	q := Tokenize(f.Query)

	out := make([]EventRecord, 0, len(records))
	for _, r := range records {
		if f.Years.Len() > 0 && !f.Years.Has(EventYear(r, loc)) {
			continue
		}
		if f.States.Len() > 0 && !f.States.Has(r.State) {
			continue
		}
		if f.Types.Len() > 0 && !f.Types.Has(r.EventType) {
			continue
		}
		if q.WantsNew && !IsNew(r, now) {
			continue
		}
		if q.WantsWeekend && !IsThisWeekend(r, now) {
			continue
		}
		if len(q.Clauses) > 0 && !eventClausesMatch(r, q.Clauses, loc) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func eventClausesMatch(r EventRecord, clauses []string, loc *time.Location) bool {
	hay := r.SearchBlob
	if label := searchMonthLabel(r, loc); label != "" {
		hay += " " + label
	}
	for _, c := range clauses {
		if !MatchClause(hay, c) {
			return false
		}
	}
	return true
}
