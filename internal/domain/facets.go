package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Facets holds the option lists offered by the filter pills.
type Facets struct {
	DirectoryStates []string `json:"directory_states"`
	EventYears      []string `json:"event_years"`
	EventStates     []string `json:"event_states"`
	EventTypes      []string `json:"event_types"`
}

// BuildFacets computes every option list from the two datasets.
func BuildFacets(dir []DirectoryRecord, events []EventRecord, loc *time.Location) Facets {
	return Facets{
		DirectoryStates: DirectoryStates(dir),
		EventYears:      EventYears(events, loc),
		EventStates:     EventStates(events),
		EventTypes:      EventTypes(events),
	}
}

// DirectoryStates returns the distinct non-blank gym states, ascending.
func DirectoryStates(records []DirectoryRecord) []string {
	return uniqueSorted(len(records), func(i int) string { return records[i].State })
}

// EventStates returns the distinct non-blank event states, ascending.
func EventStates(records []EventRecord) []string {
	return uniqueSorted(len(records), func(i int) string { return records[i].State })
}

// EventTypes returns the distinct non-blank event types, ascending.
func EventTypes(records []EventRecord) []string {
	return uniqueSorted(len(records), func(i int) string { return records[i].EventType })
}

// EventYears returns the distinct resolved event years, newest first.
// Non-numeric years sort after numeric ones.
func EventYears(records []EventRecord, loc *time.Location) []string {
	years := uniqueSorted(len(records), func(i int) string { return EventYear(records[i], loc) })
	sort.SliceStable(years, func(i, j int) bool {
		a, errA := strconv.Atoi(years[i])
		b, errB := strconv.Atoi(years[j])
		switch {
		case errA == nil && errB == nil:
			return a > b
		case errA == nil:
			return true
		default:
			return false
		}
	})
	return years
}

func uniqueSorted(n int, at func(int) string) []string {
	seen := make(map[string]struct{}, n)
	out := []string{}
	for i := 0; i < n; i++ {
		v := strings.TrimSpace(at(i))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
