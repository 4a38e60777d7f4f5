package domain

import (
	"sort"
	"strings"
	"time"
)

// BlankStateLabel labels directory rows with no state.
const BlankStateLabel = "—"

// EventGroup is one month bucket of events.
type EventGroup struct {
	Label  string        `json:"label"`
	Events []EventRecord `json:"events"`

	earliest time.Time
	dated    bool
}

// EventGroups splits events into the three sections of the events view.
type EventGroups struct {
	Upcoming []EventGroup `json:"upcoming"`
	Past     []EventGroup `json:"past"`
	Unknown  []EventGroup `json:"unknown"`
}

// Ordered returns every group in display order: upcoming, past, unknown.
func (g EventGroups) Ordered() []EventGroup {
	out := make([]EventGroup, 0, len(g.Upcoming)+len(g.Past)+len(g.Unknown))
	out = append(out, g.Upcoming...)
	out = append(out, g.Past...)
	return append(out, g.Unknown...)
}

// Count returns the number of events across all groups.
func (g EventGroups) Count() int {
	n := 0
	for _, grp := range g.Ordered() {
		n += len(grp.Events)
	}
	return n
}

type datedEvent struct {
	rec EventRecord
	at  time.Time
	ok  bool
}

// GroupEvents partitions records around local midnight of now and buckets
// each section by month. Upcoming groups and their rows run earliest first;
// past groups and rows run latest first. Unparseable dates form a single
// trailing Unknown Date group.
func GroupEvents(records []EventRecord, now time.Time) EventGroups {
	loc := now.Location()
	midnight := LocalMidnight(now)

	var upcoming, past, unknown []datedEvent
	for _, r := range records {
		t, ok := ParseEventDate(r.Date, loc)
		de := datedEvent{rec: r, at: t, ok: ok}
		switch {
		case !ok:
			unknown = append(unknown, de)
		case t.Before(midnight):
			past = append(past, de)
		default:
			upcoming = append(upcoming, de)
		}
	}

	return EventGroups{
		Upcoming: groupByMonth(upcoming, true, loc),
		Past:     groupByMonth(past, false, loc),
		Unknown:  groupByMonth(unknown, true, loc),
	}
}

func groupByMonth(events []datedEvent, asc bool, loc *time.Location) []EventGroup {
	if len(events) == 0 {
		return nil
	}

	var (
		order   []string
		buckets = map[string][]datedEvent{}
	)
	for _, e := range events {
		label := UnknownDateLabel
		if e.ok {
			label = MonthYearLabel(e.at.In(loc))
		}
		if _, seen := buckets[label]; !seen {
			order = append(order, label)
		}
		buckets[label] = append(buckets[label], e)
	}

	groups := make([]EventGroup, 0, len(order))
	for _, label := range order {
		list := buckets[label]
		sort.SliceStable(list, func(i, j int) bool {
			return datedLess(list[i], list[j], asc)
		})

		g := EventGroup{Label: label, Events: make([]EventRecord, len(list))}
		for i, e := range list {
			g.Events[i] = e.rec
			if e.ok && (!g.dated || e.at.Before(g.earliest)) {
				g.earliest, g.dated = e.at, true
			}
		}
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Label == UnknownDateLabel || b.Label == UnknownDateLabel {
			return b.Label == UnknownDateLabel && a.Label != UnknownDateLabel
		}
		if a.dated != b.dated {
			return a.dated
		}
		if asc {
			return a.earliest.Before(b.earliest)
		}
		return a.earliest.After(b.earliest)
	})
	return groups
}

// datedLess orders rows by date in the given direction; undated rows go last.
func datedLess(a, b datedEvent, asc bool) bool {
	if a.ok != b.ok {
		return a.ok
	}
	if !a.ok {
		return false
	}
	if asc {
		return a.at.Before(b.at)
	}
	return a.at.After(b.at)
}

// DirectoryGroup is one state bucket of gyms.
type DirectoryGroup struct {
	Label string            `json:"label"`
	Gyms  []DirectoryRecord `json:"gyms"`
}

// GroupDirectory buckets records by uppercased state, blank states under
// BlankStateLabel. Labels sort ascending; rows keep their input order.
func GroupDirectory(records []DirectoryRecord) []DirectoryGroup {
	buckets := map[string][]DirectoryRecord{}
	for _, r := range records {
		label := strings.ToUpper(strings.TrimSpace(r.State))
		if label == "" {
			label = BlankStateLabel
		}
		buckets[label] = append(buckets[label], r)
	}

	labels := make([]string, 0, len(buckets))
	for l := range buckets {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	out := make([]DirectoryGroup, len(labels))
	for i, l := range labels {
		out[i] = DirectoryGroup{Label: l, Gyms: buckets[l]}
	}
	return out
}
