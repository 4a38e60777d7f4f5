package catalog

import (
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
)

// DirectoryView is the rendered directory: gyms grouped by state.
type DirectoryView struct {
	Groups         []domain.DirectoryGroup `json:"groups"`
	Count          int                     `json:"count"`
	Pending        int                     `json:"pending"`
	DistanceActive bool                    `json:"distanceActive"`
}

// EventRow is an event with its "new" badge evaluated for the render instant.
type EventRow struct {
	domain.EventRecord
	IsNew bool `json:"isNew"`
}

// EventGroup is one month bucket of the events view.
type EventGroup struct {
	Label  string     `json:"label"`
	Events []EventRow `json:"events"`
}

// EventsView is the rendered events calendar.
type EventsView struct {
	Upcoming []EventGroup `json:"upcoming"`
	Past     []EventGroup `json:"past"`
	Unknown  []EventGroup `json:"unknown"`
	Count    int          `json:"count"`
}

// Directory filters and groups the current directory. While the distance
// origin is still being resolved the view is empty with Pending set, and
// onUpdate fires once the answer is known.
func (c *Catalog) Directory(f domain.DirectoryFilter, dist domain.DistanceFilter, onUpdate func()) DirectoryView {
	rows := domain.FilterDirectory(c.Snapshot().Directory, f)
	res := domain.ApplyDistanceFilter(rows, dist, c.locator, onUpdate)
	return DirectoryView{
		Groups:         domain.GroupDirectory(res.Rows),
		Count:          len(res.Rows),
		Pending:        res.Pending,
		DistanceActive: res.Active,
	}
}

// Events filters and groups the current events against the catalog clock.
func (c *Catalog) Events(f domain.EventFilter) EventsView {
	now := c.Now()
	rows := domain.FilterEvents(c.Snapshot().Events, f, now)
	groups := domain.GroupEvents(rows, now)
	return EventsView{
		Upcoming: decorate(groups.Upcoming, now),
		Past:     decorate(groups.Past, now),
		Unknown:  decorate(groups.Unknown, now),
		Count:    len(rows),
	}
}

func decorate(groups []domain.EventGroup, now time.Time) []EventGroup {
	out := make([]EventGroup, len(groups))
	for i, g := range groups {
		rows := make([]EventRow, len(g.Events))
		for j, e := range g.Events {
			rows[j] = EventRow{EventRecord: e, IsNew: domain.IsNew(e, now)}
		}
		out[i] = EventGroup{Label: g.Label, Events: rows}
	}
	return out
}

// Facets returns the option lists for the filter menus.
func (c *Catalog) Facets() domain.Facets {
	snap := c.Snapshot()
	return domain.BuildFacets(snap.Directory, snap.Events, c.loc)
}
