package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/catalog"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/spf13/cobra"
)

// zipWait bounds how long the directory command waits for a ZIP lookup.
const zipWait = 15 * time.Second

func newDirectoryCmd(opts *globalOptions) *cobra.Command {
	var (
		states, opens []string
		guests        bool
		query, zip    string
		miles         float64
	)

	cmd := &cobra.Command{
		Use:   "directory",
		Short: "List gyms grouped by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog(cmd.Context(), zip != "")
			if err != nil {
				return err
			}

			f := domain.DirectoryFilter{
				States: upperSet(states),
				Opens:  upperSet(opens),
				Guests: domain.NewSet(),
				Query:  query,
			}
			if guests {
				f.Guests.Add(domain.GuestsWelcome)
			}
			dist := domain.DistanceFilter{OriginZIP: zip, RadiusMiles: miles}

			updated := make(chan struct{})
			view := cat.Directory(f, dist, func() { close(updated) })
			if view.Pending > 0 {
				select {
				case <-updated:
					view = cat.Directory(f, dist, nil)
				case <-time.After(zipWait):
					return fmt.Errorf("zip %s did not resolve within %s", zip, zipWait)
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return renderDirectory(cmd.OutOrStdout(), view)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&states, "state", nil, "state codes to include (repeatable)")
	fl.StringSliceVar(&opens, "opens", nil, "open days: saturday, sunday or all (repeatable)")
	fl.BoolVar(&guests, "guests", false, "only gyms that welcome visitors")
	fl.StringVar(&query, "q", "", "search text; commas separate clauses")
	fl.StringVar(&zip, "zip", "", "origin ZIP code for the distance filter")
	fl.Float64Var(&miles, "miles", 0, "distance filter radius in miles")
	return cmd
}

func newEventsCmd(opts *globalOptions) *cobra.Command {
	var (
		years, states, types []string
		query                string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List events grouped into upcoming, past and unknown months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog(cmd.Context(), false)
			if err != nil {
				return err
			}
			view := cat.Events(domain.EventFilter{
				Years:  domain.NewSet(years...),
				States: domain.NewSet(states...),
				Types:  domain.NewSet(types...),
				Query:  query,
			})

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return renderEvents(cmd.OutOrStdout(), view)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&years, "year", nil, "event years to include (repeatable)")
	fl.StringSliceVar(&states, "state", nil, "event states to include (repeatable)")
	fl.StringSliceVar(&types, "type", nil, "event types to include (repeatable)")
	fl.StringVar(&query, "q", "", `search text; "new events" and "this weekend" are phrase filters`)
	return cmd
}

func newFacetsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "facets",
		Short: "Print the filter option lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog(cmd.Context(), false)
			if err != nil {
				return err
			}
			f := cat.Facets()
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), f)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "directory states: %s\n", strings.Join(f.DirectoryStates, ", "))
			fmt.Fprintf(out, "event years:      %s\n", strings.Join(f.EventYears, ", "))
			fmt.Fprintf(out, "event states:     %s\n", strings.Join(f.EventStates, ", "))
			fmt.Fprintf(out, "event types:      %s\n", strings.Join(f.EventTypes, ", "))
			return nil
		},
	}
}

func upperSet(values []string) domain.Set {
	s := domain.NewSet()
	for _, v := range values {
		s.Add(strings.ToUpper(v))
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderDirectory(w io.Writer, view catalog.DirectoryView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range view.Groups {
		fmt.Fprintf(tw, "%s\n", g.Label)
		for _, gym := range g.Gyms {
			fmt.Fprintf(tw, "  %s\t%s\tSAT %s\tSUN %s\tOTA %s\t%s\n",
				gym.Name, gym.City, dash(gym.SaturdayHours), dash(gym.SundayHours), dash(gym.DropIn), gym.Instagram)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d gyms\n", view.Count)
	return err
}

func renderEvents(w io.Writer, view catalog.EventsView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	section := func(name string, groups []catalog.EventGroup) {
		if len(groups) == 0 {
			return
		}
		fmt.Fprintf(tw, "== %s ==\n", name)
		for _, g := range groups {
			fmt.Fprintf(tw, "%s\n", g.Label)
			for _, e := range g.Events {
				badge := ""
				if e.IsNew {
					badge = "NEW"
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n", e.Date, e.Title, e.EventType, e.Venue, e.State, badge)
			}
		}
	}
	section("Upcoming", view.Upcoming)
	section("Past", view.Past)
	section("Unknown", view.Unknown)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d events\n", view.Count)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
