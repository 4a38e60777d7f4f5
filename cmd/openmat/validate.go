package main

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/spf13/cobra"
)

var stateCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check both datasets for rows the browser would mis-render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := opts.location()
			if err != nil {
				return err
			}
			dir, err := readTable(cmd.Context(), opts.directory, opts.sourceOptions())
			if err != nil {
				return fmt.Errorf("load directory: %w", err)
			}
			var events domain.Table
			if opts.events != "" {
				if events, err = readTable(cmd.Context(), opts.events, opts.sourceOptions()); err != nil {
					return fmt.Errorf("load events: %w", err)
				}
			}

			phases := runPhases(dir, events, loc)
			if !report(cmd.OutOrStdout(), phases, len(dir.Rows), len(events.Rows)) {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
}

func runPhases(dir, events domain.Table, loc *time.Location) []*phase {
	return []*phase{
		validateHeaders(dir, events),
		validateStates(dir, events),
		validateOTA(dir),
		validateCoordinates(dir),
		validateEventDates(events, loc),
		validateDuplicates(dir, events),
	}
}

// report prints the phase summary and details and reports whether every
// phase passed.
func report(w io.Writer, phases []*phase, gyms, events int) bool {
	fmt.Fprintln(w, "=== Open Mat Data Validation ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows: %d directory, %d events\n", gyms, events)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Fprintf(w, "  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	return allPassed
}

// hasField reports whether any header spelling of f is present.
func hasField(headers []string, f domain.Field) bool {
	probe := make(domain.RawRow, len(headers))
	for _, h := range headers {
		probe[h] = "x"
	}
	return domain.Lookup(probe, f) != ""
}

func validateHeaders(dir, events domain.Table) *phase {
	p := &phase{name: "Header coverage"}
	for _, f := range []domain.Field{domain.FieldState, domain.FieldCity, domain.FieldName, domain.FieldSaturday, domain.FieldSunday} {
		if !hasField(dir.Headers, f) {
			p.errorf("directory: no %s column", f)
		}
	}
	if len(events.Headers) == 0 {
		return p
	}
	for _, f := range []domain.Field{domain.FieldTitle, domain.FieldDate, domain.FieldState, domain.FieldType} {
		if !hasField(events.Headers, f) {
			p.errorf("events: no %s column", f)
		}
	}
	return p
}

func validateStates(dir, events domain.Table) *phase {
	p := &phase{name: "State codes"}
	for i, row := range dir.Rows {
		if s := domain.NormalizeDirectory(row).State; !stateCodeRe.MatchString(s) {
			p.errorf("directory row %d: state %q is not a two-letter code", i+1, s)
		}
	}
	for i, row := range events.Rows {
		if s := domain.NormalizeEvent(row).State; s != "" && !stateCodeRe.MatchString(s) {
			p.errorf("events row %d: state %q is not a two-letter code", i+1, s)
		}
	}
	return p
}

func validateOTA(dir domain.Table) *phase {
	p := &phase{name: "OTA values"}
	for i, row := range dir.Rows {
		raw := domain.Lookup(row, domain.FieldOTA)
		if raw != "" && domain.NormalizeDirectory(row).DropIn == domain.OTAUnknown {
			p.errorf("directory row %d: OTA %q is not Y or N", i+1, raw)
		}
	}
	return p
}

func validateCoordinates(dir domain.Table) *phase {
	p := &phase{name: "Coordinates"}
	for i, row := range dir.Rows {
		lat := domain.Lookup(row, domain.FieldLat)
		lon := domain.Lookup(row, domain.FieldLon)
		if lat == "" && lon == "" {
			continue
		}
		if domain.NormalizeDirectory(row).Geo == nil {
			p.errorf("directory row %d: LAT %q LON %q is not a valid coordinate", i+1, lat, lon)
		}
	}
	return p
}

func validateEventDates(events domain.Table, loc *time.Location) *phase {
	p := &phase{name: "Event dates"}
	for i, row := range events.Rows {
		rec := domain.NormalizeEvent(row)
		if _, ok := domain.ParseEventDate(rec.Date, loc); !ok {
			p.errorf("events row %d (%s): date %q does not parse", i+1, rec.Title, rec.Date)
		}
		if rec.Created != "" {
			if _, ok := domain.ParseCreated(rec.Created, loc); !ok {
				p.errorf("events row %d (%s): created %q does not parse", i+1, rec.Title, rec.Created)
			}
		}
	}
	return p
}

func validateDuplicates(dir, events domain.Table) *phase {
	p := &phase{name: "Duplicate rows"}
	check := func(ds domain.Dataset, rows []domain.RawRow) {
		seen := make(map[string]int, len(rows))
		for i, row := range rows {
			id := domain.RowID(ds, row)
			if first, ok := seen[id]; ok {
				p.errorf("%s row %d duplicates row %d", ds, i+1, first)
				continue
			}
			seen[id] = i + 1
		}
	}
	check(domain.DatasetDirectory, dir.Rows)
	check(domain.DatasetEvents, events.Rows)
	return p
}
