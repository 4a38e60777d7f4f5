package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/adapter/source"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var dataset, out string

	cmd := &cobra.Command{
		Use:   "export [KEY=VALUE ...]",
		Short: "Re-encode a dataset as clean CSV, optionally appending one row",
		Long: `Export reads a dataset, drops blank rows, trims every cell and writes it
back out with minimal quoting. KEY=VALUE arguments append one row the way the
admin form does: event dates from a date picker become M/D/YYYY, DAY is
derived, 24-hour open times become 5:30PM and CREATED is stamped with today.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := domain.ParseDataset(dataset)
			if err != nil {
				return err
			}
			loc, err := opts.location()
			if err != nil {
				return err
			}
			path := opts.directory
			if ds == domain.DatasetEvents {
				path = opts.events
			}
			table, err := readTable(cmd.Context(), path, opts.sourceOptions())
			if err != nil {
				return err
			}

			if len(args) > 0 {
				row, err := parseAssignments(args)
				if err != nil {
					return err
				}
				sub := domain.PrepareSubmission(domain.Submission{Dataset: ds, Row: row}, time.Now().In(loc))
				table = appendRow(table, sub.Row)
			}

			text, err := domain.EncodeCSV(table.Headers, table.Rows)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(table.Rows), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "directory", "dataset to export: directory or events")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func readTable(ctx context.Context, loc string, opts source.Options) (domain.Table, error) {
	if loc == "" {
		return domain.Table{}, fmt.Errorf("no source configured")
	}
	src, err := source.Open(ctx, loc, opts)
	if err != nil {
		return domain.Table{}, err
	}
	text, err := src.Fetch(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	return domain.ParseTable(text), nil
}

// parseAssignments turns KEY=VALUE arguments into a row.
func parseAssignments(args []string) (domain.RawRow, error) {
	row := make(domain.RawRow, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q: want KEY=VALUE", a)
		}
		row[k] = strings.TrimSpace(v)
	}
	return row, nil
}

// appendRow adds row to t, keyed by t's own header spelling. Keys that match
// no header are dropped. A table without headers takes the row's keys in
// ascending order.
func appendRow(t domain.Table, row domain.RawRow) domain.Table {
	headers := t.Headers
	if len(headers) == 0 {
		headers = make([]string, 0, len(row))
		for k := range row {
			headers = append(headers, k)
		}
		sort.Strings(headers)
	}

	aligned := make(domain.RawRow, len(headers))
	for _, h := range headers {
		for k, v := range row {
			if strings.EqualFold(strings.TrimSpace(k), h) {
				aligned[h] = v
				break
			}
		}
	}

	rows := make([]domain.RawRow, len(t.Rows), len(t.Rows)+1)
	copy(rows, t.Rows)
	return domain.Table{Headers: headers, Rows: append(rows, aligned)}
}
