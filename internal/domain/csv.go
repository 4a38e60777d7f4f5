package domain

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is a parsed CSV file: the trimmed header cells in file order plus one
// RawRow per non-blank data record.
type Table struct {
	Headers []string
	Rows    []RawRow
}

// ParseCSV parses CSV text into header-keyed rows. See ParseTable.
func ParseCSV(text string) []RawRow {
	return ParseTable(text).Rows
}

// ParseTable parses RFC 4180-style CSV text. It never fails: malformed quoting
// degrades to literal characters instead of rejecting the file, because the
// input is hand-edited spreadsheet output.
//
// The first non-blank record is the header. Records whose cells are all blank
// are dropped. Missing trailing cells map to "" and surplus cells are ignored.
func ParseTable(text string) Table {
	text = strings.TrimPrefix(text, "\ufeff")

	var t Table
	headerSeen := false
	for _, rec := range splitRecords(text) {
		if isBlankRecord(rec) {
			continue
		}
		if !headerSeen {
			t.Headers = make([]string, len(rec))
			for i, h := range rec {
				t.Headers[i] = strings.TrimSpace(h)
			}
			headerSeen = true
			continue
		}

		row := make(RawRow, len(t.Headers))
		for i, h := range t.Headers {
			if h == "" {
				continue
			}
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			row[h] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// splitRecords tokenizes text into records of raw (untrimmed) cells.
// A quote opens a quoted field only at the start of a field (leading blanks
// are discarded); anywhere else it is a literal character. After a closing
// quote, characters up to the next delimiter are appended as-is. An
// unterminated quoted field runs to the end of the input.
func splitRecords(text string) [][]string {
	var (
		records  [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
		quoted   bool
	)

	endField := func() {
		row = append(row, cell.String())
		cell.Reset()
		quoted = false
	}
	endRecord := func() {
		endField()
		records = append(records, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					cell.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cell.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			if !quoted && strings.TrimSpace(cell.String()) == "" {
				cell.Reset()
				inQuotes = true
				quoted = true
				continue
			}
			cell.WriteByte(c)
		case ',':
			endField()
		case '\n':
			endRecord()
		case '\r':
			endRecord()
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			cell.WriteByte(c)
		}
	}

	if cell.Len() > 0 || len(row) > 0 || quoted {
		endRecord()
	}
	return records
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// EncodeCSV serializes rows in header order. Cells containing commas, quotes
// or line breaks are quoted with embedded quotes doubled, which ParseTable
// reads back unchanged.
func EncodeCSV(headers []string, rows []RawRow) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("encode csv header: %w", err)
	}
	record := make([]string, len(headers))
	for i, row := range rows {
		for j, h := range headers {
			record[j] = row[h]
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("encode csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	return b.String(), nil
}
