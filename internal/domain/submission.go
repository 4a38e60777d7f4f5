package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Dataset names one of the two CSV files.
type Dataset string

const (
	DatasetDirectory Dataset = "directory"
	DatasetEvents    Dataset = "events"
)

// ParseDataset accepts the dataset names used on the wire and in the CLI.
func ParseDataset(s string) (Dataset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "directory", "index", "gyms":
		return DatasetDirectory, nil
	case "events", "event":
		return DatasetEvents, nil
	default:
		return "", fmt.Errorf("unknown dataset %q", s)
	}
}

// RawMessage is an unprocessed message from the submissions topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutgoingMessage is a serialized submission destined for the topic.
type OutgoingMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// submissionPayload is the JSON body of a submissions message.
type submissionPayload struct {
	Dataset string            `json:"dataset"`
	Row     map[string]string `json:"row"`
}

// Submission is a row appended through the admin form.
type Submission struct {
	ID          string    `json:"id"`
	Dataset     Dataset   `json:"dataset"`
	Row         RawRow    `json:"row"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ParseSubmission decodes a submissions message. The message timestamp
// becomes SubmittedAt.
func ParseSubmission(raw RawMessage) (Submission, error) {
	var p submissionPayload
	if err := json.Unmarshal(raw.Value, &p); err != nil {
		return Submission{}, fmt.Errorf("parse submission: %w", err)
	}
	ds, err := ParseDataset(p.Dataset)
	if err != nil {
		return Submission{}, fmt.Errorf("parse submission: %w", err)
	}

	row := make(RawRow, len(p.Row))
	for k, v := range p.Row {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		row[k] = strings.TrimSpace(v)
	}
	if isBlankRow(row) {
		return Submission{}, fmt.Errorf("parse submission: row has no values")
	}

	return Submission{
		ID:          RowID(ds, row),
		Dataset:     ds,
		Row:         row,
		SubmittedAt: raw.Timestamp,
	}, nil
}

func isBlankRow(row RawRow) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// EncodeSubmission serializes a submission for the topic. The key is the
// submission ID so replays of the same row land on the same partition.
func EncodeSubmission(s Submission) (OutgoingMessage, error) {
	if s.ID == "" {
		s.ID = RowID(s.Dataset, s.Row)
	}
	value, err := json.Marshal(submissionPayload{Dataset: string(s.Dataset), Row: s.Row})
	if err != nil {
		return OutgoingMessage{}, fmt.Errorf("encode submission: %w", err)
	}
	return OutgoingMessage{
		Key:   []byte(s.ID),
		Value: value,
		Headers: map[string]string{
			"dataset": string(s.Dataset),
		},
	}, nil
}

// RowID produces a deterministic ID from a row's dataset and non-blank
// values. Header case, column order and empty columns do not affect it, so a
// submitted row and the same row read back from the CSV share an ID.
func RowID(ds Dataset, row RawRow) string {
	u := upperKeys(row)
	keys := make([]string, 0, len(u))
	for k, v := range u {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(ds))
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(u[k])
	}
	hash := sha256.Sum256([]byte(b.String()))
	return string(ds) + "-" + hex.EncodeToString(hash[:8])
}

var (
	isoFormDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	clockTimeRe   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	meridiemRe    = regexp.MustCompile(`(?i)[ap]m\b`)
)

// PrepareSubmission applies the admin form's conventions before a row is
// appended. Event dates from a date picker (YYYY-MM-DD) become M/D/YYYY and
// a missing DAY is derived from the date. Directory open times in 24-hour
// form become "5:13PM". A missing CREATED is stamped with now as MM/DD/YYYY.
func PrepareSubmission(s Submission, now time.Time) Submission {
	row := make(RawRow, len(s.Row)+2)
	for k, v := range s.Row {
		row[k] = v
	}

	switch s.Dataset {
	case DatasetEvents:
		if key, ok := findKey(row, "DATE"); ok && row[key] != "" {
			row[key] = normalizeFormDate(row[key])
			if dayKey, ok := findKey(row, "DAY"); !ok || row[dayKey] == "" {
				if !ok {
					dayKey = "DAY"
				}
				row[dayKey] = weekdayName(row[key], now.Location())
			}
		}
	case DatasetDirectory:
		for _, name := range []string{"SAT", "SUN"} {
			if key, ok := findKey(row, name); ok {
				row[key] = normalizeOpenTime(row[key])
			}
		}
	}

	if key, ok := findKey(row, "CREATED"); !ok || row[key] == "" {
		if !ok {
			key = "CREATED"
		}
		row[key] = now.Format("01/02/2006")
	}

	s.Row = row
	return s
}

// findKey returns the row's own spelling of header name.
func findKey(row RawRow, name string) (string, bool) {
	for k := range row {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return k, true
		}
	}
	return "", false
}

func normalizeFormDate(s string) string {
	s = strings.TrimSpace(s)
	if m := isoFormDateRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%d/%d/%s", atoi(m[2]), atoi(m[3]), m[1])
	}
	return s
}

func weekdayName(date string, loc *time.Location) string {
	t, ok := ParseEventDate(date, loc)
	if !ok {
		return ""
	}
	return t.Weekday().String()
}

// normalizeOpenTime rewrites "17:13" as "5:13PM". Values that already carry
// AM/PM are uppercased with spaces removed; anything else is kept.
func normalizeOpenTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if meridiemRe.MatchString(s) {
		return strings.ToUpper(strings.Join(strings.Fields(s), ""))
	}
	m := clockTimeRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	hh, _ := strconv.Atoi(m[1])
	ampm := "AM"
	if hh >= 12 {
		ampm = "PM"
	}
	hh %= 12
	if hh == 0 {
		hh = 12
	}
	return fmt.Sprintf("%d:%s%s", hh, m[2], ampm)
}

// AppendDirectory normalizes a submitted row into a DirectoryRecord and
// returns the extended slice. The input slice is not modified.
func AppendDirectory(records []DirectoryRecord, s Submission) []DirectoryRecord {
	out := make([]DirectoryRecord, len(records), len(records)+1)
	copy(out, records)
	return append(out, NormalizeDirectory(s.Row))
}

// AppendEvent normalizes a submitted row into an EventRecord and returns the
// extended slice. The input slice is not modified.
func AppendEvent(records []EventRecord, s Submission) []EventRecord {
	out := make([]EventRecord, len(records), len(records)+1)
	copy(out, records)
	return append(out, NormalizeEvent(s.Row))
}
