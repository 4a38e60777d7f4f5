package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/catalog"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryCSV = `STATE,CITY,NAME,IG,SAT,SUN,OTA,LAT,LON
MA,Boston,Harbor BJJ,@harborbjj,10:00AM,,Y,42.3601,-71.0589
ma,Worcester,Canal Grappling,@canal,,11:00AM,N,42.2626,-71.8023
RI,Providence,"Ocean State Jiu Jitsu, Inc.",@osjj,9:00AM,9:00AM,yes,,
`

const eventsCSV = `TITLE,DATE,STATE,TYPE,CREATED
Winter Open Mat,1/17/2026,MA,Open Mat,1/13/2026
Fall Seminar,11/8/2025,RI,Seminar,10/1/2025
`

func writeFixtures(t *testing.T, directory, events string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "index.csv")
	eventsPath := filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(dirPath, []byte(directory), 0o644))
	require.NoError(t, os.WriteFile(eventsPath, []byte(events), 0o644))
	return dirPath, eventsPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--timezone", "UTC", "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDirectoryCmd(t *testing.T) {
	dirPath, eventsPath := writeFixtures(t, directoryCSV, eventsCSV)

	out, err := execute(t, "directory", "--directory", dirPath, "--events", eventsPath, "--opens", "sunday")
	require.NoError(t, err)

	assert.Contains(t, out, "Canal Grappling")
	assert.Contains(t, out, "Ocean State Jiu Jitsu, Inc.")
	assert.NotContains(t, out, "Harbor BJJ")
	assert.Contains(t, out, "2 gyms")
}

func TestDirectoryCmd_JSON(t *testing.T) {
	dirPath, eventsPath := writeFixtures(t, directoryCSV, eventsCSV)

	out, err := execute(t, "directory", "--directory", dirPath, "--events", eventsPath, "--guests", "--json")
	require.NoError(t, err)

	var view catalog.DirectoryView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 2, view.Count)
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "MA", view.Groups[0].Label)
}

func TestEventsCmd_JSON(t *testing.T) {
	dirPath, eventsPath := writeFixtures(t, directoryCSV, eventsCSV)

	out, err := execute(t, "events", "--directory", dirPath, "--events", eventsPath, "--type", "Seminar", "--json")
	require.NoError(t, err)

	var view catalog.EventsView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 1, view.Count)
}

func TestFacetsCmd(t *testing.T) {
	dirPath, eventsPath := writeFixtures(t, directoryCSV, eventsCSV)

	out, err := execute(t, "facets", "--directory", dirPath, "--events", eventsPath, "--json")
	require.NoError(t, err)

	var f domain.Facets
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, []string{"MA", "RI"}, f.DirectoryStates)
	assert.Equal(t, []string{"2026", "2025"}, f.EventYears)
}

func TestExportCmd_AppendsPreparedRow(t *testing.T) {
	dirPath, eventsPath := writeFixtures(t, directoryCSV, eventsCSV)

	out, err := execute(t, "export", "--directory", dirPath, "--events", eventsPath, "--dataset", "events",
		"title=Spring Open Mat", "DATE=2026-03-07", "STATE=MA", "TYPE=Open Mat", "NOTES=dropped")
	require.NoError(t, err)

	table := domain.ParseTable(out)
	assert.Equal(t, []string{"TITLE", "DATE", "STATE", "TYPE", "CREATED"}, table.Headers)
	require.Len(t, table.Rows, 3)
	added := table.Rows[2]
	assert.Equal(t, "Spring Open Mat", added["TITLE"])
	assert.Equal(t, "3/7/2026", added["DATE"])
	assert.NotEmpty(t, added["CREATED"])
}

func TestExportCmd_QuotesCells(t *testing.T) {
	dirPath, eventsPath := writeFixtures(t, directoryCSV, eventsCSV)
	outPath := filepath.Join(t.TempDir(), "clean.csv")

	_, err := execute(t, "export", "--directory", dirPath, "--events", eventsPath, "-o", outPath)
	require.NoError(t, err)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Ocean State Jiu Jitsu, Inc."`)
	assert.Equal(t, domain.ParseCSV(directoryCSV), domain.ParseCSV(string(b)))
}

func TestValidateCmd(t *testing.T) {
	t.Run("clean data passes", func(t *testing.T) {
		dirPath, eventsPath := writeFixtures(t, directoryCSV, eventsCSV)

		out, err := execute(t, "validate", "--directory", dirPath, "--events", eventsPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Rows: 3 directory, 2 events")
		assert.NotContains(t, out, "FAIL")
	})

	t.Run("bad rows fail", func(t *testing.T) {
		badDir := directoryCSV + "Massachusetts,Lowell,Mill City,@mill,,,maybe,95,-71.3\n"
		badEvents := eventsCSV + "Mystery Roll,someday,NH,Open Mat,\n"
		dirPath, eventsPath := writeFixtures(t, badDir, badEvents)

		out, err := execute(t, "validate", "--directory", dirPath, "--events", eventsPath)
		require.Error(t, err)
		assert.Contains(t, out, "--- State codes ---")
		assert.Contains(t, out, "--- OTA values ---")
		assert.Contains(t, out, "--- Coordinates ---")
		assert.Contains(t, out, "--- Event dates ---")
		assert.NotContains(t, out, "--- Header coverage ---")
	})
}

func TestRunPhases(t *testing.T) {
	dir := domain.ParseTable("NAME,CITY\nHarbor BJJ,Boston\nHarbor BJJ,Boston\n")
	events := domain.ParseTable("EVENT,WHEN\nOpen Mat,2026-01-17\n")

	phases := runPhases(dir, events, time.UTC)

	byName := map[string]*phase{}
	for _, p := range phases {
		byName[p.name] = p
	}
	assert.Len(t, byName["Header coverage"].errors, 4, "STATE, SAT, SUN missing from directory; STATE from events")
	assert.Len(t, byName["Duplicate rows"].errors, 1)
	assert.True(t, byName["Event dates"].passed(), "WHEN is a DATE synonym")
}

func TestParseAssignments(t *testing.T) {
	row, err := parseAssignments([]string{"TITLE= Open Mat ", "DATE=2026-03-07", "NOTE=a=b"})
	require.NoError(t, err)
	assert.Equal(t, domain.RawRow{"TITLE": "Open Mat", "DATE": "2026-03-07", "NOTE": "a=b"}, row)

	_, err = parseAssignments([]string{"TITLE"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=value"})
	assert.Error(t, err)
}

func TestAppendRow_NoHeader(t *testing.T) {
	got := appendRow(domain.Table{}, domain.RawRow{"TITLE": "Open Mat", "DATE": "3/7/2026"})

	assert.Equal(t, []string{"DATE", "TITLE"}, got.Headers)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Open Mat", got.Rows[0]["TITLE"])
}

type fakePublisher struct {
	published []domain.Submission
	err       error
	closed    bool
}

func (p *fakePublisher) Publish(_ context.Context, subs ...domain.Submission) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, subs...)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestRunSubmit(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	pub := &fakePublisher{}

	err := runSubmit(cmd, pub, "index", []string{"STATE=RI", "NAME=Island BJJ"})
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	sub := pub.published[0]
	assert.Equal(t, domain.DatasetDirectory, sub.Dataset)
	assert.Equal(t, domain.RowID(domain.DatasetDirectory, sub.Row), sub.ID)
	assert.True(t, pub.closed)
	assert.Contains(t, out.String(), "submitted directory row directory-")
	assert.Contains(t, out.String(), "(NAME, STATE)")
}

func TestRunSubmit_Errors(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	pub := &fakePublisher{}
	assert.Error(t, runSubmit(cmd, pub, "gallery", []string{"A=b"}))
	assert.True(t, pub.closed, "writer closed on every path")

	pub = &fakePublisher{err: errors.New("broker down")}
	err := runSubmit(cmd, pub, "events", []string{"TITLE=Open Mat"})
	assert.ErrorContains(t, err, "broker down")
}
