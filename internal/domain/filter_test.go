package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directoryFixture() []DirectoryRecord {
	return NormalizeDirectoryRows([]RawRow{
		{"STATE": "MA", "CITY": "Boston", "NAME": "Harbor BJJ", "SAT": "10:00AM", "SUN": "", "OTA": "Y"},
		{"STATE": "MA", "CITY": "Worcester", "NAME": "Saturn Grappling", "SAT": "", "SUN": "", "OTA": "Y"},
		{"STATE": "RI", "CITY": "Providence", "NAME": "Ocean State", "SAT": "", "SUN": "11:00AM", "OTA": "N"},
		{"STATE": "TX", "CITY": "Austin", "NAME": "Boston Style Gi", "SAT": "9:00AM", "SUN": "9:00AM", "OTA": ""},
	})
}

func names(records []DirectoryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func titles(records []EventRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestFilterDirectory_OpensAndGuests(t *testing.T) {
	rows := NormalizeDirectoryRows([]RawRow{
		{"STATE": "MA", "SAT": "10:00", "SUN": "", "OTA": "Y"},
		{"STATE": "RI", "SAT": "", "SUN": "11:00", "OTA": "N"},
	})

	got := FilterDirectory(rows, DirectoryFilter{
		Opens:  NewSet(OpensSaturday),
		Guests: NewSet("any"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "MA", got[0].State)
}

func TestFilterDirectory(t *testing.T) {
	records := directoryFixture()

	tests := []struct {
		name   string
		filter DirectoryFilter
		want   []string
	}{
		{
			name:   "no selections",
			filter: DirectoryFilter{},
			want:   []string{"Harbor BJJ", "Saturn Grappling", "Ocean State", "Boston Style Gi"},
		},
		{
			name:   "opens all means saturday or sunday",
			filter: DirectoryFilter{Opens: NewSet(OpensAll)},
			want:   []string{"Harbor BJJ", "Ocean State", "Boston Style Gi"},
		},
		{
			name:   "opens sunday",
			filter: DirectoryFilter{Opens: NewSet(OpensSunday)},
			want:   []string{"Ocean State", "Boston Style Gi"},
		},
		{
			name:   "opens saturday or sunday",
			filter: DirectoryFilter{Opens: NewSet(OpensSaturday, OpensSunday)},
			want:   []string{"Harbor BJJ", "Ocean State", "Boston Style Gi"},
		},
		{
			name:   "guests welcome requires OTA Y",
			filter: DirectoryFilter{Guests: NewSet(GuestsWelcome)},
			want:   []string{"Harbor BJJ", "Saturn Grappling"},
		},
		{
			name:   "state facet",
			filter: DirectoryFilter{States: NewSet("RI", "TX")},
			want:   []string{"Ocean State", "Boston Style Gi"},
		},
		{
			name:   "clauses are ANDed",
			filter: DirectoryFilter{Query: "boston, gi"},
			want:   []string{"Boston Style Gi"},
		},
		{
			name:   "clause spacing is irrelevant",
			filter: DirectoryFilter{Query: "boston ,gi"},
			want:   []string{"Boston Style Gi"},
		},
		{
			name:   "words in a clause are ANDed",
			filter: DirectoryFilter{Query: "harbor boston"},
			want:   []string{"Harbor BJJ"},
		},
		{
			name:   "sat token tests saturday hours, not the blob",
			filter: DirectoryFilter{Query: "sat"},
			want:   []string{"Harbor BJJ", "Boston Style Gi"},
		},
		{
			name:   "sunday token",
			filter: DirectoryFilter{Query: "Sunday"},
			want:   []string{"Ocean State", "Boston Style Gi"},
		},
		{
			name:   "open mat token",
			filter: DirectoryFilter{Query: "open mat, ma"},
			want:   []string{"Harbor BJJ"},
		},
		{
			name:   "facets and query combine",
			filter: DirectoryFilter{States: NewSet("MA"), Query: "worcester"},
			want:   []string{"Saturn Grappling"},
		},
		{
			name:   "no match",
			filter: DirectoryFilter{Query: "denver"},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(FilterDirectory(records, tt.filter)))
		})
	}
}

func TestFilterDirectory_DoesNotMutateInput(t *testing.T) {
	records := directoryFixture()
	before := names(records)

	_ = FilterDirectory(records, DirectoryFilter{Query: "ri"})

	assert.Equal(t, before, names(records))
}

func eventsFixture() []EventRecord {
	return NormalizeEventRows([]RawRow{
		{"YEAR": "", "STATE": "MA", "CITY": "Boston", "TITLE": "Harbor Open Mat", "TYPE": "OPEN MAT", "DATE": "1/17/2026", "CREATED": "1/12/2026"},
		{"YEAR": "", "STATE": "TX", "CITY": "Austin", "TITLE": "Leg Lock Seminar", "TYPE": "SEMINAR", "DATE": "1/24/2026", "CREATED": "1/2/2026"},
		{"YEAR": "2025", "STATE": "RI", "CITY": "Providence", "TITLE": "Fall Classic", "TYPE": "TOURNAMENT", "DATE": "11/8/2025", "CREATED": ""},
		{"YEAR": "", "STATE": "MA", "CITY": "Salem", "TITLE": "Mystery Camp", "TYPE": "CAMP", "DATE": "TBD", "CREATED": "1/14/2026"},
	})
}

func TestFilterEvents(t *testing.T) {
	records := eventsFixture()
	now := time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{
			name:   "no selections",
			filter: EventFilter{},
			want:   []string{"Harbor Open Mat", "Leg Lock Seminar", "Fall Classic", "Mystery Camp"},
		},
		{
			name:   "year from explicit column or date",
			filter: EventFilter{Years: NewSet("2026")},
			want:   []string{"Harbor Open Mat", "Leg Lock Seminar"},
		},
		{
			name:   "state facet",
			filter: EventFilter{States: NewSet("MA")},
			want:   []string{"Harbor Open Mat", "Mystery Camp"},
		},
		{
			name:   "type facet",
			filter: EventFilter{Types: NewSet("SEMINAR", "TOURNAMENT")},
			want:   []string{"Leg Lock Seminar", "Fall Classic"},
		},
		{
			name:   "new events",
			filter: EventFilter{Query: "new events"},
			want:   []string{"Harbor Open Mat", "Mystery Camp"},
		},
		{
			name:   "this weekend",
			filter: EventFilter{Query: "this weekend"},
			want:   []string{"Harbor Open Mat"},
		},
		{
			name:   "phrase plus clause",
			filter: EventFilter{Query: "new events, salem"},
			want:   []string{"Mystery Camp"},
		},
		{
			name:   "month label is searchable",
			filter: EventFilter{Query: "november 2025"},
			want:   []string{"Fall Classic"},
		},
		{
			name:   "month label combines with other clauses",
			filter: EventFilter{Query: "january, seminar"},
			want:   []string{"Leg Lock Seminar"},
		},
		{
			name:   "open mat is plain text for events",
			filter: EventFilter{Query: "open mat"},
			want:   []string{"Harbor Open Mat"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(FilterEvents(records, tt.filter, now)))
		})
	}
}

func TestFilter_HasSelections(t *testing.T) {
	assert.False(t, DirectoryFilter{}.HasSelections())
	assert.False(t, DirectoryFilter{Query: "   "}.HasSelections())
	assert.True(t, DirectoryFilter{Opens: NewSet(OpensAll)}.HasSelections())
	assert.True(t, DirectoryFilter{Query: "ma"}.HasSelections())

	assert.False(t, EventFilter{Years: NewSet()}.HasSelections())
	assert.True(t, EventFilter{Types: NewSet("CAMP")}.HasSelections())
}

func TestSet(t *testing.T) {
	s := NewSet("MA", " ", "RI", "MA")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("MA"))

	s.Remove("MA")
	s.Add("")
	s.Add("TX")
	assert.Equal(t, []string{"RI", "TX"}, s.Values())

	var empty Set
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Has("MA"))
}
