package domain

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Phrase tokens are matched on word boundaries so "events" elsewhere in
	// the query survives as a search word.
	newEventsRe   = regexp.MustCompile(`\bnew\s+events\b`)
	thisWeekendRe = regexp.MustCompile(`\bthis\s+weekend\b`)
)

// Query is a tokenized free-text search.
type Query struct {
	Raw     string   `json:"raw"`
	Clauses []string `json:"clauses"`

	WantsNew     bool `json:"wants_new"`
	WantsWeekend bool `json:"wants_weekend"`
}

// Empty reports whether the query places no restriction at all.
func (q Query) Empty() bool {
	return len(q.Clauses) == 0 && !q.WantsNew && !q.WantsWeekend
}

// Tokenize normalizes raw search text, extracts the "new events" and
// "this weekend" phrase tokens, and splits the rest into comma-separated
// clauses.
func Tokenize(raw string) Query {
	q := Query{Raw: raw}
	text := normalizeText(raw)

	if newEventsRe.MatchString(text) {
		q.WantsNew = true
		text = newEventsRe.ReplaceAllString(text, " ")
	}
	if thisWeekendRe.MatchString(text) {
		q.WantsWeekend = true
		text = thisWeekendRe.ReplaceAllString(text, " ")
	}

	q.Clauses = splitClauses(text)
	return q
}

// TokenizeClauses splits raw search text into clauses without extracting
// phrase tokens. The directory view uses it: gyms have no creation or event
// date for "new events" or "this weekend" to test.
func TokenizeClauses(raw string) Query {
	return Query{Raw: raw, Clauses: splitClauses(normalizeText(raw))}
}

func splitClauses(text string) []string {
	var out []string
	for _, c := range strings.Split(text, ",") {
		c = collapseSpaces(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// normalizeText lowercases s, turns every rune other than a letter, digit,
// whitespace or comma into a space, and collapses whitespace runs.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ',' {
			return r
		}
		return ' '
	}, s)
	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MatchClause reports whether every word of clause occurs as a substring of
// haystack after both are normalized. A clause without words matches
// everything.
func MatchClause(haystack, clause string) bool {
	words := strings.Fields(normalizeText(clause))
	if len(words) == 0 {
		return true
	}
	h := normalizeText(haystack)
	for _, w := range words {
		if !strings.Contains(h, w) {
			return false
		}
	}
	return true
}

// dayToken is a single-clause token that replaces substring matching in the
// directory view.
type dayToken int

const (
	noDayToken dayToken = iota
	saturdayToken
	sundayToken
	openMatToken
)

func parseDayToken(clause string) dayToken {
	switch clause {
	case "sat", "saturday":
		return saturdayToken
	case "sun", "sunday":
		return sundayToken
	case "open mat":
		return openMatToken
	default:
		return noDayToken
	}
}

func (t dayToken) matches(r DirectoryRecord) bool {
	switch t {
	case saturdayToken:
		return r.HasSaturday()
	case sundayToken:
		return r.HasSunday()
	case openMatToken:
		return r.HasSaturday() || r.HasSunday()
	default:
		return true
	}
}
