// Package domain models the gym directory and events calendar that the
// browser renders, and implements the filtering and grouping rules over them.
//
// # Data Source
//
// Both datasets are hand-maintained spreadsheets exported as CSV. The admin
// panel appends rows to them, so header spelling drifts between files and over
// time. Nothing here assumes a fixed schema: rows arrive as header→value maps
// ([RawRow]) and are normalized into [DirectoryRecord] and [EventRecord].
//
// # Directory Conventions
//
// Columns (case-insensitive):
//
//	STATE  two-letter code, uppercased on load ("ma" → "MA")
//	CITY, NAME, IG (Instagram handle)
//	SAT, SUN  open-mat hours as free text ("10:00AM"); blank means closed
//	OTA  "open to all" drop-in flag, canonicalized to "Y", "N" or ""
//	LAT, LON  decimal degrees; rows without them never match a distance search
//
// # Event Conventions
//
// Event columns are fuzzy. Each logical field falls back through an ordered
// list of synonyms (see [fieldSynonyms]), e.g. the title may live under TITLE,
// EVENT, NAME, SUMMARY or "SEMINAR BY". The first non-empty synonym wins.
// Every original column survives in [EventRecord.Fields].
//
// Date formats seen in the wild, in parse priority order:
//
//	M/D/YYYY   "11/8/2025"
//	M/D/YY     "11/8/25"  (always 20YY)
//	YYYY-MM-DD "2025-11-08"
//	anything else goes through a best-effort layout list (RFC 3339,
//	"November 8, 2025", "Nov 8 2025", ...)
//
// Dates stay as raw strings on the record. Interpretation (past/upcoming,
// month bucket, "new", "this weekend") happens on demand against an explicit
// reference instant, because "now" moves between renders.
//
// # Search
//
// Every record carries a lowercase search blob. A query is split on commas
// into clauses that are ANDed; inside a clause every word must appear as a
// substring of the blob. See [Tokenize].
package domain
