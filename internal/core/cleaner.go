package core

// cleaner.go drops rows whose first field is unusable as training text.
//
// Each check is an independent Predicate. Check runs them in a fixed order and
// stops at the first failure, so a row rejected for two reasons is counted once
// under the earlier one.

import (
	"strings"
	"unicode/utf8"
)

// MaxFieldLength is the longest first field, in characters, that is kept.
const MaxFieldLength = 2048

// CorruptionMarker appears where text was mis-transcoded into placeholders.
const CorruptionMarker = "??"

// linkMarkers are plain substrings, not a URL parser. A match anywhere in the
// field rejects the row, including inside unrelated words.
var linkMarkers = []string{".com", ".org", "http"}

// Reason names the predicate that rejected a row.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonEmpty   Reason = "empty"
	ReasonLink    Reason = "link"
	ReasonTooLong Reason = "too_long"
	ReasonCorrupt Reason = "corrupt"
)

// Predicate reports whether a row should be kept.
type Predicate func(Row) bool

// NonEmpty keeps rows with at least one field.
func NonEmpty(row Row) bool {
	return len(row) > 0
}

// NoLink keeps rows whose first field holds none of the link markers.
func NoLink(row Row) bool {
	field := firstField(row)
	for _, m := range linkMarkers {
		if strings.Contains(field, m) {
			return false
		}
	}
	return true
}

// WithinLength keeps rows whose first field is at most MaxFieldLength characters.
func WithinLength(row Row) bool {
	return utf8.RuneCountInString(firstField(row)) <= MaxFieldLength
}

// NoCorruption keeps rows whose first field does not contain CorruptionMarker.
func NoCorruption(row Row) bool {
	return !strings.Contains(firstField(row), CorruptionMarker)
}

var cleaningRules = []struct {
	reason Reason
	keep   Predicate
}{
	{ReasonEmpty, NonEmpty},
	{ReasonLink, NoLink},
	{ReasonTooLong, WithinLength},
	{ReasonCorrupt, NoCorruption},
}

// Check returns the reason the first failing predicate rejects row, or
// ReasonNone if every predicate passes.
func Check(row Row) Reason {
	for _, rule := range cleaningRules {
		if !rule.keep(row) {
			return rule.reason
		}
	}
	return ReasonNone
}

// Keep reports whether row passes every cleaning predicate.
func Keep(row Row) bool {
	return Check(row) == ReasonNone
}

// Clean returns the rows that pass every predicate, in their original order.
func Clean(rows []Row) []Row {
	return Filter(rows, Keep)
}

// Filter returns a new slice with the rows for which keep is true.
func Filter(rows []Row, keep Predicate) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func firstField(row Row) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}
