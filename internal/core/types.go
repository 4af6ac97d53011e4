package core

import (
	"path"
	"strings"
	"time"
)

// Row is one parsed record from the origin. An empty Row is a blank line.
type Row []string

// FormattedRecord is a question/answer pair wrapped in instruction delimiters.
type FormattedRecord string

// OutputTable is the single output column. Element 0 is always [Header].
type OutputTable []string

// Header is the column name written as the first output value.
const Header = "text"

// Format identifies the tabular encoding of an origin or destination.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the format from a location's extension. Unknown extensions
// are treated as CSV.
func FormatFor(location string) Format {
	switch strings.ToLower(path.Ext(location)) {
	case ".tsv":
		return FormatTSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// comma returns the field delimiter for delimited formats.
func (f Format) comma() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// Options names the two ends of a conversion.
type Options struct {
	OriginPath string
	NewPath    string
}

// Report summarizes one conversion run.
type Report struct {
	RunID       string
	Origin      string
	Destination string

	RowsRead int
	RowsKept int
	Dropped  map[Reason]int
	Shapes   map[RowShape]int

	// RecordsWritten excludes the header.
	RecordsWritten int

	// Discarded holds the record removed by the positional discard, if any.
	Discarded    FormattedRecord
	HasDiscarded bool

	StartedAt time.Time
	Duration  time.Duration
}

func newReport(runID, origin, destination string, started time.Time) Report {
	return Report{
		RunID:       runID,
		Origin:      origin,
		Destination: destination,
		Dropped:     make(map[Reason]int),
		Shapes:      make(map[RowShape]int),
		StartedAt:   started,
	}
}

// DroppedTotal returns the number of rows rejected by the cleaner.
func (r Report) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}
