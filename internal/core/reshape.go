package core

import "fmt"

// RowShape classifies a row by field count.
type RowShape int

const (
	// ShapeOther rows are skipped.
	ShapeOther RowShape = iota
	// ShapeNarrow rows are a bare instruction/response pair.
	ShapeNarrow
	// ShapeWide rows are extended Q&A records with metadata columns:
	// questionID, questionTitle, questionText, questionLink, topic,
	// therapistInfo, therapistURL, answerText, upvotes, views.
	ShapeWide
)

const (
	narrowFields = 2
	wideFields   = 10

	wideQuestion = 2
	wideAnswer   = 7
)

// Instruction template pieces.
const (
	recordOpen  = "<s>[INST]"
	recordSplit = " [/INST]  "
	recordClose = " </s>"
)

func (s RowShape) String() string {
	switch s {
	case ShapeWide:
		return "wide"
	case ShapeNarrow:
		return "narrow"
	case ShapeOther:
		return "other"
	default:
		return fmt.Sprintf("RowShape(%d)", int(s))
	}
}

// ShapeOf classifies row by its field count.
func ShapeOf(row Row) RowShape {
	switch len(row) {
	case wideFields:
		return ShapeWide
	case narrowFields:
		return ShapeNarrow
	default:
		return ShapeOther
	}
}

// FormatRow builds the record for row. The boolean is false for ShapeOther rows,
// which contribute nothing to the output.
func FormatRow(row Row) (FormattedRecord, bool) {
	switch ShapeOf(row) {
	case ShapeWide:
		return formatPair(row[wideQuestion], row[wideAnswer]), true
	case ShapeNarrow:
		return formatPair(row[0], row[1]), true
	default:
		return "", false
	}
}

func formatPair(question, answer string) FormattedRecord {
	return FormattedRecord(recordOpen + question + recordSplit + answer + recordClose)
}

// BuildTable returns the header followed by one record per formattable row.
func BuildTable(rows []Row) OutputTable {
	table := make(OutputTable, 1, len(rows)+1)
	table[0] = Header
	for _, row := range rows {
		if rec, ok := FormatRow(row); ok {
			table = append(table, string(rec))
		}
	}
	return table
}

// DiscardFirstRecord removes the element at index 1, whatever it holds. A
// table with only the header is returned unchanged and ok is false.
func DiscardFirstRecord(table OutputTable) (out OutputTable, discarded FormattedRecord, ok bool) {
	if len(table) < 2 {
		return table, "", false
	}
	out = make(OutputTable, 0, len(table)-1)
	out = append(out, table[0])
	out = append(out, table[2:]...)
	return out, FormattedRecord(table[1]), true
}

// Transform cleans rows and reshapes the survivors into the final table,
// filling the counting fields of report.
func Transform(rows []Row, report *Report) OutputTable {
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if reason := Check(row); reason != ReasonNone {
			report.Dropped[reason]++
			continue
		}
		kept = append(kept, row)
		report.Shapes[ShapeOf(row)]++
	}
	report.RowsRead = len(rows)
	report.RowsKept = len(kept)

	table, discarded, ok := DiscardFirstRecord(BuildTable(kept))
	report.Discarded, report.HasDiscarded = discarded, ok
	report.RecordsWritten = len(table) - 1
	return table
}
