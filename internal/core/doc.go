// Package core turns a question/answer spreadsheet into instruction-formatted
// training text.
//
// This package holds all conversion logic independent of the CLI or HTTP
// transport. A run is a strict three-stage pipeline:
//
//  1. Read: the origin is loaded fully into memory and parsed into [Row]
//     values, blank lines included. The row count is written to the
//     diagnostics writer (stdout for the CLI).
//  2. Clean: rows are filtered by [Clean] using four predicates on the first
//     field (non-empty, no link, at most [MaxFieldLength] characters, no
//     [CorruptionMarker]).
//  3. Reshape and write: each surviving row is mapped by [FormatRow] according to
//     its [RowShape], the table is prefixed with the [Header] token, the record
//     at index 1 is discarded, and the result is written as one column.
//
// # Positional discard
//
// [DiscardFirstRecord] removes whatever sits at index 1 of the output table,
// the first formatted record after the header, regardless of content. It is a
// positional rule inherited from the dataset this tool was built for and is
// kept as-is.
//
// # Error Handling
//
// Failures are classified with the sentinels [ErrIO] and [ErrParse] and
// wrapped so callers can use errors.Is. [MapError] turns any error into a
// user-facing message with a support code.
package core
