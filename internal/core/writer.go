package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LineEnding selects the row terminator for delimited output.
type LineEnding string

const (
	LineEndingNative LineEnding = "native"
	LineEndingLF     LineEnding = "lf"
	LineEndingCRLF   LineEnding = "crlf"
)

// ParseLineEnding accepts native, lf or crlf (case-insensitive).
func ParseLineEnding(s string) (LineEnding, error) {
	switch e := LineEnding(strings.ToLower(strings.TrimSpace(s))); e {
	case LineEndingNative, LineEndingLF, LineEndingCRLF:
		return e, nil
	case "":
		return LineEndingNative, nil
	default:
		return "", fmt.Errorf("unknown line ending %q", s)
	}
}

func (e LineEnding) crlf() bool {
	switch e {
	case LineEndingCRLF:
		return true
	case LineEndingLF:
		return false
	default:
		return runtime.GOOS == "windows"
	}
}

const outputSheet = "Sheet1"

// WriteTable serializes table as a single column. Each value is its own
// record, quoted as needed so embedded delimiters, quotes and newlines survive.
func WriteTable(w io.Writer, table OutputTable, format Format, ending LineEnding) error {
	if format == FormatXLSX {
		return writeWorkbook(w, table)
	}

	cw := csv.NewWriter(w)
	cw.Comma = format.comma()
	cw.UseCRLF = ending.crlf()
	for i, value := range table {
		if err := cw.Write([]string{value}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func writeWorkbook(w io.Writer, table OutputTable) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, value := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell for row %d: %w", i, err)
		}
		if err := f.SetCellStr(outputSheet, cell, value); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
