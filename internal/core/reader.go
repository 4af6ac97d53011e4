package core

// reader.go parses origin bytes into rows.
//
// encoding/csv silently skips blank lines, but a blank line is a row here (it
// counts toward the diagnostic total and is later dropped by the cleaner). The
// parser therefore tracks line numbers between records and re-inserts an empty
// Row for every line the csv reader skipped.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// metadataSheets are workbook sheets that never hold the data table.
var metadataSheets = map[string]bool{
	"info":     true,
	"metadata": true,
	"about":    true,
	"readme":   true,
	"notes":    true,
}

// ParseRows decodes data in the given format and returns every row in order,
// including blank ones. Malformed input is reported as ErrParse.
func ParseRows(data []byte, format Format) ([]Row, error) {
	if format == FormatXLSX {
		return parseWorkbook(data)
	}
	return parseDelimited(decodeText(data), format.comma())
}

// decodeText strips a UTF-8 BOM and replaces each invalid byte with '?'.
func decodeText(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteByte('?')
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes()
}

func parseDelimited(data []byte, comma rune) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1

	var (
		rows     []Row
		offset   int64
		newlines int
		next     = 1 // line the next record starts on if no blank lines intervene
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		start, _ := r.FieldPos(0)
		for ; next < start; next++ {
			rows = append(rows, Row{})
		}
		rows = append(rows, Row(record))

		end := r.InputOffset()
		newlines += bytes.Count(data[offset:end], []byte{'\n'})
		offset = end
		next = newlines + 1
	}

	for n := bytes.Count(data[offset:], []byte{'\n'}); n > 0; n-- {
		rows = append(rows, Row{})
	}
	return rows, nil
}

func parseWorkbook(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrParse, err)
	}
	defer f.Close()

	sheet := dataSheet(f.GetSheetList())
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrParse, sheet, err)
	}

	rows := make([]Row, len(raw))
	for i, cells := range raw {
		rows[i] = Row(cells)
	}
	return rows, nil
}

// dataSheet returns the first sheet that is not a metadata sheet, falling back
// to the last sheet when every sheet looks like metadata.
func dataSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, s := range sheets {
		if !metadataSheets[strings.ToLower(strings.TrimSpace(s))] {
			return s
		}
	}
	return sheets[len(sheets)-1]
}
