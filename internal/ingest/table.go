package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("ingest: missing column")

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// table is a header plus string records, whatever the source format.
type table struct {
	name   string
	header []string
	rows   [][]string
}

func readCSVTable(name string, r io.Reader) (table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return table{}, fmt.Errorf("read %s header: %w", name, err)
	}

	t := table{name: name, header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return table{}, fmt.Errorf("read %s: %w", name, err)
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

func readSheetTable(f *excelize.File, sheet string) (table, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return table{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table{}, fmt.Errorf("sheet %s is empty", sheet)
	}
	return table{name: sheet, header: rows[0], rows: rows[1:]}, nil
}

// colIndex returns the first column matching any alias, or -1.
func (t table) colIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// require resolves a column or fails with ErrMissingColumn.
func (t table) require(names ...string) (int, error) {
	idx := t.colIndex(names...)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s.%s", ErrMissingColumn, t.name, names[0])
	}
	return idx, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseNumber accepts thousands separators. ok is false for blanks, junk and
// non-finite values such as NaN or Inf.
func parseNumber(record []string, idx int) (float64, bool) {
	v := field(record, idx)
	if v == "" {
		return 0, false
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

// numberOrNaN is parseNumber with NaN marking a value that did not parse.
func numberOrNaN(record []string, idx int) float64 {
	if f, ok := parseNumber(record, idx); ok {
		return f
	}
	return math.NaN()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
}

// parseDate accepts ISO-like strings and Excel serial dates.
func parseDate(record []string, idx int) (time.Time, bool) {
	v := field(record, idx)
	if v == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if !finite(serial) {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t.Truncate(24 * time.Hour), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
