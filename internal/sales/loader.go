package sales

// Loader - reads a sales dataset (CSV/TSV or XLSX) into a typed Table
// Column kinds are inferred from the data: declared date columns are parsed as dates,
// columns where every present cell is a number become numeric, the rest stay text

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// LoadOptions controls parsing.
type LoadOptions struct {
	Delimiter      rune     // 0 = guess from extension (',' or tab for .tsv)
	DateColumns    []string // parsed as dates, every present cell must parse
	NumericColumns []string // forced numeric, every present cell must parse
	Sheet          string   // xlsx only, "" = first sheet
}

func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		DateColumns:    []string{ColumnDate},
		NumericColumns: []string{ColumnSales, ColumnProfit},
	}
}

var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"-nan": true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
	"#NA":  true,
	"<NA>": true,

	"#N/A N/A": true,
	"-1.#IND":  true,
	"1.#IND":   true,
	"-1.#QNAN": true,
	"1.#QNAN":  true,
}

// IsMissing reports whether raw is a missing-value marker.
func IsMissing(raw string) bool {
	return missingMarkers[strings.TrimSpace(raw)]
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006",
}

// ParseDate tries the supported layouts in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Load reads path, choosing the format by extension.
func Load(path string, opts LoadOptions) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(path, opts)
	}
	return LoadCSV(path, opts)
}

// LoadCSV reads a delimited text file with a header row.
func LoadCSV(path string, opts LoadOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer file.Close()

	if opts.Delimiter == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Delimiter = '\t'
	}
	return LoadReader(file, opts)
}

// LoadReader reads CSV content from r.
func LoadReader(r io.Reader, opts LoadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, NewStageError(StageLoad, ErrParse, &ParseError{Row: csvErr.Line, Reason: csvErr.Err.Error()})
			}
			return nil, NewStageError(StageLoad, ErrGeneric, fmt.Errorf("failed to read CSV: %w", err))
		}
		rows = append(rows, row)
	}

	return build(rows, opts, false)
}

// LoadXLSX reads the first (or the named) sheet of a workbook.
func LoadXLSX(path string, opts LoadOptions) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, openError(path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, NewStageError(StageLoad, ErrParse, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, NewStageError(StageLoad, ErrParse, &ParseError{Row: 1, Reason: "workbook has no sheets"})
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, NewStageError(StageLoad, ErrParse, fmt.Errorf("failed to read sheet %q: %w", sheet, err))
	}

	return build(rows, opts, true)
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return NewStageError(StageLoad, ErrFileNotFound, fmt.Errorf("%s: %w", path, ErrFileNotFound))
	}
	return NewStageError(StageLoad, ErrGeneric, fmt.Errorf("failed to open %s: %w", path, err))
}

// build turns raw rows (header first) into a typed table.
// Workbook rows drop trailing empty cells, so padShort pads them back to the header width.
func build(rows [][]string, opts LoadOptions, padShort bool) (*Table, error) {
	if len(rows) == 0 {
		return nil, NewStageError(StageLoad, ErrParse, &ParseError{Row: 1, Reason: "no header row"})
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	data := rows[1:]
	for i, row := range data {
		if len(row) < len(header) && padShort {
			padded := make([]string, len(header))
			copy(padded, row)
			data[i] = padded
			continue
		}
		if len(row) != len(header) {
			return nil, NewStageError(StageLoad, ErrParse, &ParseError{
				Row:    i + 2,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(row)),
			})
		}
	}

	dateSet := toSet(opts.DateColumns)
	numSet := toSet(opts.NumericColumns)

	for name := range dateSet {
		if indexOf(header, name) < 0 {
			return nil, NewStageError(StageLoad, ErrParse, &ParseError{Row: 1, Column: name, Reason: "date column missing from header"})
		}
	}

	schema := make(Schema, len(header))
	for col, name := range header {
		switch {
		case dateSet[name]:
			schema[col] = Column{Name: name, Kind: KindDate}
		case numSet[name] || allNumeric(data, col):
			schema[col] = Column{Name: name, Kind: KindNumber}
		default:
			schema[col] = Column{Name: name, Kind: KindText}
		}
	}

	cells := make([][]Cell, len(data))
	for r, row := range data {
		cells[r] = make([]Cell, len(schema))
		for col, column := range schema {
			cell, err := parseCell(row[col], column.Kind)
			if err != nil {
				return nil, NewStageError(StageLoad, ErrParse, &ParseError{
					Row:    r + 2,
					Column: column.Name,
					Value:  row[col],
					Reason: err.Error(),
				})
			}
			cells[r][col] = cell
		}
	}

	return NewTable(schema, cells)
}

func parseCell(raw string, kind Kind) (Cell, error) {
	value := strings.TrimSpace(raw)
	if IsMissing(value) {
		return Cell{Kind: kind, Missing: true, Raw: raw}, nil
	}
	switch kind {
	case KindNumber:
		if isNaNLiteral(value) {
			return Cell{Kind: kind, Missing: true, Raw: raw}, nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Cell{}, fmt.Errorf("not a number")
		}
		if math.IsNaN(f) {
			return Cell{Kind: kind, Missing: true, Raw: raw}, nil
		}
		return Cell{Kind: kind, Num: f, Raw: raw}, nil
	case KindDate:
		t, ok := ParseDate(value)
		if !ok {
			return Cell{}, fmt.Errorf("not a date")
		}
		return Cell{Kind: kind, Time: t, Raw: raw}, nil
	default:
		return Cell{Kind: kind, Text: value, Raw: raw}, nil
	}
}

func allNumeric(rows [][]string, col int) bool {
	for _, row := range rows {
		value := strings.TrimSpace(row[col])
		if IsMissing(value) || isNaNLiteral(value) {
			continue
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return false
		}
	}
	return true
}

// isNaNLiteral matches NaN in any case with an optional sign, which a float column treats as missing.
func isNaNLiteral(v string) bool {
	v = strings.TrimLeft(v, "+-")
	return strings.EqualFold(v, "nan")
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
