package sales

import "time"

// CleanOptions sets the fill values used for missing cells.
type CleanOptions struct {
	NumberFill float64
	TextFill   string
	DateFill   time.Time
}

// DefaultCleanOptions fills every kind with its zero: 0, "0" and the Unix epoch.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NumberFill: 0,
		TextFill:   "0",
		DateFill:   time.Unix(0, 0).UTC(),
	}
}

// ColumnCount pairs a column with a count, in schema order.
type ColumnCount struct {
	Column string
	Count  int
}

// CleanReport lists how many cells were filled per column.
type CleanReport struct {
	Filled []ColumnCount
}

func (r CleanReport) Total() int {
	total := 0
	for _, c := range r.Filled {
		total += c.Count
	}
	return total
}

// Clean returns a copy of t with every missing cell replaced by the fill for its kind.
// The input table is left untouched.
func Clean(t *Table, opts CleanOptions) (*Table, CleanReport) {
	report := CleanReport{Filled: make([]ColumnCount, len(t.schema))}
	for i, c := range t.schema {
		report.Filled[i] = ColumnCount{Column: c.Name}
	}

	rows := make([][]Cell, len(t.rows))
	for r, row := range t.rows {
		out := make([]Cell, len(row))
		copy(out, row)
		for col := range out {
			if !out[col].Missing {
				continue
			}
			out[col] = fill(t.schema[col].Kind, out[col].Raw, opts)
			report.Filled[col].Count++
		}
		rows[r] = out
	}

	return &Table{schema: t.Schema(), rows: rows}, report
}

func fill(kind Kind, raw string, opts CleanOptions) Cell {
	switch kind {
	case KindNumber:
		return Cell{Kind: kind, Num: opts.NumberFill, Raw: raw}
	case KindDate:
		return Cell{Kind: kind, Time: opts.DateFill, Raw: raw}
	default:
		return Cell{Kind: kind, Text: opts.TextFill, Raw: raw}
	}
}

// CountMissing returns the number of missing cells in column, 0 for unknown columns.
func CountMissing(t *Table, column string) int {
	i := t.schema.Index(column)
	if i < 0 {
		return 0
	}
	n := 0
	for _, row := range t.rows {
		if row[i].Missing {
			n++
		}
	}
	return n
}

// MissingCounts returns CountMissing for every column in schema order.
func MissingCounts(t *Table) []ColumnCount {
	counts := make([]ColumnCount, len(t.schema))
	for i, c := range t.schema {
		counts[i] = ColumnCount{Column: c.Name, Count: CountMissing(t, c.Name)}
	}
	return counts
}
