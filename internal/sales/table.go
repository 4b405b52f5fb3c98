package sales

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "float64"
	case KindDate:
		return "datetime"
	default:
		return "object"
	}
}

// Well-known columns of a sales dataset.
const (
	ColumnDate   = "Date"
	ColumnRegion = "Region"
	ColumnSales  = "Sales"
	ColumnProfit = "Profit"
)

// DateLayout is used when printing date cells.
const DateLayout = "2006-01-02"

type Column struct {
	Name string
	Kind Kind
}

// Schema is the ordered column list shared by every row of a Table.
type Schema []Column

// Index returns the position of name or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Cell holds one typed value. Missing cells keep Raw for diagnostics.
type Cell struct {
	Kind    Kind
	Num     float64
	Text    string
	Time    time.Time
	Missing bool
	Raw     string
}

func (c Cell) String() string {
	if c.Missing {
		return "NaN"
	}
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindDate:
		return c.Time.Format(DateLayout)
	default:
		return c.Text
	}
}

// Record is one SalesRecord: a row of cells bound to the table schema.
type Record struct {
	schema Schema
	cells  []Cell
}

func (r Record) Cell(column string) (Cell, bool) {
	i := r.schema.Index(column)
	if i < 0 {
		return Cell{}, false
	}
	return r.cells[i], true
}

func (r Record) Cells() []Cell {
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Number returns the numeric value of column; missing or non-numeric cells report false.
func (r Record) Number(column string) (float64, bool) {
	c, ok := r.Cell(column)
	if !ok || c.Missing || c.Kind != KindNumber {
		return 0, false
	}
	return c.Num, true
}

// Text returns the printable value of column (for any kind).
func (r Record) Text(column string) string {
	c, ok := r.Cell(column)
	if !ok {
		return ""
	}
	return c.String()
}

func (r Record) Date() (time.Time, bool) {
	c, ok := r.Cell(ColumnDate)
	if !ok || c.Missing || c.Kind != KindDate {
		return time.Time{}, false
	}
	return c.Time, true
}

func (r Record) Region() string { return r.Text(ColumnRegion) }

func (r Record) Sales() (float64, bool) { return r.Number(ColumnSales) }

func (r Record) Profit() (float64, bool) { return r.Number(ColumnProfit) }

// Table is the in-memory SalesTable. It is not modified after construction;
// Clean returns a new Table.
type Table struct {
	schema Schema
	rows   [][]Cell
}

// NewTable builds a table, checking that every row matches the schema width.
func NewTable(schema Schema, rows [][]Cell) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(schema) {
			return nil, fmt.Errorf("row %d has %d cells, schema has %d columns", i, len(row), len(schema))
		}
	}
	return &Table{schema: schema, rows: rows}, nil
}

func (t *Table) Schema() Schema {
	out := make(Schema, len(t.schema))
	copy(out, t.schema)
	return out
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Record(i int) Record {
	return Record{schema: t.schema, cells: t.rows[i]}
}

func (t *Table) Records() []Record {
	out := make([]Record, len(t.rows))
	for i := range t.rows {
		out[i] = t.Record(i)
	}
	return out
}

func (t *Table) HasColumn(name string) bool { return t.schema.Index(name) >= 0 }

// ColumnKind reports the kind of name, false when the column is absent.
func (t *Table) ColumnKind(name string) (Kind, bool) {
	i := t.schema.Index(name)
	if i < 0 {
		return KindText, false
	}
	return t.schema[i].Kind, true
}

// Numbers returns the non-missing values of a numeric column in table order.
func (t *Table) Numbers(column string) []float64 {
	i := t.schema.Index(column)
	if i < 0 || t.schema[i].Kind != KindNumber {
		return nil
	}
	values := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		if !row[i].Missing {
			values = append(values, row[i].Num)
		}
	}
	return values
}

// NumericColumns lists numeric column names in schema order.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.schema {
		if c.Kind == KindNumber {
			names = append(names, c.Name)
		}
	}
	return names
}
