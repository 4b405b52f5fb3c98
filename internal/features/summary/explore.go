package summary

import "sales-analysis/internal/sales"

// ColumnInfo is one line of the "data types and non-null counts" listing.
type ColumnInfo struct {
	Column  string
	Kind    sales.Kind
	NonNull int
}

// Info lists every column with its kind and number of present cells.
func Info(t *sales.Table) []ColumnInfo {
	infos := make([]ColumnInfo, 0, len(t.Schema()))
	for _, c := range t.Schema() {
		infos = append(infos, ColumnInfo{
			Column:  c.Name,
			Kind:    c.Kind,
			NonNull: t.Len() - sales.CountMissing(t, c.Name),
		})
	}
	return infos
}

// Head returns up to n leading records.
func Head(t *sales.Table, n int) []sales.Record {
	if n > t.Len() {
		n = t.Len()
	}
	if n < 0 {
		n = 0
	}
	out := make([]sales.Record, n)
	for i := 0; i < n; i++ {
		out[i] = t.Record(i)
	}
	return out
}
