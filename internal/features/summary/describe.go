package summary

// Descriptive statistics over the numeric columns of a sales table
// Same figures as a dataframe describe(): count, mean, std, min, quartiles, max

import (
	"math"
	"sort"

	"sales-analysis/internal/sales"
)

// ColumnStats is one describe() column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"q50"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Description holds ColumnStats in schema order.
type Description struct {
	Columns []ColumnStats `json:"columns"`
}

func (d Description) Get(column string) (ColumnStats, bool) {
	for _, c := range d.Columns {
		if c.Column == column {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// Describe computes statistics for every numeric column. Missing cells are skipped,
// so after cleaning Count equals the row count.
func Describe(t *sales.Table) Description {
	var d Description
	for _, name := range t.NumericColumns() {
		d.Columns = append(d.Columns, Stats(name, t.Numbers(name)))
	}
	return d
}

// Stats computes ColumnStats for a slice of values.
// Empty input yields NaN for every figure except Count, as pandas does.
func Stats(column string, values []float64) ColumnStats {
	s := ColumnStats{Column: column, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	// Welford
	var mean, m2 float64
	for i, v := range values {
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)
	}
	s.Mean = mean
	if len(values) > 1 {
		s.Std = math.Sqrt(m2 / float64(len(values)-1))
	} else {
		s.Std = math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q75 = Quantile(sorted, 0.75)
	return s
}

// Quantile interpolates linearly between the closest ranks of an ascending slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
