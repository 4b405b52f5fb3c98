package summary

import (
	"errors"
	"fmt"
	"sort"

	"sales-analysis/internal/sales"
)

var ErrUnknownColumn = errors.New("unknown column")

// GroupMean is the mean of a metric within one group.
type GroupMean struct {
	Key   string  `json:"key"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// GroupMeans is ordered by group value ascending: numerically for number
// columns, chronologically for dates, byte order for text.
type GroupMeans []GroupMean

func (g GroupMeans) Map() map[string]float64 {
	out := make(map[string]float64, len(g))
	for _, m := range g {
		out[m.Key] = m.Mean
	}
	return out
}

func (g GroupMeans) Keys() []string {
	keys := make([]string, len(g))
	for i, m := range g {
		keys[i] = m.Key
	}
	return keys
}

// GroupMeanBy groups rows by the distinct values of column and averages metric
// within each group. Rows with a missing metric are left out of their group's mean;
// a group whose metric is missing everywhere reports NaN.
func GroupMeanBy(t *sales.Table, column, metric string) (GroupMeans, error) {
	groupKind, ok := t.ColumnKind(column)
	if !ok {
		return nil, fmt.Errorf("group column %q: %w", column, ErrUnknownColumn)
	}
	kind, ok := t.ColumnKind(metric)
	if !ok {
		return nil, fmt.Errorf("metric %q: %w", metric, ErrUnknownColumn)
	}
	if kind != sales.KindNumber {
		return nil, fmt.Errorf("metric %q is %s, not numeric", metric, kind)
	}

	type acc struct {
		cell  sales.Cell
		sum   float64
		count int
	}
	grouped := make(map[string]*acc)

	for _, rec := range t.Records() {
		key := rec.Text(column)
		a, exists := grouped[key]
		if !exists {
			cell, _ := rec.Cell(column)
			a = &acc{cell: cell}
			grouped[key] = a
		}
		if v, ok := rec.Number(metric); ok {
			a.sum += v
			a.count++
		}
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keyLess(groupKind, grouped[keys[i]].cell, grouped[keys[j]].cell)
	})

	result := make(GroupMeans, 0, len(keys))
	for _, key := range keys {
		a := grouped[key]
		mean := nan()
		if a.count > 0 {
			mean = a.sum / float64(a.count)
		}
		result = append(result, GroupMean{Key: key, Mean: mean, Count: a.count})
	}
	return result, nil
}

// keyLess orders group cells by their typed value. Missing keys sort last.
func keyLess(kind sales.Kind, a, b sales.Cell) bool {
	if a.Missing || b.Missing {
		return !a.Missing && b.Missing
	}
	switch kind {
	case sales.KindNumber:
		return a.Num < b.Num
	case sales.KindDate:
		return a.Time.Before(b.Time)
	default:
		return a.Text < b.Text
	}
}
