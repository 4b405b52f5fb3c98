package report

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"time"

	"sales-analysis/internal/features/charts"
	"sales-analysis/internal/features/summary"
	"sales-analysis/internal/infra/fs"
	"sales-analysis/internal/sales"

	"github.com/xuri/excelize/v2"
)

const (
	JSONFileName = "summary.json"
	XLSXFileName = "summary.xlsx"

	sheetDescribe  = "Describe"
	sheetGroupMean = "GroupMean"
)

// Summary is the exported result of one run. NaN statistics become null.
type Summary struct {
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
	Rows        int            `json:"rows"`
	Missing     []MissingCount `json:"missing"`
	Describe    []StatsRow     `json:"describe"`
	GroupBy     string         `json:"group_by"`
	Metric      string         `json:"metric"`
	Groups      []GroupRow     `json:"groups"`
	Charts      []ChartRow     `json:"charts,omitempty"`
}

type MissingCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

type StatsRow struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q25    *float64 `json:"q25"`
	Median *float64 `json:"q50"`
	Q75    *float64 `json:"q75"`
	Max    *float64 `json:"max"`
}

type GroupRow struct {
	Key   string   `json:"key"`
	Mean  *float64 `json:"mean"`
	Count int      `json:"count"`
}

type ChartRow struct {
	View  string `json:"view"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewSummary collects the pieces of a run into an exportable value.
func NewSummary(source string, rows int, missing []sales.ColumnCount, d summary.Description,
	groupBy, metric string, groups summary.GroupMeans, results []charts.ViewResult) Summary {

	s := Summary{
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Rows:        rows,
		GroupBy:     groupBy,
		Metric:      metric,
		Missing:     make([]MissingCount, 0, len(missing)),
		Describe:    make([]StatsRow, 0, len(d.Columns)),
		Groups:      make([]GroupRow, 0, len(groups)),
	}
	for _, m := range missing {
		s.Missing = append(s.Missing, MissingCount{Column: m.Column, Count: m.Count})
	}
	for _, c := range d.Columns {
		s.Describe = append(s.Describe, StatsRow{
			Column: c.Column,
			Count:  c.Count,
			Mean:   finite(c.Mean),
			Std:    finite(c.Std),
			Min:    finite(c.Min),
			Q25:    finite(c.Q25),
			Median: finite(c.Median),
			Q75:    finite(c.Q75),
			Max:    finite(c.Max),
		})
	}
	for _, g := range groups {
		s.Groups = append(s.Groups, GroupRow{Key: g.Key, Mean: finite(g.Mean), Count: g.Count})
	}
	for _, res := range results {
		row := ChartRow{View: string(res.View), Path: res.Path}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		s.Charts = append(s.Charts, row)
	}
	return s
}

// finite maps NaN and Inf to nil so encoding/json can write the value.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteJSON writes dir/summary.json and returns its path.
func WriteJSON(dir string, s Summary) (string, error) {
	path := filepath.Join(dir, JSONFileName)
	if err := fs.SaveJSON(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// WriteXLSX writes dir/summary.xlsx with a Describe and a GroupMean sheet.
func WriteXLSX(dir string, s Summary) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetDescribe); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}
	header := []interface{}{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	if err := f.SetSheetRow(sheetDescribe, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write describe header: %w", err)
	}
	for i, row := range s.Describe {
		values := []interface{}{row.Column, row.Count, cell(row.Mean), cell(row.Std), cell(row.Min),
			cell(row.Q25), cell(row.Median), cell(row.Q75), cell(row.Max)}
		if err := f.SetSheetRow(sheetDescribe, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return "", fmt.Errorf("failed to write describe row: %w", err)
		}
	}

	if _, err := f.NewSheet(sheetGroupMean); err != nil {
		return "", fmt.Errorf("failed to add sheet: %w", err)
	}
	header = []interface{}{s.GroupBy, "mean " + s.Metric, "count"}
	if err := f.SetSheetRow(sheetGroupMean, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write group header: %w", err)
	}
	for i, g := range s.Groups {
		values := []interface{}{g.Key, cell(g.Mean), g.Count}
		if err := f.SetSheetRow(sheetGroupMean, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return "", fmt.Errorf("failed to write group row: %w", err)
		}
	}

	path := filepath.Join(dir, XLSXFileName)
	err := fs.WriteAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", XLSXFileName, err)
	}
	return path, nil
}

// cell leaves missing statistics as empty cells.
func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
