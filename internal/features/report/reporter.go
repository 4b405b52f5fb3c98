package report

// Console report of one analysis run
// Section order: banner, preview, info, missing values, statistics, group means,
// observation, charts, completion line

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"sales-analysis/internal/features/charts"
	"sales-analysis/internal/features/summary"
	"sales-analysis/internal/sales"
)

const (
	Banner      = "=== Sales Data Analysis Tool ==="
	Loading     = "Loading dataset..."
	Observation = "Observation: The West region tends to have the highest average sales."
	Complete    = "✅ Analysis complete! Visualizations displayed."
)

// Reporter writes the human-readable report. Write errors are kept and
// returned by Err so callers check once at the end.
type Reporter struct {
	Out io.Writer
	err error
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{Out: out}
}

// Err returns the first write error.
func (r *Reporter) Err() error {
	return r.err
}

func (r *Reporter) printf(format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.Out, format, args...)
}

func (r *Reporter) Banner() {
	r.printf("%s\n\n", Banner)
}

func (r *Reporter) Loading() {
	r.printf("%s\n\n", Loading)
}

// Head prints the first n rows with a positional index.
func (r *Reporter) Head(t *sales.Table, n int) {
	rows := summary.Head(t, n)
	r.printf("First %d rows of the dataset:\n", len(rows))

	r.table(func(w io.Writer) {
		fmt.Fprintf(w, "\t%s\t\n", strings.Join(t.Schema().Names(), "\t"))
		for i, rec := range rows {
			cells := rec.Cells()
			values := make([]string, len(cells))
			for j, c := range cells {
				values[j] = c.String()
			}
			fmt.Fprintf(w, "%d\t%s\t\n", i, strings.Join(values, "\t"))
		}
	})
	r.printf("\n")
}

// Info prints every column with its non-null count and type.
func (r *Reporter) Info(t *sales.Table) {
	infos := summary.Info(t)
	r.printf("Data types and non-null counts:\n")
	if t.Len() == 0 {
		r.printf("Index: 0 entries\n")
	} else {
		r.printf("RangeIndex: %d entries, 0 to %d\n", t.Len(), t.Len()-1)
	}
	r.printf("Data columns (total %d columns):\n", len(infos))

	r.table(func(w io.Writer) {
		fmt.Fprintf(w, " #\tColumn\tNon-Null Count\tDtype\t\n")
		fmt.Fprintf(w, "---\t------\t--------------\t-----\t\n")
		for i, info := range infos {
			fmt.Fprintf(w, " %d\t%s\t%d non-null\t%s\t\n", i, info.Column, info.NonNull, info.Kind)
		}
	})
	r.printf("\n")
}

// Missing prints the per-column count of missing cells.
func (r *Reporter) Missing(counts []sales.ColumnCount) {
	r.printf("Checking for missing values:\n")
	r.table(func(w io.Writer) {
		for _, c := range counts {
			fmt.Fprintf(w, "%s\t%d\t\n", c.Column, c.Count)
		}
	})
	r.printf("\n")
}

// Describe prints the statistics with one column per numeric field.
func (r *Reporter) Describe(d summary.Description) {
	r.printf("Basic statistics of numerical columns:\n")

	rows := []struct {
		label string
		value func(summary.ColumnStats) float64
	}{
		{"count", func(s summary.ColumnStats) float64 { return float64(s.Count) }},
		{"mean", func(s summary.ColumnStats) float64 { return s.Mean }},
		{"std", func(s summary.ColumnStats) float64 { return s.Std }},
		{"min", func(s summary.ColumnStats) float64 { return s.Min }},
		{"25%", func(s summary.ColumnStats) float64 { return s.Q25 }},
		{"50%", func(s summary.ColumnStats) float64 { return s.Median }},
		{"75%", func(s summary.ColumnStats) float64 { return s.Q75 }},
		{"max", func(s summary.ColumnStats) float64 { return s.Max }},
	}

	r.table(func(w io.Writer) {
		names := make([]string, len(d.Columns))
		for i, c := range d.Columns {
			names[i] = c.Column
		}
		fmt.Fprintf(w, "\t%s\t\n", strings.Join(names, "\t"))
		for _, row := range rows {
			values := make([]string, len(d.Columns))
			for i, c := range d.Columns {
				values[i] = formatStat(row.value(c))
			}
			fmt.Fprintf(w, "%s\t%s\t\n", row.label, strings.Join(values, "\t"))
		}
	})
	r.printf("\n")
}

// GroupMeans prints the per-group averages as a named series.
func (r *Reporter) GroupMeans(column, metric string, groups summary.GroupMeans) {
	r.printf("Average %s grouped by %s:\n", strings.ToLower(metric), strings.ToLower(column))
	r.printf("%s\n", column)
	r.table(func(w io.Writer) {
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%s\t\n", g.Key, formatMean(g.Mean))
		}
	})
	r.printf("Name: %s, dtype: float64\n\n", metric)
}

func (r *Reporter) Observation() {
	r.printf("%s\n\n", Observation)
}

// Charts prints one line per rendered view.
func (r *Reporter) Charts(results []charts.ViewResult) {
	for _, res := range results {
		if res.Err != nil {
			r.printf("✗ %s chart failed: %v\n", res.View, res.Err)
			continue
		}
		r.printf("✓ %s chart saved to %s\n", res.View, res.Path)
	}
	if len(results) > 0 {
		r.printf("\n")
	}
}

func (r *Reporter) Complete() {
	r.printf("%s\n", Complete)
}

// Failure prints the line for a run that stopped with err.
func (r *Reporter) Failure(input string, err error) {
	r.printf("%s\n", FailureMessage(input, err))
}

// FailureMessage is the single line printed when a run stops.
func FailureMessage(input string, err error) string {
	if errors.Is(err, sales.ErrFileNotFound) {
		return fmt.Sprintf("✗ Error: %s not found. Please make sure the file exists.", input)
	}
	return fmt.Sprintf("✗ An error occurred: %v", err)
}

func (r *Reporter) table(fill func(w io.Writer)) {
	if r.err != nil {
		return
	}
	tw := tabwriter.NewWriter(r.Out, 0, 0, 4, ' ', tabwriter.AlignRight)
	fill(tw)
	r.err = tw.Flush()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatMean(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
