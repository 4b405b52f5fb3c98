package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"sales-analysis/internal/features/charts"
	"sales-analysis/internal/features/summary"
	"sales-analysis/internal/infra/fs"
	"sales-analysis/internal/sales"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const fixture = `Date,Region,Sales,Profit
2024-01-01,East,100,20
2024-01-02,West,200,
`

func load(t *testing.T) (*sales.Table, *sales.Table) {
	t.Helper()
	raw, err := sales.LoadReader(strings.NewReader(fixture), sales.DefaultLoadOptions())
	require.NoError(t, err)
	cleaned, _ := sales.Clean(raw, sales.DefaultCleanOptions())
	return raw, cleaned
}

func TestReporter_Sections(t *testing.T) {
	raw, cleaned := load(t)
	groups, err := summary.GroupMeanBy(cleaned, "Region", "Sales")
	require.NoError(t, err)

	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Banner()
	r.Loading()
	r.Head(raw, 5)
	r.Info(raw)
	r.Missing(sales.MissingCounts(raw))
	r.Describe(summary.Describe(cleaned))
	r.GroupMeans("Region", "Sales", groups)
	r.Observation()
	r.Charts([]charts.ViewResult{
		{View: charts.ViewLine, Path: "charts/line_chart.png"},
		{View: charts.ViewScatter, Err: errors.New("no points")},
	})
	r.Complete()
	require.NoError(t, r.Err())

	out := buf.String()
	ordered := []string{
		"=== Sales Data Analysis Tool ===",
		"Loading dataset...",
		"First 2 rows of the dataset:",
		"Data types and non-null counts:",
		"RangeIndex: 2 entries, 0 to 1",
		"Checking for missing values:",
		"Basic statistics of numerical columns:",
		"Average sales grouped by region:",
		"Name: Sales, dtype: float64",
		"Observation: The West region tends to have the highest average sales.",
		"✓ line chart saved to charts/line_chart.png",
		"✗ scatter chart failed: no points",
		"✅ Analysis complete! Visualizations displayed.",
	}
	last := -1
	for _, s := range ordered {
		idx := strings.Index(out, s)
		require.GreaterOrEqual(t, idx, 0, "missing %q", s)
		assert.Greater(t, idx, last, "%q out of order", s)
		last = idx
	}

	assert.Contains(t, out, "150.000000")  // mean Sales
	assert.Contains(t, out, "70.710678")   // std Sales
	assert.Contains(t, out, "1 non-null")  // raw Profit
	assert.Contains(t, out, "NaN")         // raw Profit in the preview
	assert.Regexp(t, `East\s+100\.0`, out) // group mean
	assert.Regexp(t, `West\s+200\.0`, out)
	assert.True(t, strings.HasSuffix(out, "✅ Analysis complete! Visualizations displayed.\n"))
}

func TestFailureMessage(t *testing.T) {
	notFound := sales.NewStageError(sales.StageLoad, sales.ErrFileNotFound, errors.New("open sales_data.csv"))
	assert.Equal(t, "✗ Error: sales_data.csv not found. Please make sure the file exists.",
		FailureMessage("sales_data.csv", notFound))

	parse := &sales.ParseError{Row: 3, Column: "Date", Value: "yesterday", Reason: "not a date"}
	assert.Equal(t, fmt.Sprintf("✗ An error occurred: %v", parse), FailureMessage("sales_data.csv", parse))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestReporter_KeepsFirstWriteError(t *testing.T) {
	r := NewReporter(failingWriter{})
	r.Banner()
	r.Observation()
	assert.EqualError(t, r.Err(), "closed")
}

func testSummary(t *testing.T) Summary {
	t.Helper()
	raw, cleaned := load(t)
	groups, err := summary.GroupMeanBy(cleaned, "Region", "Sales")
	require.NoError(t, err)
	single, err := sales.LoadReader(strings.NewReader("Date,Region,Sales\n2024-01-01,East,1\n"), sales.DefaultLoadOptions())
	require.NoError(t, err)

	d := summary.Describe(cleaned)
	d.Columns = append(d.Columns, summary.Describe(single).Columns...) // std NaN for n=1
	return NewSummary("sales_data.csv", cleaned.Len(), sales.MissingCounts(raw), d, "Region", "Sales", groups,
		[]charts.ViewResult{{View: charts.ViewBar, Path: "charts/bar_chart.png"}})
}

func TestWriteJSON_NaNBecomesNull(t *testing.T) {
	dir := t.TempDir()
	s := testSummary(t)

	path, err := WriteJSON(dir, s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, JSONFileName), path)

	var back Summary
	require.NoError(t, fs.LoadJSON(path, &back))
	assert.Equal(t, 2, back.Rows)
	require.Len(t, back.Groups, 2)
	assert.Equal(t, "West", back.Groups[1].Key)
	assert.InDelta(t, 200, *back.Groups[1].Mean, 1e-9)

	last := back.Describe[len(back.Describe)-1]
	assert.Equal(t, 1, last.Count)
	assert.Nil(t, last.Std)
	require.NotNil(t, last.Mean)
	assert.Equal(t, 1.0, *last.Mean)
}

func TestWriteXLSX_Sheets(t *testing.T) {
	dir := t.TempDir()
	s := testSummary(t)

	path, err := WriteXLSX(dir, s)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Describe", "GroupMean"}, f.GetSheetList())

	rows, err := f.GetRows("Describe")
	require.NoError(t, err)
	assert.Equal(t, "column", rows[0][0])
	assert.Equal(t, "Sales", rows[1][0])
	assert.Equal(t, "150", rows[1][2])

	rows, err = f.GetRows("GroupMean")
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "mean Sales", "count"}, rows[0])
	assert.Equal(t, []string{"East", "100", "1"}, rows[1])
}

func TestFinite(t *testing.T) {
	assert.Nil(t, finite(math.NaN()))
	assert.Nil(t, finite(math.Inf(1)))
	assert.Equal(t, 2.5, *finite(2.5))
}
