package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sales-analysis/internal/config"
	"sales-analysis/internal/features/charts"
	"sales-analysis/internal/sales"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesData = `Date,Region,Sales,Profit
2024-01-01,East,100,20
2024-01-02,West,200,50
2024-01-03,East,,10
2024-01-04,West,240,
`

type fakeViewer struct{ opened []string }

func (v *fakeViewer) OpenAll(_ context.Context, paths []string) error {
	v.opened = append(v.opened, paths...)
	return nil
}

type fakePublisher struct{ got []charts.View }

func (p *fakePublisher) PublishAll(_ context.Context, results []charts.ViewResult) []charts.ViewResult {
	var out []charts.ViewResult
	for _, r := range results {
		if r.Err == nil {
			p.got = append(p.got, r.View)
			out = append(out, charts.ViewResult{View: r.View, Path: r.Path})
		}
	}
	return out
}

func testOptions(t *testing.T, data string) Options {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "sales_data.csv")
	require.NoError(t, os.WriteFile(input, []byte(data), 0644))

	opts := DefaultOptions()
	opts.Input = input
	opts.OutputDir = filepath.Join(dir, "charts")
	opts.ExportDir = filepath.Join(dir, "reports")
	opts.Style.FontPaths = nil
	return opts
}

func TestRun_EndToEnd(t *testing.T) {
	opts := testOptions(t, salesData)
	var out bytes.Buffer

	res, err := Run(context.Background(), opts, &out)
	require.NoError(t, err)

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "=== Sales Data Analysis Tool ===\n"))
	assert.Contains(t, text, "Average sales grouped by region:")
	assert.Contains(t, text, "Observation: The West region tends to have the highest average sales.")
	assert.True(t, strings.HasSuffix(text, "✅ Analysis complete! Visualizations displayed.\n"))

	// missing cells are zero after cleaning
	assert.Equal(t, 2, res.Cleaned.Total())
	for _, c := range res.Table.Schema().Names() {
		assert.Zero(t, sales.CountMissing(res.Table, c))
	}
	stats, ok := res.Description.Get("Sales")
	require.True(t, ok)
	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 135, stats.Mean, 1e-9)

	means := res.Groups.Map()
	assert.InDelta(t, 50, means["East"], 1e-9)
	assert.InDelta(t, 220, means["West"], 1e-9)

	require.Len(t, res.Charts, 4)
	for _, c := range res.Charts {
		require.NoError(t, c.Err)
		assert.FileExists(t, c.Path)
	}
	assert.Empty(t, res.Exported)
}

func TestRun_FileNotFound(t *testing.T) {
	opts := DefaultOptions()
	dir := t.TempDir()
	opts.Input = filepath.Join(dir, "sales_data.csv")
	opts.OutputDir = filepath.Join(dir, "charts")
	var out bytes.Buffer

	res, err := Run(context.Background(), opts, &out)

	require.Error(t, err)
	assert.True(t, errors.Is(err, sales.ErrFileNotFound))
	assert.Nil(t, res.Table)
	assert.Contains(t, out.String(), "✗ Error: "+opts.Input+" not found. Please make sure the file exists.")
	assert.NotContains(t, out.String(), "✅")
	assert.NoDirExists(t, opts.OutputDir)
}

func TestRun_ParseError(t *testing.T) {
	opts := testOptions(t, "Date,Region,Sales,Profit\n2024-01-01,East,100,20\nlast tuesday,West,200,50\n")
	var out bytes.Buffer

	_, err := Run(context.Background(), opts, &out)

	require.Error(t, err)
	assert.Equal(t, sales.ErrParse, sales.KindOf(err))
	var pe *sales.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Row)
	assert.Equal(t, "Date", pe.Column)
	assert.Contains(t, out.String(), "✗ An error occurred: ")
}

func TestRun_RenderFailureKeepsOtherCharts(t *testing.T) {
	opts := testOptions(t, "Date,Region,Sales\n2024-01-01,East,100\n2024-01-02,West,200\n")
	viewer := &fakeViewer{}
	opts.Viewer = viewer
	var out bytes.Buffer

	res, err := Run(context.Background(), opts, &out)

	require.Error(t, err)
	assert.Equal(t, sales.ErrRender, sales.KindOf(err))
	assert.FileExists(t, filepath.Join(opts.OutputDir, "line_chart.png"))
	assert.FileExists(t, filepath.Join(opts.OutputDir, "bar_chart.png"))
	assert.Len(t, viewer.opened, 2)
	assert.NotEmpty(t, res.Groups)

	text := out.String()
	assert.Contains(t, text, "✗ histogram chart failed")
	assert.Contains(t, text, "✗ An error occurred: ")
	assert.NotContains(t, text, "✅")
}

func TestRun_ExportShowAndPublish(t *testing.T) {
	opts := testOptions(t, salesData)
	opts.Export = true
	viewer := &fakeViewer{}
	publisher := &fakePublisher{}
	opts.Viewer = viewer
	opts.Publisher = publisher
	opts.Views = []charts.View{charts.ViewBar, charts.ViewScatter}

	res, err := Run(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)

	require.Len(t, res.Exported, 2)
	assert.FileExists(t, filepath.Join(opts.ExportDir, "summary.json"))
	assert.FileExists(t, filepath.Join(opts.ExportDir, "summary.xlsx"))

	assert.Equal(t, []string{
		filepath.Join(opts.OutputDir, "bar_chart.png"),
		filepath.Join(opts.OutputDir, "sales_vs_profit.png"),
	}, viewer.opened)
	assert.Equal(t, []charts.View{charts.ViewBar, charts.ViewScatter}, publisher.got)
	assert.Len(t, res.Published, 2)
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "line_chart.png"))
}

func TestRun_SummaryOnly(t *testing.T) {
	opts := testOptions(t, salesData)
	opts.SkipCharts = true
	var out bytes.Buffer

	res, err := Run(context.Background(), opts, &out)

	require.NoError(t, err)
	assert.Empty(t, res.Charts)
	assert.NoDirExists(t, opts.OutputDir)
	assert.Contains(t, out.String(), "Basic statistics of numerical columns:")
}

func TestRun_ChartsOnly(t *testing.T) {
	opts := testOptions(t, salesData)
	opts.SkipSummary = true
	var out bytes.Buffer

	res, err := Run(context.Background(), opts, &out)

	require.NoError(t, err)
	assert.Len(t, res.Charts, 4)
	assert.NotContains(t, out.String(), "Basic statistics")
}

func TestRun_UnknownGroupColumn(t *testing.T) {
	opts := testOptions(t, salesData)
	opts.GroupBy = "Category"
	var out bytes.Buffer

	_, err := Run(context.Background(), opts, &out)

	require.Error(t, err)
	assert.Equal(t, sales.ErrGeneric, sales.KindOf(err))
	assert.Contains(t, out.String(), "✗ An error occurred: ")
}

func TestRun_Cancelled(t *testing.T) {
	opts := testOptions(t, salesData)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, opts, &bytes.Buffer{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res.Raw)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Input:    config.InputConfig{Path: "data.tsv", DateColumn: "Day", Delimiter: ";"},
		Analysis: config.AnalysisConfig{GroupBy: "Store", Metric: "Profit", Head: 3},
		Charts:   config.ChartsConfig{OutputDir: "out", Bins: 7, Views: []string{"line", "scatter"}},
		Export:   config.ExportConfig{Enabled: true, Dir: "exp"},
		Cleaner:  config.CleanerConfig{TextFill: "Unknown"},
	}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "data.tsv", opts.Input)
	assert.Equal(t, []string{"Day"}, opts.Load.DateColumns)
	assert.Equal(t, ';', opts.Load.Delimiter)
	assert.Equal(t, "Unknown", opts.Clean.TextFill)
	assert.Equal(t, "Store", opts.GroupBy)
	assert.Equal(t, 3, opts.Head)
	assert.Equal(t, 7, opts.Style.HistogramBins)
	assert.Equal(t, []charts.View{charts.ViewLine, charts.ViewScatter}, opts.Views)
	assert.True(t, opts.Export)

	cfg.Charts.Views = []string{"pie"}
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
