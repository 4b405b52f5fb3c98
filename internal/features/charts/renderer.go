package charts

// Chart rendering for the sales dataset
// Four independent PNG views: line, bar, histogram, scatter
// A failing view never stops the others, each result carries its own error

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logging "sales-analysis/internal/infra/log"
	"sales-analysis/internal/sales"

	"go.uber.org/zap"
)

// View identifies one chart.
type View string

const (
	ViewLine      View = "line"
	ViewBar       View = "bar"
	ViewHistogram View = "histogram"
	ViewScatter   View = "scatter"
)

// AllViews is the rendering order.
var AllViews = []View{ViewLine, ViewBar, ViewHistogram, ViewScatter}

var fileNames = map[View]string{
	ViewLine:      "line_chart.png",
	ViewBar:       "bar_chart.png",
	ViewHistogram: "profit_histogram.png",
	ViewScatter:   "sales_vs_profit.png",
}

var titles = map[View]string{
	ViewLine:      "Line Chart: Sales Trend Over Time",
	ViewBar:       "Bar Chart: Average Sales by Region",
	ViewHistogram: "Histogram: Profit Distribution",
	ViewScatter:   "Scatter Plot: Sales vs Profit by Region",
}

// Title is the heading drawn on the chart.
func (v View) Title() string { return titles[v] }

// FileName is the PNG name the view is saved under.
func (v View) FileName() string { return fileNames[v] }

// ParseView accepts the names used on the command line.
func ParseView(name string) (View, error) {
	for _, v := range AllViews {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown chart %q (want line, bar, histogram or scatter)", name)
}

// ViewResult is the outcome of one view.
type ViewResult struct {
	View     View
	Path     string
	Err      error
	Duration time.Duration
}

// Renderer draws charts into OutputDir using Style.
type Renderer struct {
	Style     Style
	OutputDir string

	fonts *fonts
}

func NewRenderer(style Style, outputDir string) *Renderer {
	if style.HistogramBins < 1 {
		style.HistogramBins = DefaultStyle().HistogramBins
	}
	return &Renderer{Style: style, OutputDir: outputDir, fonts: newFonts(style.FontPaths)}
}

// Render draws a single view and returns the written file path.
// Every failure, panics included, is returned as a render error.
func (r *Renderer) Render(v View, t *sales.Table) (path string, err error) {
	name, ok := fileNames[v]
	if !ok {
		return "", sales.NewStageError(sales.StageRender, sales.ErrRender, fmt.Errorf("unknown view %q", v))
	}

	defer func() {
		if rec := recover(); rec != nil {
			path = ""
			err = sales.NewStageError(sales.StageRender, sales.ErrRender, fmt.Errorf("%s chart: panic: %v", v, rec))
		}
	}()

	if r.fonts == nil {
		r.fonts = newFonts(r.Style.FontPaths)
	}
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return "", sales.NewStageError(sales.StageRender, sales.ErrRender, fmt.Errorf("failed to create charts directory: %w", err))
	}

	path = filepath.Join(r.OutputDir, name)
	switch v {
	case ViewLine:
		err = r.line(t, path)
	case ViewBar:
		err = r.bar(t, path)
	case ViewHistogram:
		err = r.histogram(t, path)
	case ViewScatter:
		err = r.scatter(t, path)
	}
	if err != nil {
		return "", sales.NewStageError(sales.StageRender, sales.ErrRender, fmt.Errorf("%s chart: %w", v, err))
	}
	return path, nil
}

// RenderAll renders views (all four when none are given) one after another.
// Cancellation stops before the next view; the remaining views report ctx.Err().
func (r *Renderer) RenderAll(ctx context.Context, t *sales.Table, views ...View) []ViewResult {
	if len(views) == 0 {
		views = AllViews
	}

	results := make([]ViewResult, 0, len(views))
	for _, v := range views {
		if err := ctx.Err(); err != nil {
			results = append(results, ViewResult{View: v, Err: err})
			continue
		}

		start := time.Now()
		path, err := r.Render(v, t)
		res := ViewResult{View: v, Path: path, Err: err, Duration: time.Since(start)}
		results = append(results, res)

		if err != nil {
			logging.LogError("Chart rendering failed", zap.String("view", string(v)), zap.Error(err))
			continue
		}
		logging.LogInfo("Chart generated successfully",
			zap.String("view", string(v)),
			zap.String("filename", path),
			zap.Int64("duration_ms", res.Duration.Milliseconds()))
	}
	return results
}
