package pipeline

// One analysis run: load -> clean -> summarize -> render -> report
// Stages run in order on one goroutine; a failed stage stops the run and the
// reporter prints its failure line. Chart views fail independently.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"sales-analysis/internal/config"
	"sales-analysis/internal/features/charts"
	"sales-analysis/internal/features/report"
	"sales-analysis/internal/features/summary"
	logging "sales-analysis/internal/infra/log"
	"sales-analysis/internal/sales"

	"go.uber.org/zap"
)

// Viewer shows rendered charts one at a time.
type Viewer interface {
	OpenAll(ctx context.Context, paths []string) error
}

// Publisher ships rendered charts somewhere else.
type Publisher interface {
	PublishAll(ctx context.Context, results []charts.ViewResult) []charts.ViewResult
}

type Options struct {
	Input string
	Load  sales.LoadOptions
	Clean sales.CleanOptions

	GroupBy string
	Metric  string
	Head    int

	Style     charts.Style
	OutputDir string
	Views     []charts.View // empty = all

	SkipSummary bool
	SkipCharts  bool

	Export    bool
	ExportDir string

	Viewer    Viewer    // nil = do not open charts
	Publisher Publisher // nil = do not publish
}

// DefaultOptions reproduces the plain run against sales_data.csv.
func DefaultOptions() Options {
	return Options{
		Input:     "sales_data.csv",
		Load:      sales.DefaultLoadOptions(),
		Clean:     sales.DefaultCleanOptions(),
		GroupBy:   sales.ColumnRegion,
		Metric:    sales.ColumnSales,
		Head:      5,
		Style:     charts.DefaultStyle(),
		OutputDir: "charts",
		ExportDir: "reports",
	}
}

// OptionsFromConfig maps the resolved config onto run options. Viewer and
// Publisher are left for the caller to attach.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	opts.Input = cfg.Input.Path
	opts.Load.Sheet = cfg.Input.Sheet
	if cfg.Input.DateColumn != "" {
		opts.Load.DateColumns = []string{cfg.Input.DateColumn}
	} else {
		opts.Load.DateColumns = nil
	}
	if d := []rune(cfg.Input.Delimiter); len(d) == 1 {
		opts.Load.Delimiter = d[0]
	}
	opts.Clean.TextFill = cfg.Cleaner.TextFill

	opts.GroupBy = cfg.Analysis.GroupBy
	opts.Metric = cfg.Analysis.Metric
	opts.Head = cfg.Analysis.Head

	opts.OutputDir = cfg.Charts.OutputDir
	opts.Style.HistogramBins = cfg.Charts.Bins
	if len(cfg.Charts.FontPaths) > 0 {
		opts.Style.FontPaths = cfg.Charts.FontPaths
	}
	for _, name := range cfg.Charts.Views {
		v, err := charts.ParseView(name)
		if err != nil {
			return Options{}, err
		}
		opts.Views = append(opts.Views, v)
	}

	opts.Export = cfg.Export.Enabled
	opts.ExportDir = cfg.Export.Dir
	return opts, nil
}

// Result holds what each stage produced. Fields of stages that did not run stay zero.
type Result struct {
	RunID       string
	Raw         *sales.Table
	Table       *sales.Table
	Cleaned     sales.CleanReport
	Description summary.Description
	Groups      summary.GroupMeans
	Charts      []charts.ViewResult
	Published   []charts.ViewResult
	Exported    []string
}

// Run executes one analysis and prints the report to out. The returned error
// carries the kind of the failure (sales.KindOf); the failure line has already been printed.
func Run(ctx context.Context, opts Options, out io.Writer) (*Result, error) {
	res := &Result{RunID: logging.GenerateRunID()}
	rep := report.NewReporter(out)
	start := time.Now()

	logging.LogInfo("Analysis started",
		zap.String("run_id", res.RunID),
		zap.String("input", opts.Input))

	err := run(ctx, opts, rep, res)
	if err != nil {
		rep.Failure(opts.Input, err)
		logging.LogError("Analysis failed",
			zap.String("run_id", res.RunID),
			zap.String("kind", sales.KindOf(err).Error()),
			zap.Error(err))
	} else {
		logging.LogSuccess("Analysis complete",
			zap.String("run_id", res.RunID),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	}

	if werr := rep.Err(); werr != nil && err == nil {
		err = sales.NewStageError(sales.StageReport, sales.ErrGeneric, fmt.Errorf("failed to write report: %w", werr))
	}
	return res, err
}

func run(ctx context.Context, opts Options, rep *report.Reporter, res *Result) error {
	rep.Banner()
	rep.Loading()

	err := stage(ctx, res.RunID, sales.StageLoad, func() error {
		raw, err := sales.Load(opts.Input, opts.Load)
		if err != nil {
			return err
		}
		res.Raw = raw
		return nil
	})
	if err != nil {
		return err
	}

	if !opts.SkipSummary {
		rep.Head(res.Raw, opts.Head)
		rep.Info(res.Raw)
		rep.Missing(sales.MissingCounts(res.Raw))
	}

	err = stage(ctx, res.RunID, sales.StageClean, func() error {
		res.Table, res.Cleaned = sales.Clean(res.Raw, opts.Clean)
		return nil
	})
	if err != nil {
		return err
	}

	if !opts.SkipSummary {
		err = stage(ctx, res.RunID, sales.StageSummarize, func() error {
			res.Description = summary.Describe(res.Table)
			groups, err := summary.GroupMeanBy(res.Table, opts.GroupBy, opts.Metric)
			if err != nil {
				return sales.NewStageError(sales.StageSummarize, sales.ErrGeneric, err)
			}
			res.Groups = groups
			return nil
		})
		if err != nil {
			return err
		}

		rep.Describe(res.Description)
		rep.GroupMeans(opts.GroupBy, opts.Metric, res.Groups)
		rep.Observation()
	}

	if !opts.SkipCharts {
		err = stage(ctx, res.RunID, sales.StageRender, func() error {
			renderer := charts.NewRenderer(opts.Style, opts.OutputDir)
			res.Charts = renderer.RenderAll(ctx, res.Table, opts.Views...)
			return firstChartError(res.Charts)
		})
		rep.Charts(res.Charts)

		// whatever rendered is still shown, exported and published
		extras(ctx, opts, res)
		if err != nil {
			return err
		}
	} else {
		extras(ctx, opts, res)
	}

	if err := ctx.Err(); err != nil {
		return sales.NewStageError(sales.StageReport, sales.ErrGeneric, err)
	}
	rep.Complete()
	return nil
}

// stage runs fn unless ctx is done, tags untagged errors with the stage and logs the timing.
func stage(ctx context.Context, runID, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return sales.NewStageError(name, sales.ErrGeneric, err)
	}
	start := time.Now()
	err := fn()
	if err != nil {
		err = sales.NewStageError(name, sales.KindOf(err), err)
	}
	logging.LogStage(runID, name, time.Since(start).Milliseconds(), err)
	return err
}

// extras runs the optional export, viewer and publisher steps. Their failures are logged only.
func extras(ctx context.Context, opts Options, res *Result) {
	if opts.Export && !opts.SkipSummary && res.Table != nil {
		s := report.NewSummary(opts.Input, res.Table.Len(), res.Cleaned.Filled, res.Description,
			opts.GroupBy, opts.Metric, res.Groups, res.Charts)
		for _, write := range []func(string, report.Summary) (string, error){report.WriteJSON, report.WriteXLSX} {
			path, err := write(opts.ExportDir, s)
			if err != nil {
				logging.LogError("Export failed", zap.String("run_id", res.RunID), zap.Error(err))
				continue
			}
			res.Exported = append(res.Exported, path)
		}
		if len(res.Exported) > 0 {
			logging.LogSuccess(fmt.Sprintf("Summary exported to %s", opts.ExportDir))
		}
	}

	paths := renderedPaths(res.Charts)
	if len(paths) == 0 {
		return
	}

	if opts.Publisher != nil {
		start := time.Now()
		res.Published = opts.Publisher.PublishAll(ctx, res.Charts)
		sent := 0
		var publishErr error
		for _, p := range res.Published {
			if p.Err == nil {
				sent++
			} else if publishErr == nil {
				publishErr = fmt.Errorf("%s chart: %w", p.View, p.Err)
			}
		}
		logging.LogStage(res.RunID, sales.StagePublish, time.Since(start).Milliseconds(), publishErr, zap.Int("sent", sent))
	}

	if opts.Viewer != nil {
		if err := opts.Viewer.OpenAll(ctx, paths); err != nil {
			logging.LogWarn("Could not display charts", zap.String("run_id", res.RunID), zap.Error(err))
		}
	}
}

func renderedPaths(results []charts.ViewResult) []string {
	var paths []string
	for _, r := range results {
		if r.Err == nil && r.Path != "" {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// firstChartError returns the first failed view's error, nil when all succeeded.
func firstChartError(results []charts.ViewResult) error {
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded) {
			return sales.NewStageError(sales.StageRender, sales.ErrGeneric, r.Err)
		}
		var se *sales.StageError
		if errors.As(r.Err, &se) {
			return r.Err
		}
		return sales.NewStageError(sales.StageRender, sales.ErrRender, fmt.Errorf("%s chart: %w", r.View, r.Err))
	}
	return nil
}
