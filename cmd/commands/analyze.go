package commands

// Commands that run the analysis pipeline
// analyze: statistics and charts, describe: statistics only, charts: charts only
// SIGINT/SIGTERM cancel the run between stages

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-analysis/internal/clients_api/telegram"
	"sales-analysis/internal/config"
	"sales-analysis/internal/infra/exec"
	"sales-analysis/internal/infra/log"
	"sales-analysis/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runMode int

const (
	modeFull runMode = iota
	modeDescribe
	modeCharts
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Load, summarize and chart the sales data (default)",
	Long: `Run the whole analysis: load the input file, fill missing values, print the statistics
and grouped averages, and render the four charts into the output directory.`,
	RunE: runAnalyze,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the statistics without rendering charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, modeDescribe)
	},
}

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Render the charts without printing the statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, modeCharts)
	},
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd, modeFull)
}

func runPipeline(cmd *cobra.Command, mode runMode) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := log.Setup(cfg.App.LogsDir, cfg.App.Debug); err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	switch mode {
	case modeDescribe:
		opts.SkipCharts = true
	case modeCharts:
		opts.SkipSummary = true
	}

	if cfg.Charts.Show && mode != modeDescribe {
		opts.Viewer = exec.DefaultViewer(time.Duration(cfg.Charts.ViewerTimeout) * time.Second)
	}

	if cfg.Telegram.Enabled() && mode != modeDescribe {
		publisher, err := telegram.NewFromConfig(cfg.Telegram)
		if err != nil {
			log.LogError("Telegram publisher disabled", zap.Error(err))
		} else {
			opts.Publisher = publisher
		}
	}

	_, err = pipeline.Run(ctx, opts, cmd.OutOrStdout())
	if err != nil && cfg.App.Strict {
		return err
	}
	return nil
}
