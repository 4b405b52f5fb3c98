package commands

// Root command for Cobra CLI
// Running the binary without a subcommand performs the full analysis
// Registers the analyze, describe and charts subcommands

import (
	"sales-analysis/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sales-analysis",
	Short: "Sales Data Analysis Tool - statistics and charts for a sales table",
	Long: `Sales Data Analysis Tool loads a table of sales records (CSV or XLSX), prints summary
statistics and per-region averages, and renders line, bar, histogram and scatter charts.`,
	Version:       "1.0.0",
	RunE:          runAnalyze,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(chartsCmd)
}
