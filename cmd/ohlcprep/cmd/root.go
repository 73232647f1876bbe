package cmd

import (
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ohlcprep",
	Short: "Prepare per-trading-day OHLC datasets for the charting SPA",
	Long: `ohlcprep turns raw intraday minute bars from multiple market-data
sources into a single compact JSON dataset of aligned 5-minute bars,
grouped by local trading day and annotated with cross-day gap
statistics.

Sources:
  - DAX futures contract CSV exports (Date,Time,Open,High,Low,Close)
  - Index CFDs fetched from the Dukascopy datafeed

Example:
  ohlcprep prepare --out data/ohlc_data.json
  ohlcprep prepare --csv-only`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		log.DefaultLogger = log.Logger{
			Level:      level,
			TimeFormat: "15:04:05",
			Writer:     &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
