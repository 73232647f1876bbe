package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/ohlcprep/config"
	"github.com/rustyeddy/ohlcprep/dukas"
	"github.com/rustyeddy/ohlcprep/prep"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Run the full pipeline and write the JSON dataset",
	Long: `Prepare processes every configured source: the DAX futures CSV files
and the Dukascopy-fetched index CFDs. Fetched sources are pulled one
calendar year at a time; a failed year is skipped without aborting the
run.

With --csv-only the fetched sources are skipped entirely (quick mode),
producing the same document shape with one source.`,
	RunE: runPrepare,
}

var (
	prepConfigPath string
	prepOutPath    string
	prepDataDir    string
	prepStart      string
	prepEnd        string
	prepCSVOnly    bool
)

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringVarP(&prepConfigPath, "config", "c", "", "path to YAML config (default: built-in instrument table)")
	prepareCmd.Flags().StringVarP(&prepOutPath, "out", "o", "", "output JSON path (overrides config)")
	prepareCmd.Flags().StringVarP(&prepDataDir, "data-dir", "d", "", "directory with futures CSV files (overrides config)")
	prepareCmd.Flags().StringVar(&prepStart, "start", "", "start date YYYY-MM-DD (overrides config)")
	prepareCmd.Flags().StringVar(&prepEnd, "end", "", "end date YYYY-MM-DD (overrides config)")
	prepareCmd.Flags().BoolVar(&prepCSVOnly, "csv-only", false, "process only the CSV source, skip fetched instruments")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if prepOutPath != "" {
		cfg.OutputFile = prepOutPath
	}
	if prepDataDir != "" && cfg.CSV != nil {
		cfg.CSV.Dir = prepDataDir
	}
	if prepStart != "" {
		cfg.StartDate = prepStart
	}
	if prepEnd != "" {
		cfg.EndDate = prepEnd
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	orch := prep.NewOrchestrator(cfg, dukas.NewClient())
	doc, err := orch.Run(context.Background(), prepCSVOnly)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if err := prep.WriteFile(doc, cfg.OutputFile); err != nil {
		return err
	}

	st, err := os.Stat(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	log.Info().
		Str("file", cfg.OutputFile).
		Int64("bytes", st.Size()).
		Int("sources", doc.Metadata.TotalSources).
		Int("tradingDays", doc.Metadata.TotalTradingDays).
		Msg("dataset written")

	return nil
}

func loadConfig() (*config.Config, error) {
	if prepConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(prepConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
