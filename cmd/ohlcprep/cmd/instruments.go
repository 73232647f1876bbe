package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the configured instruments and their session windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("%-12s %-16s %-20s %s\n", "NAME", "CODE", "TIMEZONE", "SESSION")
		if cfg.CSV != nil {
			spec := cfg.CSV.Spec(cfg.CSV.Name, "(csv)")
			fmt.Printf("%-12s %-16s %-20s %s\n", spec.Name, spec.Code, spec.Timezone, spec.TradingHours())
		}
		for _, fc := range cfg.Fetched {
			spec := fc.Spec(fc.Name, fc.Code)
			fmt.Printf("%-12s %-16s %-20s %s\n", spec.Name, spec.Code, spec.Timezone, spec.TradingHours())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(instrumentsCmd)
}
