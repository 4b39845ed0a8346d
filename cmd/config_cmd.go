// Package cmd implements the marginfc CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/marginfc/internal/config"
	"github.com/theirongolddev/marginfc/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", flagConfig)
	if config.Exists(flagConfig) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Inputs]")
	fmt.Printf("    History:     %s\n", orUnset(cfg.Inputs.HistoryPath))
	fmt.Printf("    Growth:      %s\n", orUnset(cfg.Inputs.GrowthPath))
	fmt.Printf("    Future:      %s\n", orUnset(cfg.Inputs.FuturePath))
	for _, s := range []struct{ name, sheet string }{
		{"History", cfg.Inputs.HistorySheet},
		{"Growth", cfg.Inputs.GrowthSheet},
		{"Future", cfg.Inputs.FutureSheet},
	} {
		if s.sheet != "" {
			fmt.Printf("    %s sheet: %s\n", s.name, s.sheet)
		}
	}
	fmt.Printf("    Rates as fraction: %v\n", cfg.Inputs.GrowthRatesAsFraction)
	fmt.Println()

	fmt.Println("  [Columns]")
	c := cfg.Columns
	fmt.Printf("    History: %q, %q, %q\n", c.Date, c.Category, c.Margin)
	fmt.Printf("    Growth:  %q, %q, %q\n", c.Category, c.GrowthRate, c.MostLikelyRate)
	fmt.Printf("    Future:  %q, %q, %q\n", c.FutureDate, c.Category, c.FutureValue)
	fmt.Println()

	p := cfg.Pipeline
	fmt.Println("  [Pipeline]")
	fmt.Printf("    Excluded years:   %v\n", p.ExcludedYears)
	fmt.Printf("    Horizon:          %d months\n", p.Horizon)
	fmt.Printf("    Uplift:           x%.2f\n", p.Uplift)
	fmt.Printf("    Min points:       %d (seasonal from %d)\n", p.MinPoints, p.SeasonalMinPoints)
	fmt.Printf("    Changepoints:     %d over first %.0f%%, penalty %g\n", p.Changepoints, p.ChangepointRange*100, p.ChangepointPenalty)
	fmt.Printf("    Fourier order:    %d\n", p.FourierOrder)
	fmt.Printf("    Interval width:   %.0f%%\n", p.IntervalWidth*100)
	if p.TargetYear == 0 {
		fmt.Println("    Target year:      earliest in future table")
	} else {
		fmt.Printf("    Target year:      %d\n", p.TargetYear)
	}
	fmt.Printf("    Fallback to All:  %v\n", p.FallbackToAll)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Enabled: %v\n", cfg.Cache.Enabled)
	fmt.Printf("    Path:    %s\n", cfg.CachePath())
	if cfg.Cache.Enabled && config.Exists(cfg.CachePath()) {
		if cache, err := store.Open(cfg.CachePath()); err == nil {
			if st, err := cache.Stats(); err == nil {
				fmt.Printf("    Entries: %d across %d data versions\n", st.Entries, st.Versions)
			}
			_ = cache.Close()
		}
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  Run `marginfc setup` to reconfigure.")
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
