package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/marginfc/internal/config"
	"github.com/theirongolddev/marginfc/internal/source"
	"github.com/theirongolddev/marginfc/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.LoadFrom(flagConfig)

	history := cfg.Inputs.HistoryPath
	growth := cfg.Inputs.GrowthPath
	future := cfg.Inputs.FuturePath
	asFraction := cfg.Inputs.GrowthRatesAsFraction
	excluded := joinYears(cfg.Pipeline.ExcludedYears)
	uplift := strconv.FormatFloat(cfg.Pipeline.Uplift, 'f', -1, 64)
	themeName := cfg.Appearance.Theme

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Historical margin table").
				Description("CSV or XLSX with date, category, and margin columns.").
				Value(&history).
				Validate(validateTablePath(true)),
			huh.NewInput().
				Title("Growth-rate table").
				Description("Optional. Declared and most-likely rate per category.").
				Value(&growth).
				Validate(validateTablePath(false)),
			huh.NewConfirm().
				Title("Are growth rates stored as fractions (0.049 for 4.9%)?").
				Value(&asFraction),
			huh.NewInput().
				Title("Category future-forecast table").
				Description("Optional. Rows of date, category, forecast value.").
				Value(&future).
				Validate(validateTablePath(false)),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Excluded years").
				Description("Comma-separated incomplete years left out of the history.").
				Value(&excluded).
				Validate(func(s string) error {
					_, err := parseYears(s)
					return err
				}),
			huh.NewInput().
				Title("Forecast uplift").
				Description("Multiplier applied to projected means.").
				Value(&uplift).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || v <= 0 {
						return errors.New("enter a positive number")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.Inputs.HistoryPath = strings.TrimSpace(history)
	cfg.Inputs.GrowthPath = strings.TrimSpace(growth)
	cfg.Inputs.FuturePath = strings.TrimSpace(future)
	cfg.Inputs.GrowthRatesAsFraction = asFraction
	cfg.Pipeline.ExcludedYears, _ = parseYears(excluded)
	cfg.Pipeline.Uplift, _ = strconv.ParseFloat(strings.TrimSpace(uplift), 64)
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg, flagConfig); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", flagConfig)
	fmt.Println("  Run `marginfc setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateTablePath(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return errors.New("a historical table is required")
			}
			return nil
		}
		if _, err := os.Stat(s); err != nil {
			return fmt.Errorf("cannot read %s", s)
		}
		if !source.Supported(s) {
			return errors.New("use a .csv or .xlsx file")
		}
		return nil
	}
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil || y < 1900 || y > 9999 {
			return nil, fmt.Errorf("%q is not a year", part)
		}
		years = append(years, y)
	}
	return years, nil
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ", ")
}
