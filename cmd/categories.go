package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/marginfc/internal/cli"
	"github.com/theirongolddev/marginfc/internal/model"
	"github.com/theirongolddev/marginfc/internal/pipeline"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with their monthly history",
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	in := s.runner.Input()
	excluded := s.cfg.Pipeline.ExcludedYears

	fmt.Println()
	fmt.Println(cli.RenderTitle("CATEGORIES"))
	fmt.Println()

	cats := s.runner.Categories()
	if len(cats) == 1 {
		fmt.Println("  No records remain after excluding", excluded)
		return nil
	}

	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		series, err := pipeline.Aggregate(in.Records, c, excluded)
		if err != nil {
			return err
		}
		mode := model.ModeTrendOnly
		if series.Len() >= s.cfg.Pipeline.SeasonalMinPoints {
			mode = model.ModeSeasonal
		}
		if series.Len() < s.cfg.Pipeline.MinPoints {
			mode = "too short"
		}
		rows = append(rows, []string{
			c,
			strconv.Itoa(series.Len()),
			cli.FormatMonth(series.Points[0].Period) + " .. " + cli.FormatMonth(series.Points[series.Len()-1].Period),
			cli.FormatDecimal(series.Total()),
			mode,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Months", "Range", "Total Margin", "Model"},
		Rows:    rows,
	}))
	fmt.Printf("\n  Excluded years: %v\n\n", excluded)
	return nil
}
