package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/marginfc/internal/cli"
)

var flagNoBars bool

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Category forecasts under declared and most-likely growth rates",
	RunE:  runScenarios,
}

func init() {
	scenariosCmd.Flags().BoolVar(&flagNoBars, "no-bars", false, "Omit the grouped bar chart")
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.query()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("GROWTH SCENARIOS  %d", res.TargetYear)))
	fmt.Println()

	rates := s.loaded.Input.GrowthRates
	if len(rates) > 0 {
		rows := make([][]string, 0, len(rates))
		for _, g := range rates {
			rows = append(rows, []string{g.Category, cli.FormatRate(g.DeclaredRatePercent), cli.FormatRate(g.MostLikelyRatePercent)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Growth Rates",
			Headers: []string{"Category", "Declared", "Most Likely"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	if len(res.Adjusted) == 0 {
		fmt.Println("  No category has both a forecast and a growth rate.")
	} else {
		var sumOrig, sumDecl, sumLikely float64
		rows := make([][]string, 0, len(res.Adjusted)+2)
		for _, a := range res.Adjusted {
			sumOrig += a.Original
			sumDecl += a.AdjustedByDeclaredRate
			sumLikely += a.AdjustedByMostLikelyRate
			rows = append(rows, []string{
				a.Category,
				cli.FormatAmount(a.Original),
				cli.FormatAmount(a.AdjustedByDeclaredRate),
				cli.FormatAmount(a.AdjustedByMostLikelyRate),
			})
		}
		rows = append(rows, []string{"---"}, []string{
			"Total",
			cli.FormatAmount(sumOrig),
			cli.FormatAmount(sumDecl) + " (" + cli.FormatDelta(sumDecl, sumOrig) + ")",
			cli.FormatAmount(sumLikely) + " (" + cli.FormatDelta(sumLikely, sumOrig) + ")",
		})
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Adjusted Projections",
			Headers: []string{"Category", "Original", "Declared Rate", "Most Likely"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	if !flagNoBars && len(res.Comparison) > 0 {
		colors := []lipgloss.Color{cli.ColorBlue, cli.ColorGreen, cli.ColorPurple}
		fmt.Print(cli.RenderLegend([]string{"Original", "Declared", "Most likely"}, colors))
		fmt.Println()

		var maxValue float64
		for _, c := range res.Comparison {
			maxValue = max(maxValue, c.Original, c.Declared, c.MostLikely)
		}
		for _, c := range res.Comparison {
			fmt.Print(cli.RenderGroupedBar(c.Category, []float64{c.Original, c.Declared, c.MostLikely}, colors, maxValue, 40))
		}
		fmt.Println()
	}

	if res.Mismatch != nil {
		fmt.Fprint(os.Stderr, cli.RenderWarning(res.Mismatch.Error()))
	}
	return nil
}
