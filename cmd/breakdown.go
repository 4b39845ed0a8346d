package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/marginfc/internal/cli"
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Category share of the target-year forecast",
	RunE:  runBreakdown,
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
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
	if len(res.Breakdown) == 0 {
		fmt.Println("  No category forecast rows for the target year.")
		fmt.Println("  Set inputs.future_path or pass --future.")
		return nil
	}
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CATEGORY BREAKDOWN  %d", res.TargetYear)))
	fmt.Println()

	var (
		total, maxValue float64
		labelWidth      int
	)
	rows := make([][]string, 0, len(res.Breakdown)+2)
	for _, b := range res.Breakdown {
		total += b.Value
		maxValue = max(maxValue, b.Value)
		labelWidth = max(labelWidth, len(b.Category))
		rows = append(rows, []string{b.Category, cli.FormatAmount(b.Value), cli.FormatPercent(b.SharePercent)})
	}
	rows = append(rows, []string{"---"}, []string{"Total", cli.FormatAmount(total), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Forecast", "Share"},
		Rows:    rows,
	}))
	fmt.Println()

	for _, b := range res.Breakdown {
		fmt.Println(cli.RenderHorizontalBar(b.Category, b.Value, maxValue, labelWidth, 40))
	}
	fmt.Println()
	return nil
}
