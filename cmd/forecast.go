package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/marginfc/internal/cli"
	"github.com/theirongolddev/marginfc/internal/model"
	"github.com/theirongolddev/marginfc/internal/pipeline"
)

var flagShowHistory bool

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Monthly margin forecast for a category (default command)",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().BoolVar(&flagShowHistory, "history-rows", false, "Also list the fitted historical months")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
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
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MARGIN FORECAST  %s", res.Filter)))
	fmt.Println()

	renderForecast(res, s.cfg.Pipeline.Uplift)
	return nil
}

func renderForecast(res *pipeline.Result, uplift float64) {
	fc := res.Forecast
	actual := res.Series.Values()

	fmt.Printf("  History  %s  %s .. %s (%d months)\n",
		cli.RenderSparkline(actual),
		cli.FormatMonth(res.Series.Points[0].Period),
		cli.FormatMonth(res.Series.Points[res.Series.Len()-1].Period),
		res.Series.Len(),
	)
	fmt.Printf("  Forecast %s  next %d months\n", cli.RenderSparkline(fc.FutureMeans()), len(fc.Future))
	fmt.Println()

	if flagShowHistory {
		rows := make([][]string, 0, len(fc.Historical))
		for i, p := range fc.Historical {
			rows = append(rows, []string{
				cli.FormatMonth(p.Period),
				cli.FormatDecimal(res.Series.Points[i].Value),
				cli.FormatAmount(p.Fitted),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Historical Fit",
			Headers: []string{"Month", "Actual", "Fitted"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	rows := make([][]string, 0, len(fc.Future))
	for _, p := range fc.Future {
		rows = append(rows, []string{
			cli.FormatMonth(p.Period),
			cli.FormatAmount(p.Mean),
			cli.FormatAmount(p.Lower),
			cli.FormatAmount(p.Upper),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Projection (uplift x%.2f on mean)", uplift),
		Headers: []string{"Month", "Mean", "Lower", "Upper"},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Print(cli.RenderCallout("Projected total margin", cli.FormatAmount(res.TotalMetric), res.TotalMetric >= 0))
	if fc.Mode == model.ModeTrendOnly {
		fmt.Print(cli.RenderWarning(fmt.Sprintf(
			"only %d months of history: seasonality skipped, trend-only fit", res.Series.Len())))
	}
	fmt.Println()
}
