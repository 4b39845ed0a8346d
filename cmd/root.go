package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/marginfc/internal/cli"
	"github.com/theirongolddev/marginfc/internal/config"
	"github.com/theirongolddev/marginfc/internal/logger"
	"github.com/theirongolddev/marginfc/internal/pipeline"
	"github.com/theirongolddev/marginfc/internal/store"
)

var (
	flagConfig   string
	flagHistory  string
	flagGrowth   string
	flagFuture   string
	flagSheet    string
	flagCategory string
	flagNoCache  bool
	flagQuiet    bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "marginfc",
	Short: "Margin forecasting and growth scenarios",
	Long: "Aggregate historical margins into monthly series, forecast the next year,\n" +
		"and compare category projections under declared and most-likely growth rates.",
	SilenceUsage: true,
	RunE:         runForecast,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.Path(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagHistory, "history", "", "Historical margin table (.csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&flagGrowth, "growth", "", "Growth-rate table (.csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&flagFuture, "future", "", "Category future-forecast table (.csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "Historical workbook sheet to read (default: first sheet)")
	rootCmd.PersistentFlags().StringVarP(&flagCategory, "category", "c", "", "Category to forecast (default: All)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite result cache")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFrom(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagHistory != "" {
		cfg.Inputs.HistoryPath = flagHistory
	}
	if flagGrowth != "" {
		cfg.Inputs.GrowthPath = flagGrowth
	}
	if flagFuture != "" {
		cfg.Inputs.FuturePath = flagFuture
	}
	if flagSheet != "" {
		cfg.Inputs.HistorySheet = flagSheet
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

// session bundles everything a command needs to answer queries.
type session struct {
	cfg    config.Config
	log    *zap.Logger
	loaded *pipeline.LoadResult
	runner *pipeline.Runner
	cache  *store.Cache
}

func (s *session) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	_ = s.log.Sync()
}

// openSession is the shared data loading path used by all commands.
// Uses the SQLite result cache when enabled; a cache that cannot be opened
// only costs recomputation.
func openSession(ctx context.Context) (*session, error) {
	return openSessionWith(ctx, logger.New(flagVerbose))
}

// openSessionWith is openSession with a caller-supplied logger.
func openSessionWith(ctx context.Context, log *zap.Logger) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading tables...\n")
	}
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing tables %s", cli.RenderProgressBar(current, total, 20))
	}

	loaded, err := pipeline.LoadTables(ctx,
		pipeline.TablesFromConfig(cfg.Inputs),
		pipeline.ColumnsFromConfig(cfg.Columns),
		progressFn,
	)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr)
		}
		return nil, err
	}
	s.loaded = loaded

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s records, %d growth rates, %s future rows    \n",
			formatNumber(int64(len(loaded.Input.Records))),
			len(loaded.Input.GrowthRates),
			formatNumber(int64(len(loaded.Input.FutureRows))),
		)
		if n := loaded.ParseErrors(); n > 0 {
			fmt.Fprintf(os.Stderr, "  %d rows could not be parsed and were skipped\n", n)
		}
	}

	if cfg.Cache.Enabled {
		cache, err := store.Open(cfg.CachePath())
		if err != nil {
			log.Warn("result cache unavailable, computing directly", zap.Error(err))
		} else {
			s.cache = cache
		}
	}

	runner, err := pipeline.NewRunner(loaded.Input, pipeline.OptionsFromConfig(cfg.Pipeline), s.cache, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.runner = runner
	return s, nil
}

// query runs the pipeline for the --category selection.
func (s *session) query() (*pipeline.Result, error) {
	res, err := s.runner.Run(flagCategory)
	if err != nil {
		return nil, err
	}
	if res.FellBackToAll && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  No records for %q, showing all categories\n", flagCategory)
	}
	return res, nil
}

func formatNumber(n int64) string {
	return cli.FormatNumber(n)
}
