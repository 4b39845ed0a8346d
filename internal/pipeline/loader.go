package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/marginfc/internal/config"
	"github.com/theirongolddev/marginfc/internal/source"
)

// Tables locates the three input tables. Only HistoryPath is required.
// Each workbook has its own sheet name; empty selects the first sheet.
type Tables struct {
	HistoryPath  string
	GrowthPath   string
	FuturePath   string
	HistorySheet string
	GrowthSheet  string
	FutureSheet  string

	GrowthRatesAsFraction bool
}

// TablesFromConfig converts the [inputs] config section.
func TablesFromConfig(in config.InputsConfig) Tables {
	return Tables{
		HistoryPath:           in.HistoryPath,
		GrowthPath:            in.GrowthPath,
		FuturePath:            in.FuturePath,
		HistorySheet:          in.HistorySheet,
		GrowthSheet:           in.GrowthSheet,
		FutureSheet:           in.FutureSheet,
		GrowthRatesAsFraction: in.GrowthRatesAsFraction,
	}
}

// ColumnsFromConfig converts the [columns] config section.
func ColumnsFromConfig(c config.ColumnsConfig) source.Columns {
	return source.Columns{
		Date:           c.Date,
		Category:       c.Category,
		Margin:         c.Margin,
		GrowthRate:     c.GrowthRate,
		MostLikelyRate: c.MostLikelyRate,
		FutureDate:     c.FutureDate,
		FutureValue:    c.FutureValue,
	}
}

// LoadResult holds the loaded tables and per-table skipped row counts.
type LoadResult struct {
	Input Input

	TablesLoaded       int
	HistoryParseErrors int
	GrowthParseErrors  int
	FutureParseErrors  int
}

// ParseErrors returns the total number of skipped rows across all tables.
func (r *LoadResult) ParseErrors() int {
	return r.HistoryParseErrors + r.GrowthParseErrors + r.FutureParseErrors
}

// ProgressFunc is called as each table finishes loading.
// current is the number of tables loaded so far, total is the table count.
type ProgressFunc func(current, total int)

// LoadTables reads and parses the configured tables concurrently.
// The first table that fails cancels the others.
func LoadTables(ctx context.Context, t Tables, cols source.Columns, progressFn ProgressFunc) (*LoadResult, error) {
	if t.HistoryPath == "" {
		return nil, fmt.Errorf("no historical table configured (set inputs.history_path or --history)")
	}

	total := 1
	if t.GrowthPath != "" {
		total++
	}
	if t.FuturePath != "" {
		total++
	}

	result := &LoadResult{}
	var loaded atomic.Int64
	done := func() {
		n := loaded.Add(1)
		if progressFn != nil {
			progressFn(int(n), total)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := readTable(ctx, t.HistoryPath, t.HistorySheet)
		if err != nil {
			return err
		}
		res, err := source.ParseRecords(rows, cols)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", t.HistoryPath, err)
		}
		result.Input.Records = res.Rows
		result.HistoryParseErrors = res.ParseErrors
		done()
		return nil
	})

	if t.GrowthPath != "" {
		g.Go(func() error {
			rows, err := readTable(ctx, t.GrowthPath, t.GrowthSheet)
			if err != nil {
				return err
			}
			res, err := source.ParseGrowthRates(rows, cols, t.GrowthRatesAsFraction)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", t.GrowthPath, err)
			}
			result.Input.GrowthRates = res.Rows
			result.GrowthParseErrors = res.ParseErrors
			done()
			return nil
		})
	}

	if t.FuturePath != "" {
		g.Go(func() error {
			rows, err := readTable(ctx, t.FuturePath, t.FutureSheet)
			if err != nil {
				return err
			}
			res, err := source.ParseFutureRows(rows, cols)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", t.FuturePath, err)
			}
			result.Input.FutureRows = res.Rows
			result.FutureParseErrors = res.ParseErrors
			done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.TablesLoaded = int(loaded.Load())
	return result, nil
}

func readTable(ctx context.Context, path, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := source.ReadRows(path, sheet)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return rows, nil
}
