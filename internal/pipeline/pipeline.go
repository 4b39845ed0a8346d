package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/theirongolddev/marginfc/internal/config"
	"github.com/theirongolddev/marginfc/internal/model"
	"github.com/theirongolddev/marginfc/internal/store"
)

// resultSchemaVersion is mixed into every data version so cached payloads
// from an older Result layout are never decoded.
const resultSchemaVersion = "marginfc-result-v1"

// Input holds the three loaded tables. It is treated as read-only.
type Input struct {
	Records     []model.Record          `json:"records"`
	GrowthRates []model.GrowthRateEntry `json:"growth_rates"`
	FutureRows  []model.FutureRow       `json:"future_rows"`
}

// Options carries the business policy and model settings for one query.
type Options struct {
	ExcludedYears []int           `json:"excluded_years"`
	Horizon       int             `json:"horizon"`
	Uplift        float64         `json:"uplift"`
	TargetYear    int             `json:"target_year"`
	FallbackToAll bool            `json:"fallback_to_all"`
	Forecast      ForecastOptions `json:"forecast"`
}

// DefaultOptions mirrors config.DefaultConfig's pipeline section.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Pipeline)
}

// OptionsFromConfig converts the [pipeline] config section.
func OptionsFromConfig(p config.PipelineConfig) Options {
	return Options{
		ExcludedYears: append([]int(nil), p.ExcludedYears...),
		Horizon:       p.Horizon,
		Uplift:        p.Uplift,
		TargetYear:    p.TargetYear,
		FallbackToAll: p.FallbackToAll,
		Forecast: ForecastOptions{
			MinPoints:          p.MinPoints,
			SeasonalMinPoints:  p.SeasonalMinPoints,
			Changepoints:       p.Changepoints,
			ChangepointRange:   p.ChangepointRange,
			ChangepointPenalty: p.ChangepointPenalty,
			FourierOrder:       p.FourierOrder,
			IntervalWidth:      p.IntervalWidth,
		},
	}
}

// Result is everything a presentation adapter needs for one category selection.
type Result struct {
	Filter        string                     `json:"filter"`
	FellBackToAll bool                       `json:"fell_back_to_all,omitempty"`
	Series        model.Series               `json:"series"`
	Forecast      model.ForecastResult       `json:"forecast"`
	TotalMetric   float64                    `json:"total_metric"`
	TargetYear    int                        `json:"target_year"`
	Breakdown     []model.BreakdownSlice     `json:"breakdown"`
	Adjusted      []model.AdjustedProjection `json:"adjusted"`
	Comparison    []model.ComparisonBar      `json:"comparison"`
	Mismatch      *JoinMismatchWarning       `json:"mismatch,omitempty"`
}

// Run executes aggregate, forecast, and adjust for one category filter.
// It is a pure function of its arguments: nothing is cached or shared
// between calls. Any stage failure aborts the query with no partial result.
func Run(in Input, filter string, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	filter = NormalizeFilter(filter)
	res := &Result{Filter: filter}

	series, err := Aggregate(in.Records, filter, opts.ExcludedYears)
	var emptyErr *EmptyFilterResultError
	if errors.As(err, &emptyErr) && opts.FallbackToAll && filter != model.AllCategories {
		log.Warn("category matched no records, falling back to all categories",
			zap.String("category", filter))
		res.Filter = model.AllCategories
		res.FellBackToAll = true
		series, err = Aggregate(in.Records, model.AllCategories, opts.ExcludedYears)
	}
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", res.Filter, err)
	}
	res.Series = series

	fc, err := NewForecaster(opts.Forecast, log).Forecast(series, opts.Horizon, opts.Uplift)
	if err != nil {
		return nil, fmt.Errorf("forecasting %s: %w", res.Filter, err)
	}
	res.Forecast = fc
	res.TotalMetric = TotalMetric(fc)

	// Scenario adjustment is independent of the selected filter.
	res.TargetYear = TargetYear(in.FutureRows, opts.TargetYear)
	categoryForecasts := CategoryForecastsForYear(in.FutureRows, res.TargetYear)
	res.Breakdown = Breakdown(categoryForecasts)

	adjusted, mismatch := Adjust(categoryForecasts, in.GrowthRates)
	res.Adjusted = adjusted
	res.Comparison = Comparison(adjusted)
	if mismatch != nil {
		res.Mismatch = mismatch
		log.Warn("scenario join dropped categories",
			zap.Strings("missing_rates", mismatch.MissingRates),
			zap.Strings("missing_forecast", mismatch.MissingForecast))
	}
	return res, nil
}

// DataVersion fingerprints the inputs and options. Two queries with the same
// version and filter are guaranteed to produce the same Result.
func DataVersion(in Input, opts Options) (string, error) {
	h := sha256.New()
	h.Write([]byte(resultSchemaVersion))
	enc := json.NewEncoder(h)
	if err := enc.Encode(in); err != nil {
		return "", fmt.Errorf("encoding input: %w", err)
	}
	if err := enc.Encode(opts); err != nil {
		return "", fmt.Errorf("encoding options: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Runner memoizes Run by (filter, data version) in a SQLite cache.
// A nil cache disables memoization. Cache failures are logged and the
// query is computed directly.
type Runner struct {
	in      Input
	opts    Options
	cache   *store.Cache
	log     *zap.Logger
	version string
}

// NewRunner fingerprints the input once so each query only hits the cache.
func NewRunner(in Input, opts Options, cache *store.Cache, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	version, err := DataVersion(in, opts)
	if err != nil {
		return nil, err
	}
	return &Runner{in: in, opts: opts, cache: cache, log: log, version: version}, nil
}

// Version returns the data version the runner's results are keyed by.
func (r *Runner) Version() string { return r.version }

// Input returns the tables the runner was built with.
func (r *Runner) Input() Input { return r.in }

// Options returns the runner's query options.
func (r *Runner) Options() Options { return r.opts }

// Run answers one category query, from the cache when possible.
func (r *Runner) Run(filter string) (*Result, error) {
	key := NormalizeFilter(filter)

	if r.cache != nil {
		payload, ok, err := r.cache.Get(key, r.version)
		switch {
		case err != nil:
			r.log.Warn("reading result cache", zap.Error(err))
		case ok:
			var res Result
			if err := json.Unmarshal(payload, &res); err == nil {
				r.log.Debug("result cache hit", zap.String("filter", key))
				return &res, nil
			}
			r.log.Warn("discarding undecodable cached result", zap.String("filter", key))
		default:
			r.log.Debug("result cache miss", zap.String("filter", key))
		}
	}

	res, err := Run(r.in, key, r.opts, r.log)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		payload, err := json.Marshal(res)
		if err == nil {
			err = r.cache.Put(key, r.version, payload)
		}
		if err != nil {
			r.log.Warn("writing result cache", zap.Error(err))
		}
	}
	return res, nil
}

// Categories lists the selectable categories, "All" first.
func (r *Runner) Categories() []string {
	return append([]string{model.AllCategories}, Categories(r.in.Records, r.opts.ExcludedYears)...)
}
