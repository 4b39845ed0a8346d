package pipeline

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/theirongolddev/marginfc/internal/model"
)

// ForecastOptions tunes the additive trend + yearly seasonality model.
type ForecastOptions struct {
	MinPoints          int     // below this the series is rejected
	SeasonalMinPoints  int     // below this only the trend is fitted
	Changepoints       int     // maximum trend changepoints
	ChangepointRange   float64 // fraction of history eligible for changepoints
	ChangepointPenalty float64 // ridge weight per observation on slope changes
	FourierOrder       int     // yearly seasonality harmonics; 0 disables seasonality
	IntervalWidth      float64 // coverage of the future uncertainty band
}

// DefaultForecastOptions returns the baseline model settings.
func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{
		MinPoints:          2,
		SeasonalMinPoints:  24,
		Changepoints:       5,
		ChangepointRange:   0.8,
		ChangepointPenalty: 0.05,
		FourierOrder:       3,
		IntervalWidth:      0.8,
	}
}

const (
	monthsPerYear  = 12
	seasonalRidge  = 1e-3
	diagonalJitter = 1e-9
)

// Forecaster fits a fresh model on every call; it holds no fitted state.
type Forecaster struct {
	opts ForecastOptions
	log  *zap.Logger
}

// NewForecaster returns a Forecaster with the given options.
func NewForecaster(opts ForecastOptions, log *zap.Logger) *Forecaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Forecaster{opts: opts, log: log}
}

// design describes how a month offset becomes a regression row.
type design struct {
	span         float64 // months from first to last observation, for time scaling
	firstMonth   int     // calendar month (0-11) of the first observation
	hasSlope     bool
	changepoints []float64 // scaled times where the slope may change
	fourier      int
}

func (d design) width() int {
	w := 1
	if d.hasSlope {
		w++
	}
	w += len(d.changepoints)
	return w + d.fourierColumns()
}

func (d design) fourierColumns() int {
	cols := 0
	for k := 1; k <= d.fourier; k++ {
		cols++ // cos
		if 2*k != monthsPerYear {
			cols++ // sin, identically zero at the Nyquist harmonic
		}
	}
	return cols
}

// row fills dst with the regressors for an observation offset months after the first.
func (d design) row(dst []float64, offset int) {
	t := float64(offset) / d.span
	i := 0
	dst[i] = 1
	i++
	if d.hasSlope {
		dst[i] = t
		i++
	}
	for _, s := range d.changepoints {
		dst[i] = math.Max(0, t-s)
		i++
	}
	month := float64((d.firstMonth + offset) % monthsPerYear)
	for k := 1; k <= d.fourier; k++ {
		x := 2 * math.Pi * float64(k) * month / monthsPerYear
		dst[i] = math.Cos(x)
		i++
		if 2*k != monthsPerYear {
			dst[i] = math.Sin(x)
			i++
		}
	}
}

// penalty returns the ridge weight for column j.
func (d design) penalty(j, n int, opts ForecastOptions) float64 {
	trendCols := 1
	if d.hasSlope {
		trendCols++
	}
	switch {
	case j < trendCols:
		return diagonalJitter
	case j < trendCols+len(d.changepoints):
		return opts.ChangepointPenalty*float64(n) + diagonalJitter
	default:
		return seasonalRidge*float64(n) + diagonalJitter
	}
}

// Forecast fits the series and projects horizon months past its last period.
// uplift scales only the future central estimate, after fitting; the
// historical fit and the uncertainty band are left untouched.
func (f *Forecaster) Forecast(series model.Series, horizon int, uplift float64) (model.ForecastResult, error) {
	n := series.Len()
	minPoints := f.opts.MinPoints
	if minPoints < 1 {
		minPoints = 1
	}
	if n < minPoints {
		return model.ForecastResult{}, &InsufficientDataError{Points: n, Min: minPoints}
	}
	if horizon < 0 {
		return model.ForecastResult{}, fmt.Errorf("negative horizon %d", horizon)
	}

	first := series.Points[0].Period
	offsets := make([]int, n)
	for i, p := range series.Points {
		offsets[i] = monthsBetween(first, p.Period)
	}

	d := design{
		span:       math.Max(1, float64(offsets[n-1])),
		firstMonth: int(first.Month()) - 1,
		hasSlope:   offsets[n-1] > 0,
	}

	mode := model.ModeTrendOnly
	switch {
	case f.opts.FourierOrder <= 0:
		f.log.Info("yearly seasonality disabled, fitting trend only",
			zap.String("category", series.Category),
			zap.Int("points", n),
		)
	case n >= f.opts.SeasonalMinPoints:
		mode = model.ModeSeasonal
		d.fourier = f.opts.FourierOrder
	default:
		f.log.Warn("series too short for yearly seasonality, fitting trend only",
			zap.String("category", series.Category),
			zap.Int("points", n),
			zap.Int("seasonal_min_points", f.opts.SeasonalMinPoints),
		)
	}
	if d.hasSlope {
		d.changepoints = placeChangepoints(offsets, d.span, f.opts)
	}

	// Work on a unit-scaled target so the ridge weights don't depend on currency magnitude.
	y := series.Values()
	yScale := floats.Norm(y, math.Inf(1))
	if yScale == 0 {
		yScale = 1
	}
	ys := make([]float64, n)
	floats.ScaleTo(ys, 1/yScale, y)

	p := d.width()
	X := mat.NewDense(n, p, nil)
	for i, off := range offsets {
		d.row(X.RawRowView(i), off)
	}

	beta, err := solveRidge(X, ys, func(j int) float64 { return d.penalty(j, n, f.opts) })
	if err != nil {
		return model.ForecastResult{}, fmt.Errorf("fitting %s: %w", series.Category, err)
	}

	var fittedVec mat.VecDense
	fittedVec.MulVec(X, beta)

	result := model.ForecastResult{
		Mode:       mode,
		Historical: make([]model.FittedPoint, n),
		Future:     make([]model.FuturePoint, horizon),
	}
	residuals := make([]float64, n)
	for i, pt := range series.Points {
		fitted := fittedVec.AtVec(i) * yScale
		result.Historical[i] = model.FittedPoint{Period: pt.Period, Fitted: fitted}
		residuals[i] = y[i] - fitted
	}

	sigma := residualSigma(y, residuals, p)
	z := distuv.UnitNormal.Quantile(0.5 + f.opts.IntervalWidth/2)

	last := series.Points[n-1].Period
	row := make([]float64, p)
	for h := 1; h <= horizon; h++ {
		d.row(row, offsets[n-1]+h)
		mean := mat.Dot(mat.NewVecDense(p, row), beta) * yScale

		// The band widens with distance from the data to reflect trend drift.
		half := z * sigma * math.Sqrt(1+float64(h)/float64(n))
		result.Future[h-1] = model.FuturePoint{
			Period: last.AddDate(0, h, 0),
			Mean:   mean * uplift,
			Lower:  mean - half,
			Upper:  mean + half,
		}
	}

	f.log.Debug("forecast fitted",
		zap.String("category", series.Category),
		zap.String("mode", mode),
		zap.Int("points", n),
		zap.Int("changepoints", len(d.changepoints)),
		zap.Float64("sigma", sigma),
	)
	return result, nil
}

// placeChangepoints spreads up to opts.Changepoints slope changes evenly
// across the first ChangepointRange of the observed points.
func placeChangepoints(offsets []int, span float64, opts ForecastOptions) []float64 {
	histSize := int(math.Floor(opts.ChangepointRange * float64(len(offsets))))
	count := opts.Changepoints
	if count > histSize-1 {
		count = histSize - 1
	}
	if count <= 0 {
		return nil
	}

	var cps []float64
	prev := -1.0
	for j := 1; j <= count; j++ {
		idx := int(math.Round(float64(j) * float64(histSize-1) / float64(count)))
		s := float64(offsets[idx]) / span
		if s <= prev {
			continue
		}
		cps = append(cps, s)
		prev = s
	}
	return cps
}

// solveRidge solves (XᵀX + diag(penalty)) β = Xᵀy.
func solveRidge(X *mat.Dense, y []float64, penalty func(j int) float64) (*mat.VecDense, error) {
	_, p := X.Dims()

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	a := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			a.SetSym(i, j, xtx.At(i, j))
		}
		a.SetSym(i, i, a.At(i, i)+penalty(i))
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), mat.NewVecDense(len(y), y))

	beta := mat.NewVecDense(p, nil)
	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveVecTo(beta, &xty); err == nil {
			return beta, nil
		}
	}
	if err := beta.SolveVec(a, &xty); err != nil {
		return nil, fmt.Errorf("solving normal equations: %w", err)
	}
	return beta, nil
}

// residualSigma estimates the noise level. When the model has as many
// parameters as points the residuals are meaningless, so the spread of the
// observations stands in.
func residualSigma(y, residuals []float64, params int) float64 {
	n := len(y)
	dof := n - params
	if dof <= 0 {
		if n < 2 {
			return 0
		}
		return stat.StdDev(y, nil)
	}
	return math.Sqrt(floats.Dot(residuals, residuals) / float64(dof))
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*monthsPerYear + int(to.Month()) - int(from.Month())
}
