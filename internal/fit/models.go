package fit

import (
	"fmt"
	"math"
	"strings"

	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

// ModelName is both the registry key of a model and the label it is reported under.
type ModelName string

const (
	LogNormal         ModelName = "log-normal"
	LogNormalPowerLaw ModelName = "lognormal_powerlaw"
	PowerLaw          ModelName = "powerlaw"
	TruncatedPowerLaw ModelName = "truncated_powerlaw"
	GaussianPowerLaw  ModelName = "gaussian_powerlaw"
)

// Method selects the objective a model fit minimizes.
type Method string

const (
	// MethodLeastSquares minimizes pointwise squared density residuals.
	MethodLeastSquares Method = "least-squares"
	// MethodKS minimizes the maximum distance between the empirical and the
	// model cumulative distributions over the fit region.
	MethodKS Method = "KS"
)

// ParseMethod accepts the method names used in config files and flags.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "least-squares", "leastsq", "curve_fit":
		return MethodLeastSquares, nil
	case "ks":
		return MethodKS, nil
	default:
		return "", fmt.Errorf("unknown fit method %q", s)
	}
}

// Aux is state a model's evaluator needs beyond its fitted parameters.
type Aux struct {
	// Mean is the mean of the unbinned sample; lognormal_powerlaw places its
	// power-law transition there.
	Mean float64 `json:"mean,omitempty"`
}

// Bounds holds per-parameter lower and upper limits. Infinite limits are allowed.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// Unbounded returns bounds of (-Inf, +Inf) for n parameters.
func Unbounded(n int) Bounds {
	b := Bounds{Lower: make([]float64, n), Upper: make([]float64, n)}
	for i := 0; i < n; i++ {
		b.Lower[i] = math.Inf(-1)
		b.Upper[i] = math.Inf(1)
	}
	return b
}

func (b Bounds) validate(n int) error {
	if len(b.Lower) != n || len(b.Upper) != n {
		return fmt.Errorf("bounds have %d/%d entries, model has %d parameters", len(b.Lower), len(b.Upper), n)
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(b.Lower[i]) || math.IsNaN(b.Upper[i]) || b.Lower[i] > b.Upper[i] {
			return fmt.Errorf("bounds for parameter %d are [%v, %v]", i, b.Lower[i], b.Upper[i])
		}
	}
	return nil
}

// clamp returns a copy of p moved inside the bounds.
func (b Bounds) clamp(p []float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = math.Min(math.Max(v, b.Lower[i]), b.Upper[i])
	}
	return out
}

// GuessInput is what a model may look at to derive its initial guess and bounds.
type GuessInput struct {
	Centers []float64
	Density []float64
	Stats   *histogram.SummaryStats

	// SlopeBounds limits the lognormal_powerlaw slope.
	SlopeBounds [2]float64
	// TruncationShift offsets the truncated_powerlaw centre guess from the
	// peak bin; TruncationBelow/Above size its bounds window in bins.
	TruncationShift int
	TruncationBelow int
	TruncationAbove int
}

// Problem is one fit request handed to a model.
type Problem struct {
	X      []float64
	Y      []float64
	Widths []float64
	// DataCDF is the cumulative unnormalized count over the fit region.
	// Only MethodKS reads it.
	DataCDF  []float64
	P0       []float64
	Bounds   Bounds
	Method   Method
	Aux      Aux
	Settings SolverSettings
}

// Model is a parametric density shape that can be fitted to a histogram.
type Model interface {
	Name() ModelName
	NumParams() int
	Evaluate(x float64, params []float64, aux Aux) float64
	InitialGuess(in GuessInput) (p0 []float64, b Bounds, err error)
	Fit(p Problem) (params []float64, cov [][]float64, err error)
}

// normalizer is implemented by models with an implied normalization.
type normalizer interface {
	ImpliedNorm(params []float64, aux Aux) float64
}

// meanCoupled is implemented by models whose evaluator reads Aux.Mean.
type meanCoupled interface {
	coupledToMean() bool
}

// momentGuess inverts the log-normal mean/variance formulas.
func momentGuess(name ModelName, stats *histogram.SummaryStats) (u0, s0 float64, err error) {
	if stats == nil {
		return 0, 0, invalidInputErr(name, "summary statistics are required for a moment-based guess", nil)
	}
	if !(stats.Mean > 0) || math.IsInf(stats.Mean, 0) {
		return 0, 0, invalidInputErr(name, fmt.Sprintf("sample mean must be positive, got %v", stats.Mean), nil)
	}
	if !(stats.Std > 0) || math.IsInf(stats.Std, 0) {
		return 0, 0, invalidInputErr(name, fmt.Sprintf("sample std must be positive, got %v", stats.Std), nil)
	}
	ratio := stats.Std * stats.Std / (stats.Mean * stats.Mean)
	u0 = math.Log(stats.Mean / math.Sqrt(1+ratio))
	s0 = math.Sqrt(math.Log(1 + ratio))
	return u0, s0, nil
}
