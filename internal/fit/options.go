package fit

import (
	"fmt"
	"strings"

	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

// DefaultSlopeBounds limits the lognormal_powerlaw slope.
var DefaultSlopeBounds = [2]float64{1, 20}

// NarrowSlopeBounds is the alternative slope window used by earlier analyses.
var NarrowSlopeBounds = [2]float64{0.1, 10}

// RegionPolicy decides which bins a model is fitted over.
type RegionPolicy int

const (
	// RegionPositive fits every bin with positive density.
	RegionPositive RegionPolicy = iota
	// RegionPeakWindow additionally restricts log-normal fits to one decade
	// either side of the density peak and power-law fits to bins right of it.
	RegionPeakWindow
)

func (r RegionPolicy) String() string {
	switch r {
	case RegionPositive:
		return "positive"
	case RegionPeakWindow:
		return "peak-window"
	default:
		return fmt.Sprintf("RegionPolicy(%d)", int(r))
	}
}

// ParseRegionPolicy accepts the names printed by String.
func ParseRegionPolicy(s string) (RegionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "positive":
		return RegionPositive, nil
	case "peak-window", "peak":
		return RegionPeakWindow, nil
	default:
		return 0, fmt.Errorf("unknown region policy %q", s)
	}
}

type fitConfig struct {
	stats           *histogram.SummaryStats
	p0              []float64
	bounds          *Bounds
	method          Method
	residual        []float64
	region          RegionPolicy
	slopeBounds     [2]float64
	truncationShift int
	truncationBelow int
	truncationAbove int
	settings        SolverSettings
}

func defaultFitConfig() fitConfig {
	return fitConfig{
		method:          MethodLeastSquares,
		region:          RegionPositive,
		slopeBounds:     DefaultSlopeBounds,
		truncationShift: -1,
		truncationBelow: 10,
		truncationAbove: 20,
		settings:        DefaultSolverSettings(),
	}
}

// Option configures a single FitPDF call.
type Option func(*fitConfig)

// WithSummary supplies the summary statistics of the unbinned sample.
func WithSummary(stats *histogram.SummaryStats) Option {
	return func(c *fitConfig) { c.stats = stats }
}

// WithInitialGuess overrides the model's initial guess. Without WithBounds
// the fit is then unbounded.
func WithInitialGuess(p0 []float64) Option {
	return func(c *fitConfig) { c.p0 = append([]float64(nil), p0...) }
}

// WithBounds overrides the model's parameter bounds.
func WithBounds(b Bounds) Option {
	return func(c *fitConfig) {
		c.bounds = &Bounds{
			Lower: append([]float64(nil), b.Lower...),
			Upper: append([]float64(nil), b.Upper...),
		}
	}
}

// WithMethod selects least-squares or KS fitting.
func WithMethod(m Method) Option {
	return func(c *fitConfig) { c.method = m }
}

// WithResidual subtracts a per-bin baseline from the normalized density.
func WithResidual(residual []float64) Option {
	return func(c *fitConfig) { c.residual = append([]float64(nil), residual...) }
}

// WithRegionPolicy selects the fit region policy.
func WithRegionPolicy(r RegionPolicy) Option {
	return func(c *fitConfig) { c.region = r }
}

// WithSlopeBounds sets the lognormal_powerlaw slope window.
func WithSlopeBounds(lo, hi float64) Option {
	return func(c *fitConfig) { c.slopeBounds = [2]float64{lo, hi} }
}

// WithTruncationWindow sets the truncated_powerlaw centre guess offset from
// the peak bin and how many bins below and above the peak its bounds reach.
func WithTruncationWindow(shift, below, above int) Option {
	return func(c *fitConfig) {
		c.truncationShift = shift
		c.truncationBelow = below
		c.truncationAbove = above
	}
}

// WithSolverSettings sets the solver limits.
func WithSolverSettings(s SolverSettings) Option {
	return func(c *fitConfig) { c.settings = s }
}
