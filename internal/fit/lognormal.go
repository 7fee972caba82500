package fit

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// lognormalModel is the standard log-normal density with location u and scale s in ln-space.
type lognormalModel struct{}

func (lognormalModel) Name() ModelName { return LogNormal }

func (lognormalModel) NumParams() int { return 2 }

func (lognormalModel) Evaluate(x float64, params []float64, _ Aux) float64 {
	return lognormalPDF(x, params[0], params[1])
}

func (lognormalModel) InitialGuess(in GuessInput) ([]float64, Bounds, error) {
	u0, s0, err := momentGuess(LogNormal, in.Stats)
	if err != nil {
		return nil, Bounds{}, err
	}
	b := Bounds{
		Lower: []float64{u0 - 10, 0},
		Upper: []float64{u0 + 10, 30},
	}
	return []float64{u0, s0}, b, nil
}

func (m lognormalModel) Fit(p Problem) ([]float64, [][]float64, error) {
	return solve(m, p)
}

// lognormalPowerLawModel follows a log-normal up to the sample mean and a
// power law beyond it. The power-law amplitude is fixed by continuity at the
// mean, which is why the evaluator needs Aux.Mean.
// Parameters: (u, slope, s).
type lognormalPowerLawModel struct{}

func (lognormalPowerLawModel) Name() ModelName { return LogNormalPowerLaw }

func (lognormalPowerLawModel) NumParams() int { return 3 }

func (lognormalPowerLawModel) coupledToMean() bool { return true }

func (lognormalPowerLawModel) Evaluate(x float64, params []float64, aux Aux) float64 {
	u, slope, s := params[0], params[1], params[2]
	mean := aux.Mean
	if !(mean > 0) {
		return math.NaN()
	}
	if x <= mean {
		return lognormalPDF(x, u, s)
	}
	return lognormalPDF(mean, u, s) * math.Pow(x/mean, -slope)
}

func (lognormalPowerLawModel) InitialGuess(in GuessInput) ([]float64, Bounds, error) {
	u0, _, err := momentGuess(LogNormalPowerLaw, in.Stats)
	if err != nil {
		return nil, Bounds{}, err
	}
	shifted := u0 - 3
	p0 := []float64{shifted, 2.0, coreWidthGuess(shifted, in.Stats.Mean)}

	slopeLo, slopeHi := in.SlopeBounds[0], in.SlopeBounds[1]
	if slopeLo == 0 && slopeHi == 0 {
		slopeLo, slopeHi = DefaultSlopeBounds[0], DefaultSlopeBounds[1]
	}
	b := Bounds{
		Lower: []float64{u0 - 5, slopeLo, 0.01},
		Upper: []float64{u0 + 3, slopeHi, 10},
	}
	return p0, b, nil
}

func (m lognormalPowerLawModel) Fit(p Problem) ([]float64, [][]float64, error) {
	return solve(m, p)
}

// ImpliedNorm is the factor that makes the composite integrate to one. The
// power-law tail only converges for slope > 1; NaN is returned otherwise.
func (lognormalPowerLawModel) ImpliedNorm(params []float64, aux Aux) float64 {
	u, slope, s := params[0], params[1], params[2]
	mean := aux.Mean
	if !(mean > 0) || !(s > 0) || !(slope > 1) {
		return math.NaN()
	}
	core := distuv.LogNormal{Mu: u, Sigma: s}.CDF(mean)
	tail := lognormalPDF(mean, u, s) * mean / (slope - 1)
	if core+tail <= 0 {
		return math.NaN()
	}
	return 1 / (core + tail)
}

// coreWidthGuess is sqrt(-0.5*(location - ln(mean))). The radicand is
// negative when the location lies above ln(mean); the guess is then 0 and
// gets clamped into the bounds by the caller.
func coreWidthGuess(location, mean float64) float64 {
	radicand := -0.5 * (location - math.Log(mean))
	if !(radicand > 0) {
		return 0
	}
	return math.Sqrt(radicand)
}

func lognormalPDF(x, u, s float64) float64 {
	if x <= 0 || !(s > 0) {
		return 0
	}
	return distuv.LogNormal{Mu: u, Sigma: s}.Prob(x)
}
