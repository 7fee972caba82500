package fit

import (
	"math"

	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

var (
	powerLawGuess = []float64{2, 1.0e-5}
	powerLawLower = []float64{1, 0}
	powerLawUpper = []float64{math.Inf(1), 1}
)

// powerLawModel is amp * x^-slope. Parameters: (slope, amp).
type powerLawModel struct{}

func (powerLawModel) Name() ModelName { return PowerLaw }

func (powerLawModel) NumParams() int { return 2 }

func (powerLawModel) Evaluate(x float64, params []float64, _ Aux) float64 {
	if x <= 0 {
		return 0
	}
	return params[1] * math.Pow(x, -params[0])
}

func (powerLawModel) InitialGuess(GuessInput) ([]float64, Bounds, error) {
	return append([]float64(nil), powerLawGuess...), Bounds{
		Lower: append([]float64(nil), powerLawLower...),
		Upper: append([]float64(nil), powerLawUpper...),
	}, nil
}

func (m powerLawModel) Fit(p Problem) ([]float64, [][]float64, error) {
	return solve(m, p)
}

// truncatedPowerLawModel is a power law cut off exponentially below the
// truncation centre xc: amp * x^-slope * exp(-xc/x).
// Parameters: (slope, amp, xc).
type truncatedPowerLawModel struct{}

func (truncatedPowerLawModel) Name() ModelName { return TruncatedPowerLaw }

func (truncatedPowerLawModel) NumParams() int { return 3 }

func (truncatedPowerLawModel) Evaluate(x float64, params []float64, _ Aux) float64 {
	if x <= 0 {
		return 0
	}
	slope, amp, xc := params[0], params[1], params[2]
	return amp * math.Pow(x, -slope) * math.Exp(-xc/x)
}

func (truncatedPowerLawModel) InitialGuess(in GuessInput) ([]float64, Bounds, error) {
	if len(in.Centers) == 0 || len(in.Centers) != len(in.Density) {
		return nil, Bounds{}, invalidInputErr(TruncatedPowerLaw, "centers and density are required for the truncation guess", nil)
	}
	peak := histogram.PeakIndex(in.Density)
	at := func(offset int) float64 {
		return in.Centers[clampIndex(peak+offset, len(in.Centers))]
	}

	p0 := []float64{powerLawGuess[0], powerLawGuess[1], at(in.TruncationShift)}
	b := Bounds{
		Lower: []float64{powerLawLower[0], powerLawLower[1], at(-in.TruncationBelow)},
		Upper: []float64{powerLawUpper[0], powerLawUpper[1], at(in.TruncationAbove)},
	}
	return p0, b, nil
}

func (m truncatedPowerLawModel) Fit(p Problem) ([]float64, [][]float64, error) {
	return solve(m, p)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
