package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// gaussianPowerLawModel is a normal core in linear x joined to a power-law
// tail where the two logarithmic slopes agree:
// x_t = (mu + sqrt(mu^2 + 4*slope*sigma^2)) / 2.
// Parameters: (mu, slope, sigma).
type gaussianPowerLawModel struct{}

func (gaussianPowerLawModel) Name() ModelName { return GaussianPowerLaw }

func (gaussianPowerLawModel) NumParams() int { return 3 }

func (gaussianPowerLawModel) Evaluate(x float64, params []float64, _ Aux) float64 {
	mu, slope, sigma := params[0], params[1], params[2]
	if !(sigma > 0) {
		return 0
	}
	normal := distuv.Normal{Mu: mu, Sigma: sigma}
	xt := gaussianTransition(mu, slope, sigma)
	if x <= xt || !(xt > 0) {
		return normal.Prob(x)
	}
	return normal.Prob(xt) * math.Pow(x/xt, -slope)
}

func gaussianTransition(mu, slope, sigma float64) float64 {
	disc := mu*mu + 4*slope*sigma*sigma
	if disc < 0 {
		return math.NaN()
	}
	return 0.5 * (mu + math.Sqrt(disc))
}

func (gaussianPowerLawModel) InitialGuess(in GuessInput) ([]float64, Bounds, error) {
	if in.Stats == nil {
		return nil, Bounds{}, invalidInputErr(GaussianPowerLaw, "summary statistics are required for the guess", nil)
	}
	mean, std := in.Stats.Mean, in.Stats.Std
	if math.IsNaN(mean) || math.IsInf(mean, 0) || !(std > 0) || math.IsInf(std, 0) {
		return nil, Bounds{}, invalidInputErr(GaussianPowerLaw, fmt.Sprintf("need finite mean and positive std, got %v and %v", mean, std), nil)
	}
	p0 := []float64{mean, 2.0, std}
	b := Bounds{
		Lower: []float64{mean - 5*std, 1, 1e-3 * std},
		Upper: []float64{mean + 5*std, 20, 10 * std},
	}
	return p0, b, nil
}

func (m gaussianPowerLawModel) Fit(p Problem) ([]float64, [][]float64, error) {
	return solve(m, p)
}
