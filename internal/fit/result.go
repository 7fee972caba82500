package fit

import "math"

// Curve pairs a model with fitted parameters. It is a plain value, so it can
// be compared, copied and serialized.
type Curve struct {
	Model  ModelName `json:"model"`
	Params []float64 `json:"params"`
	Aux    Aux       `json:"aux"`
}

// Evaluate returns the fitted density at x, or NaN for an unknown model.
func (c Curve) Evaluate(x float64) float64 {
	m, err := Lookup(c.Model)
	if err != nil {
		return math.NaN()
	}
	return m.Evaluate(x, c.Params, c.Aux)
}

// EvaluateAll evaluates the curve at every x.
func (c Curve) EvaluateAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	m, err := Lookup(c.Model)
	for i, x := range xs {
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = m.Evaluate(x, c.Params, c.Aux)
	}
	return out
}

// Result is the outcome of fitting one model to one histogram. FitPDF never
// modifies it after returning; its slices belong to the caller.
type Result struct {
	Name       ModelName
	Params     []float64
	Covariance [][]float64
	Curve      Curve
	// Density is the normalized density over every bin, Centers its abscissae.
	Density []float64
	Centers []float64
	// FitX and FitY are the subset of (Centers, Density) the model was fitted to.
	FitX   []float64
	FitY   []float64
	Error  float64
	Method Method
	// ImpliedNorm is NaN for models without an implied normalization.
	ImpliedNorm float64
	// PositiveBins is the number of bins that contributed to Error.
	PositiveBins int
}

// Evaluate returns the fitted curve at x.
func (r *Result) Evaluate(x float64) float64 {
	return r.Curve.Evaluate(x)
}

// EvaluateAll returns the fitted curve at each x.
func (r *Result) EvaluateAll(xs []float64) []float64 {
	return r.Curve.EvaluateAll(xs)
}

// Model returns the fitted model.
func (r *Result) Model() Model {
	m, _ := Lookup(r.Name)
	return m
}

// Uncertainties returns the square root of the covariance diagonal.
func (r *Result) Uncertainties() []float64 {
	out := make([]float64, len(r.Covariance))
	for i := range r.Covariance {
		out[i] = math.Sqrt(r.Covariance[i][i])
	}
	return out
}

// ReducedError is Error divided by the number of contributing bins.
func (r *Result) ReducedError() float64 {
	if r.PositiveBins == 0 {
		return math.NaN()
	}
	return r.Error / float64(r.PositiveBins)
}

// ErrorScore sums |observed - fitted|^2 / observed over the bins where the
// observed density is positive. Other bins do not contribute.
func ErrorScore(observed, fitted []float64) (score float64, bins int) {
	for i, obs := range observed {
		if !(obs > 0) {
			continue
		}
		d := math.Abs(obs - fitted[i])
		score += d * d / obs
		bins++
	}
	return score, bins
}
