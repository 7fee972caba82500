package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// SolverSettings bounds the work a single model fit may do. A solve that
// hits either limit is reported as a FitConvergenceError.
type SolverSettings struct {
	MaxIterations  int
	MaxEvaluations int
	// Restarts re-seeds the simplex at the previous optimum this many times.
	Restarts int
}

// DefaultSolverSettings returns the limits used when none are configured.
func DefaultSolverSettings() SolverSettings {
	return SolverSettings{
		MaxIterations:  20000,
		MaxEvaluations: 60000,
		Restarts:       1,
	}
}

func (s SolverSettings) withDefaults() SolverSettings {
	def := DefaultSolverSettings()
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.MaxEvaluations <= 0 {
		s.MaxEvaluations = def.MaxEvaluations
	}
	if s.Restarts < 0 {
		s.Restarts = 0
	}
	return s
}

// solve fits m to the problem with a bounded Nelder-Mead search and returns
// the best parameters together with a covariance estimate.
func solve(m Model, p Problem) ([]float64, [][]float64, error) {
	name := m.Name()
	n := m.NumParams()
	if len(p.P0) != n {
		return nil, nil, invalidInputErr(name, fmt.Sprintf("initial guess has %d entries, model has %d parameters", len(p.P0), n), nil)
	}
	if err := p.Bounds.validate(n); err != nil {
		return nil, nil, invalidInputErr(name, "bad bounds", err)
	}
	if len(p.X) == 0 || len(p.X) != len(p.Y) {
		return nil, nil, invalidInputErr(name, fmt.Sprintf("fit region has %d x and %d y values", len(p.X), len(p.Y)), nil)
	}

	var cost func(params []float64) float64
	switch p.Method {
	case MethodLeastSquares, "":
		cost = func(params []float64) float64 { return sumSquares(m, p, params) }
	case MethodKS:
		if len(p.DataCDF) != len(p.X) || len(p.Widths) != len(p.X) {
			return nil, nil, invalidInputErr(name, "KS fit needs a data CDF and widths for every fit point", nil)
		}
		cost = func(params []float64) float64 { return ksDistance(m, p, params) }
	default:
		return nil, nil, invalidInputErr(name, fmt.Sprintf("unknown fit method %q", p.Method), nil)
	}

	space := newParamSpace(p.Bounds)
	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			params := make([]float64, n)
			space.toExternal(params, z)
			return cost(params)
		},
	}

	settings := p.Settings.withDefaults()
	z := space.toInternal(p.Bounds.clamp(p.P0))
	best := math.Inf(1)
	for attempt := 0; attempt <= settings.Restarts; attempt++ {
		res, err := optimize.Minimize(problem, z, &optimize.Settings{
			MajorIterations: settings.MaxIterations,
			FuncEvaluations: settings.MaxEvaluations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-14,
				Relative:   1e-10,
				Iterations: 200,
			},
		}, &optimize.NelderMead{})
		if err != nil {
			return nil, nil, convergenceErr(name, "solver failed", err)
		}
		if res == nil {
			return nil, nil, convergenceErr(name, "solver returned no result", nil)
		}
		if res.Status.Early() {
			return nil, nil, convergenceErr(name, res.Status.String(), res.Status.Err())
		}
		if !(res.F < best) {
			break
		}
		best = res.F
		z = res.X
	}
	if math.IsNaN(best) || math.IsInf(best, 0) {
		return nil, nil, convergenceErr(name, "objective is not finite at the optimum", nil)
	}

	params := make([]float64, n)
	space.toExternal(params, z)
	return params, covariance(m, p, params), nil
}

func sumSquares(m Model, p Problem, params []float64) float64 {
	sum := 0.0
	for i, x := range p.X {
		f := m.Evaluate(x, params, p.Aux)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return math.Inf(1)
		}
		r := p.Y[i] - f
		sum += r * r
	}
	return sum
}

// ksDistance is the Kolmogorov-Smirnov statistic between the data CDF and
// the model mass accumulated bin by bin over the fit region.
func ksDistance(m Model, p Problem, params []float64) float64 {
	dataTotal := p.DataCDF[len(p.DataCDF)-1]
	if !(dataTotal > 0) {
		return math.Inf(1)
	}
	modelCDF := make([]float64, len(p.X))
	running := 0.0
	for i, x := range p.X {
		f := m.Evaluate(x, params, p.Aux)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return math.Inf(1)
		}
		running += f * p.Widths[i]
		modelCDF[i] = running
	}
	if !(running > 0) {
		return math.Inf(1)
	}
	worst := 0.0
	for i := range modelCDF {
		d := math.Abs(p.DataCDF[i]/dataTotal - modelCDF[i]/running)
		if d > worst {
			worst = d
		}
	}
	return worst
}

// covariance estimates the parameter covariance as s^2 (J^T J)^-1 with J the
// model Jacobian at params and s^2 the residual variance. Entries are +Inf
// when there are no spare degrees of freedom or J^T J cannot be inverted.
func covariance(m Model, p Problem, params []float64) [][]float64 {
	n := len(params)
	rows := len(p.X)
	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	fillInf := func() [][]float64 {
		for i := range cov {
			for j := range cov[i] {
				cov[i][j] = math.Inf(1)
			}
		}
		return cov
	}
	if rows <= n {
		return fillInf()
	}

	jac := mat.NewDense(rows, n, nil)
	fd.Jacobian(jac, func(y, x []float64) {
		for i, xi := range p.X {
			y[i] = m.Evaluate(xi, x, p.Aux)
		}
	}, params, &fd.JacobianSettings{Formula: fd.Central})

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	var inv mat.Dense
	if err := inv.Inverse(&jtj); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) {
			return fillInf()
		}
	}

	scale := sumSquares(m, p, params) / float64(rows-n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := inv.At(i, j) * scale
			if math.IsNaN(v) {
				return fillInf()
			}
			cov[i][j] = v
		}
	}
	return cov
}
