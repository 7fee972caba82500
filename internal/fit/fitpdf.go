package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

// FitPDF fits the named model to the normalized density of h.
//
// The density is counts divided by bin width, less any residual given with
// WithResidual. Without WithInitialGuess the model derives its guess and
// bounds from the histogram and the summary statistics; the log-normal family
// cannot do so without WithSummary. The model is fitted over the bins picked
// by the region policy and the returned Result carries the error score over
// every positive-density bin.
//
// Errors are *InvalidModelInputError for unusable input and
// *FitConvergenceError when the solve fails.
func FitPDF(h histogram.Histogram, name ModelName, opts ...Option) (*Result, error) {
	cfg := defaultFitConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	model, err := Lookup(name)
	if err != nil {
		return nil, invalidInputErr(name, "model not registered", err)
	}
	if h.NumBins() == 0 || len(h.Edges) != h.NumBins()+1 {
		return nil, invalidInputErr(name, "histogram has no bins", histogram.ErrInvalidHistogram)
	}

	centers := h.Centers()
	widths := h.Widths()
	density, err := h.Density(cfg.residual)
	if err != nil {
		return nil, invalidInputErr(name, "residual does not match histogram", err)
	}

	if !hasPositive(density) {
		return nil, invalidInputErr(name, "no positive-density bins", nil)
	}
	selection := selectRegion(name, cfg.region, centers, density)
	if len(selection) == 0 {
		return nil, invalidInputErr(name, "no positive-density bins in the fit region", ErrRegionTooSmall)
	}
	if len(selection) < model.NumParams() {
		return nil, invalidInputErr(name, fmt.Sprintf("fit region has %d bins for %d parameters", len(selection), model.NumParams()), ErrRegionTooSmall)
	}

	aux := Aux{}
	if cfg.stats != nil {
		aux.Mean = cfg.stats.Mean
	}
	if mc, ok := model.(meanCoupled); ok && mc.coupledToMean() {
		if cfg.stats == nil || !(cfg.stats.Mean > 0) {
			return nil, invalidInputErr(name, "a positive sample mean is required", nil)
		}
	}

	p0, bounds, err := resolveGuess(model, cfg, centers, density)
	if err != nil {
		return nil, err
	}

	problem := Problem{
		X:        make([]float64, len(selection)),
		Y:        make([]float64, len(selection)),
		Widths:   make([]float64, len(selection)),
		P0:       p0,
		Bounds:   bounds,
		Method:   cfg.method,
		Aux:      aux,
		Settings: cfg.settings,
	}
	for k, i := range selection {
		problem.X[k] = centers[i]
		problem.Y[k] = density[i]
		problem.Widths[k] = widths[i]
	}
	if cfg.method == MethodKS {
		problem.DataCDF = make([]float64, len(selection))
		running := 0.0
		for k, i := range selection {
			running += h.Counts[i]
			problem.DataCDF[k] = running
		}
	}

	params, cov, err := model.Fit(problem)
	if err != nil {
		var conv *FitConvergenceError
		var invalid *InvalidModelInputError
		if errors.As(err, &conv) || errors.As(err, &invalid) {
			return nil, err
		}
		return nil, convergenceErr(name, "fit failed", err)
	}

	curve := Curve{Model: name, Params: append([]float64(nil), params...), Aux: aux}
	score, bins := ErrorScore(density, curve.EvaluateAll(centers))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, convergenceErr(name, "error score is not finite", nil)
	}

	impliedNorm := math.NaN()
	if nm, ok := model.(normalizer); ok {
		impliedNorm = nm.ImpliedNorm(params, aux)
	}

	return &Result{
		Name:         name,
		Params:       append([]float64(nil), params...),
		Covariance:   cov,
		Curve:        curve,
		Density:      density,
		Centers:      centers,
		FitX:         problem.X,
		FitY:         problem.Y,
		Error:        score,
		Method:       cfg.method,
		ImpliedNorm:  impliedNorm,
		PositiveBins: bins,
	}, nil
}

func hasPositive(density []float64) bool {
	for _, d := range density {
		if d > 0 {
			return true
		}
	}
	return false
}

// resolveGuess applies the caller's guess and bounds over the model's own.
func resolveGuess(model Model, cfg fitConfig, centers, density []float64) ([]float64, Bounds, error) {
	n := model.NumParams()
	name := model.Name()

	var p0 []float64
	var bounds Bounds
	switch {
	case cfg.p0 != nil && cfg.bounds != nil:
		p0, bounds = cfg.p0, *cfg.bounds
	case cfg.p0 != nil:
		p0, bounds = cfg.p0, Unbounded(n)
	default:
		var err error
		p0, bounds, err = model.InitialGuess(GuessInput{
			Centers:         centers,
			Density:         density,
			Stats:           cfg.stats,
			SlopeBounds:     cfg.slopeBounds,
			TruncationShift: cfg.truncationShift,
			TruncationBelow: cfg.truncationBelow,
			TruncationAbove: cfg.truncationAbove,
		})
		if err != nil {
			return nil, Bounds{}, err
		}
		if cfg.bounds != nil {
			bounds = *cfg.bounds
		}
	}

	if len(p0) != n {
		return nil, Bounds{}, invalidInputErr(name, fmt.Sprintf("initial guess has %d entries, model has %d parameters", len(p0), n), nil)
	}
	for i, v := range p0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Bounds{}, invalidInputErr(name, fmt.Sprintf("initial guess parameter %d is %v", i, v), nil)
		}
	}
	if err := bounds.validate(n); err != nil {
		return nil, Bounds{}, invalidInputErr(name, "bad bounds", err)
	}
	return bounds.clamp(p0), bounds, nil
}

// selectRegion returns the indices of the bins the model is fitted over.
func selectRegion(name ModelName, policy RegionPolicy, centers, density []float64) []int {
	peak := histogram.PeakIndex(density)
	peakCenter := centers[peak]

	selection := make([]int, 0, len(centers))
	for i, c := range centers {
		if !(density[i] > 0) {
			continue
		}
		if policy == RegionPeakWindow {
			switch name {
			case LogNormal:
				if peakCenter > 0 {
					logPeak := math.Log10(peakCenter)
					if !(c > math.Pow(10, logPeak-1) && c < math.Pow(10, logPeak+1)) {
						continue
					}
				}
			case PowerLaw:
				if !(c > peakCenter) {
					continue
				}
			}
		}
		selection = append(selection, i)
	}
	return selection
}
