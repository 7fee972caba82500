package fit

import (
	"errors"

	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

// DefaultCandidates is the candidate list FitMultifunctionPDF tries, in
// order. Order matters: the first of several equal scores wins.
var DefaultCandidates = []ModelName{LogNormal, LogNormalPowerLaw, PowerLaw}

// DefaultMandatory lists the candidates whose failure aborts the selection.
var DefaultMandatory = []ModelName{LogNormalPowerLaw}

// Candidate is one attempted model. Exactly one of Result and Err is set.
type Candidate struct {
	Name   ModelName
	Result *Result
	Err    error
}

// Present reports whether the candidate produced a fit.
func (c Candidate) Present() bool {
	return c.Result != nil
}

// CandidateSet holds the attempted models in candidate-list order.
type CandidateSet []Candidate

// Get returns the candidate fitted under name.
func (cs CandidateSet) Get(name ModelName) (Candidate, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Candidate{}, false
}

// Best returns the present candidate with the lowest error score, the
// earliest one on ties. It returns *NoCandidateFitError when none is present.
func (cs CandidateSet) Best() (*Result, error) {
	var best *Result
	for _, c := range cs {
		if !c.Present() {
			continue
		}
		if best == nil || c.Result.Error < best.Error {
			best = c.Result
		}
	}
	if best == nil {
		return nil, &NoCandidateFitError{Failures: append([]Candidate(nil), cs...)}
	}
	return best, nil
}

type multiConfig struct {
	candidates []ModelName
	mandatory  map[ModelName]bool
	fitOpts    []Option
}

// MultiOption configures FitCandidates and FitMultifunctionPDF.
type MultiOption func(*multiConfig)

// WithCandidates replaces the candidate list.
func WithCandidates(names ...ModelName) MultiOption {
	return func(c *multiConfig) { c.candidates = append([]ModelName(nil), names...) }
}

// WithMandatory replaces the set of candidates whose failure is propagated
// instead of marking them absent.
func WithMandatory(names ...ModelName) MultiOption {
	return func(c *multiConfig) {
		c.mandatory = make(map[ModelName]bool, len(names))
		for _, n := range names {
			c.mandatory[n] = true
		}
	}
}

// WithFitOptions forwards options to every FitPDF call.
func WithFitOptions(opts ...Option) MultiOption {
	return func(c *multiConfig) { c.fitOpts = append(c.fitOpts, opts...) }
}

func defaultMultiConfig() multiConfig {
	cfg := multiConfig{candidates: append([]ModelName(nil), DefaultCandidates...)}
	WithMandatory(DefaultMandatory...)(&cfg)
	return cfg
}

// FitCandidates fits every candidate model to h. A candidate whose solve
// does not converge, or whose fit region is too small for it, is kept in the
// set as absent, unless it is mandatory, in which case its error is
// returned. Other input errors apply to every model and are always returned.
func FitCandidates(h histogram.Histogram, stats *histogram.SummaryStats, opts ...MultiOption) (CandidateSet, error) {
	cfg := defaultMultiConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	fitOpts := make([]Option, 0, len(cfg.fitOpts)+1)
	fitOpts = append(fitOpts, cfg.fitOpts...)
	fitOpts = append(fitOpts, WithSummary(stats))

	set := make(CandidateSet, 0, len(cfg.candidates))
	for _, name := range cfg.candidates {
		res, err := FitPDF(h, name, fitOpts...)
		if err != nil {
			if !recoverable(err) || cfg.mandatory[name] {
				return nil, err
			}
			set = append(set, Candidate{Name: name, Err: err})
			continue
		}
		set = append(set, Candidate{Name: name, Result: res})
	}
	return set, nil
}

// recoverable reports whether err concerns only the model that raised it.
func recoverable(err error) bool {
	var conv *FitConvergenceError
	return errors.As(err, &conv) || errors.Is(err, ErrRegionTooSmall)
}

// FitMultifunctionPDF fits the candidate models and returns the one with the
// lowest error score.
func FitMultifunctionPDF(h histogram.Histogram, stats *histogram.SummaryStats, opts ...MultiOption) (*Result, error) {
	set, err := FitCandidates(h, stats, opts...)
	if err != nil {
		return nil, err
	}
	return set.Best()
}
