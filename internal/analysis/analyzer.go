package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/diamondjems016/galaxy-analysis/internal/fit"
	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
	"github.com/diamondjems016/galaxy-analysis/internal/parser"
)

// AnalyzeDistributions fits the candidate models to every distribution of
// parsedData that passes the phase and field filters. Distributions that
// cannot be fitted are kept in Results with Error set and reported in
// AnalysisErrors; only a cancelled context aborts the run.
func AnalyzeDistributions(ctx context.Context, parsedData *parser.ParsedDistributionData, cfg Config) (*AnalysisResults, error) {
	if parsedData == nil || len(parsedData.Distributions) == 0 {
		return nil, fmt.Errorf("parsed data is nil or empty, cannot analyze")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	selected := make([]parser.Distribution, 0, len(parsedData.Distributions))
	for _, d := range parsedData.Distributions {
		if cfg.Phase != "" && d.Phase != cfg.Phase {
			continue
		}
		if cfg.Field != "" && d.Field != cfg.Field {
			continue
		}
		selected = append(selected, d)
	}

	results := NewAnalysisResults()
	results.Dataset = parsedData.Dataset
	results.Time = parsedData.Time
	if len(selected) == 0 {
		results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf("No distribution matches phase %q and field %q.", cfg.Phase, cfg.Field))
		return results, nil
	}

	opts := cfg.multiOptions()
	out := make([]DistributionResult, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, d := range selected {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = analyzeDistribution(d, opts, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, res := range out {
		results.Results = append(results.Results, res)
		if res.Best == nil {
			results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf("Skipping %s: %s", res.Key(), res.Error))
			continue
		}
		results.RankedByError = append(results.RankedByError, RankedFitInfo{
			Phase: res.Phase,
			Field: res.Field,
			Model: res.Best.Name,
			Value: res.Best.Error,
		})
	}

	sort.SliceStable(results.RankedByError, func(i, j int) bool {
		return results.RankedByError[i].Value > results.RankedByError[j].Value // Descending
	})

	if results.Fitted() == 0 {
		results.AnalysisErrors = append(results.AnalysisErrors, "Analysis completed but no distribution could be fitted.")
	}
	return results, nil
}

func (cfg Config) multiOptions() []fit.MultiOption {
	candidates := cfg.Candidates
	if len(candidates) == 0 {
		candidates = fit.DefaultCandidates
	}
	return []fit.MultiOption{
		fit.WithCandidates(candidates...),
		fit.WithMandatory(cfg.Mandatory...),
		fit.WithFitOptions(
			fit.WithMethod(cfg.Method),
			fit.WithRegionPolicy(cfg.Region),
			fit.WithSlopeBounds(cfg.SlopeBounds[0], cfg.SlopeBounds[1]),
			fit.WithSolverSettings(cfg.Solver),
		),
	}
}

func analyzeDistribution(d parser.Distribution, opts []fit.MultiOption, logger *slog.Logger) DistributionResult {
	res := DistributionResult{
		Dataset:      d.Dataset,
		Time:         d.Time,
		Phase:        d.Phase,
		Field:        d.Field,
		ReducedError: math.NaN(),
		Metrics: histogram.Metrics{
			Median:      math.NaN(),
			IQR:         math.NaN(),
			Q90Q10Range: math.NaN(),
		},
	}

	h, err := d.Histogram()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.NumBins = h.NumBins()
	res.Fingerprint = h.Fingerprint()
	res.Metrics = histogram.ComputeMetrics(h, d.Stats)

	set, err := fit.FitCandidates(h, d.Stats, opts...)
	if err != nil {
		res.Error = describeFitError(err)
		logger.Debug("fit failed", "phase", d.Phase, "field", d.Field, "error", err)
		return res
	}

	res.Candidates = make([]CandidateSummary, 0, len(set))
	for _, c := range set {
		summary := CandidateSummary{Model: c.Name, Error: math.NaN()}
		if c.Present() {
			summary.Params = c.Result.Params
			summary.Error = c.Result.Error
			logger.Debug("fit", "phase", d.Phase, "field", d.Field, "model", string(c.Name), "error", c.Result.Error)
		} else {
			summary.Failure = c.Err.Error()
			logger.Debug("fit absent", "phase", d.Phase, "field", d.Field, "model", string(c.Name), "reason", c.Err)
		}
		res.Candidates = append(res.Candidates, summary)
	}

	best, err := set.Best()
	if err != nil {
		res.Error = describeFitError(err)
		return res
	}
	res.Best = best
	res.ReducedError = best.ReducedError()
	return res
}

// describeFitError marks a convergence failure that reached the caller,
// which only happens for a mandatory candidate.
func describeFitError(err error) string {
	var conv *fit.FitConvergenceError
	if errors.As(err, &conv) {
		return "mandatory model " + err.Error()
	}
	return err.Error()
}
