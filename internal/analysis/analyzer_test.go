package analysis

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/diamondjems016/galaxy-analysis/internal/fit"
	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
	"github.com/diamondjems016/galaxy-analysis/internal/parser"
)

func lognormalDistribution(phase, field string, mu, sigma float64) parser.Distribution {
	edges := floats.LogSpan(make([]float64, 41), 0.05, 20)
	dist := distuv.LogNormal{Mu: mu, Sigma: sigma}
	counts := make([]float64, len(edges)-1)
	for i := range counts {
		counts[i] = 1e4 * (dist.CDF(edges[i+1]) - dist.CDF(edges[i]))
	}
	q1, q3 := dist.Quantile(0.25), dist.Quantile(0.75)
	return parser.Distribution{
		Dataset: "DD0400",
		Time:    400,
		Phase:   phase,
		Field:   field,
		Bins:    edges,
		Hist:    counts,
		Stats: &histogram.SummaryStats{
			Mean: dist.Mean(),
			Std:  dist.StdDev(),
			Q1:   &q1,
			Q3:   &q3,
		},
	}
}

func testData() *parser.ParsedDistributionData {
	data := parser.NewParsedDistributionData()
	data.Dataset = "DD0400"
	data.Time = 400
	data.Distributions = []parser.Distribution{
		lognormalDistribution("CNM", "O_Fraction", 0, 0.5),
		lognormalDistribution("CNM", "Fe_Fraction", -0.5, 0.8),
		lognormalDistribution("WNM", "O_Fraction", 0.3, 0.4),
		{
			Dataset: "DD0400",
			Phase:   "WNM",
			Field:   "Empty",
			Bins:    []float64{0.1, 1, 10},
			Hist:    []float64{0, 0},
			Stats:   &histogram.SummaryStats{Mean: 1, Std: 1},
		},
	}
	return data
}

func TestAnalyzeDistributions(t *testing.T) {
	data := testData()
	var logs bytes.Buffer
	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	results, err := AnalyzeDistributions(context.Background(), data, cfg)
	require.NoError(t, err)
	require.Equal(t, "DD0400", results.Dataset)
	require.Len(t, results.Results, 4)
	require.Equal(t, 3, results.Fitted())
	require.Equal(t, []string{"CNM", "WNM"}, results.Phases())

	// results keep archive order regardless of worker scheduling
	for i, d := range data.Distributions {
		require.Equal(t, d.Phase, results.Results[i].Phase)
		require.Equal(t, d.Field, results.Results[i].Field)
	}

	first := results.Results[0]
	require.NotNil(t, first.Best)
	require.Len(t, first.Candidates, len(fit.DefaultCandidates))
	require.NotZero(t, first.Fingerprint)
	require.Equal(t, 40, first.NumBins)
	require.InDelta(t, first.Best.Error/float64(first.Best.PositiveBins), first.ReducedError, 1e-12)
	require.False(t, math.IsNaN(first.Metrics.Median))
	require.False(t, math.IsNaN(first.Metrics.IQR))
	require.True(t, math.IsNaN(first.Metrics.Q90Q10Range))

	empty := results.Results[3]
	require.Nil(t, empty.Best)
	require.Contains(t, empty.Error, "invalid input")
	require.Len(t, results.AnalysisErrors, 1)
	require.Contains(t, results.AnalysisErrors[0], "WNM/Empty")

	require.Len(t, results.RankedByError, 3)
	for i := 1; i < len(results.RankedByError); i++ {
		require.GreaterOrEqual(t, results.RankedByError[i-1].Value, results.RankedByError[i].Value)
	}

	require.Contains(t, logs.String(), "field=O_Fraction")
	require.Contains(t, logs.String(), "model=log-normal")
}

func TestAnalyzeDistributionsSequentialMatchesParallel(t *testing.T) {
	data := testData()
	cfg := DefaultConfig()

	cfg.Workers = 1
	sequential, err := AnalyzeDistributions(context.Background(), data, cfg)
	require.NoError(t, err)
	cfg.Workers = 8
	parallel, err := AnalyzeDistributions(context.Background(), data, cfg)
	require.NoError(t, err)

	require.Equal(t, sequential.RankedByError, parallel.RankedByError)
}

func TestAnalyzeDistributionsFilters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Phase = "CNM"
	cfg.Field = "Fe_Fraction"

	results, err := AnalyzeDistributions(context.Background(), testData(), cfg)
	require.NoError(t, err)
	require.Len(t, results.Results, 1)
	require.Equal(t, "CNM/Fe_Fraction", results.Results[0].Key())
	require.Empty(t, results.AnalysisErrors)

	cfg.Phase = "HIM"
	results, err = AnalyzeDistributions(context.Background(), testData(), cfg)
	require.NoError(t, err)
	require.Empty(t, results.Results)
	require.Len(t, results.AnalysisErrors, 1)
}

func TestAnalyzeDistributionsCandidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Phase = "CNM"
	cfg.Candidates = []fit.ModelName{fit.PowerLaw, fit.TruncatedPowerLaw}
	cfg.Mandatory = nil

	results, err := AnalyzeDistributions(context.Background(), testData(), cfg)
	require.NoError(t, err)
	for _, res := range results.Results {
		require.Len(t, res.Candidates, 2)
		require.Equal(t, fit.PowerLaw, res.Candidates[0].Model)
		if res.Best != nil {
			require.Contains(t, []fit.ModelName{fit.PowerLaw, fit.TruncatedPowerLaw}, res.Best.Name)
		}
	}
}

func TestAnalyzeDistributionsMandatoryFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Phase = "CNM"
	cfg.Solver = fit.SolverSettings{MaxIterations: 1}

	results, err := AnalyzeDistributions(context.Background(), testData(), cfg)
	require.NoError(t, err)
	require.Zero(t, results.Fitted())
	for _, res := range results.Results {
		require.True(t, strings.HasPrefix(res.Error, "mandatory model"))
	}
	require.Contains(t, results.AnalysisErrors[len(results.AnalysisErrors)-1], "no distribution could be fitted")
}

func TestAnalyzeDistributionsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeDistributions(ctx, testData(), DefaultConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeDistributionsEmpty(t *testing.T) {
	_, err := AnalyzeDistributions(context.Background(), parser.NewParsedDistributionData(), DefaultConfig())
	require.Error(t, err)
	_, err = AnalyzeDistributions(context.Background(), nil, DefaultConfig())
	require.Error(t, err)
}
