package report

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diamondjems016/galaxy-analysis/internal/analysis"
	"github.com/diamondjems016/galaxy-analysis/internal/fit"
	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

func sampleResults() *analysis.AnalysisResults {
	best := &fit.Result{
		Name:         fit.LogNormalPowerLaw,
		Params:       []float64{-1.2, 2.5, 0.8},
		Covariance:   [][]float64{{0.01, 0, 0}, {0, math.Inf(1), 0}, {0, 0, 0.04}},
		Curve:        fit.Curve{Model: fit.LogNormalPowerLaw, Params: []float64{-1.2, 2.5, 0.8}, Aux: fit.Aux{Mean: 1.3}},
		Error:        0.42,
		Method:       fit.MethodLeastSquares,
		ImpliedNorm:  0.97,
		PositiveBins: 21,
	}

	results := analysis.NewAnalysisResults()
	results.Dataset = "DD0400"
	results.Time = 400
	results.Results = []analysis.DistributionResult{
		{
			Dataset:      "DD0400",
			Phase:        "CNM",
			Field:        "O_Fraction",
			Fingerprint:  0xabc,
			NumBins:      40,
			Best:         best,
			ReducedError: 0.02,
			Metrics:      histogram.Metrics{Median: -0.3, IQR: 0.4, Q90Q10Range: math.NaN()},
			Candidates: []analysis.CandidateSummary{
				{Model: fit.LogNormal, Error: math.NaN(), Failure: "fit log-normal did not converge: limit"},
				{Model: fit.LogNormalPowerLaw, Params: best.Params, Error: 0.42},
				{Model: fit.PowerLaw, Params: []float64{2, 1e-3}, Error: 3.1},
			},
		},
		{
			Dataset:      "DD0400",
			Phase:        "WNM",
			Field:        "Empty",
			ReducedError: math.NaN(),
			Metrics:      histogram.Metrics{Median: math.NaN(), IQR: math.NaN(), Q90Q10Range: math.NaN()},
			Error:        "invalid input for log-normal: no positive-density bins",
		},
	}
	results.RankedByError = []analysis.RankedFitInfo{
		{Phase: "CNM", Field: "O_Fraction", Model: fit.LogNormalPowerLaw, Value: 0.42},
	}
	results.AnalysisErrors = []string{"Skipping WNM/Empty: invalid input"}
	return results
}

func TestBuildPDFReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	err := BuildPDFReport(path, sampleResults(), Options{
		Method:      "least-squares",
		Region:      "positive",
		ParseErrors: []string{"Warning: Unknown row key 'Bogus' (CSV row 3). Ignored."},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuildPDFReportManyRows(t *testing.T) {
	results := sampleResults()
	row := results.Results[0]
	for i := 0; i < 120; i++ {
		results.Results = append(results.Results, row)
		results.RankedByError = append(results.RankedByError, results.RankedByError[0])
	}

	path := filepath.Join(t.TempDir(), "long.pdf")
	require.NoError(t, BuildPDFReport(path, results, Options{Title: "Long", Top: 25}))
}

func TestBuildPDFReportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, BuildPDFReport(path, nil, Options{}))
	require.NoError(t, BuildPDFReport(path, analysis.NewAnalysisResults(), Options{}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestExportResults(t *testing.T) {
	dir := t.TempDir()
	results := sampleResults()

	for _, name := range []string{"fits.json", "fits.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, ExportResults(path, results))

			got, err := ReadExport(path)
			require.NoError(t, err)
			require.Equal(t, "DD0400", got.Dataset)
			require.Len(t, got.Results, 2)
			require.Equal(t, results.AnalysisErrors, got.Warnings)

			first := got.Results[0]
			require.Equal(t, "0000000000000abc", first.Fingerprint)
			require.NotNil(t, first.Best)
			require.Equal(t, results.Results[0].Best.Curve, first.Best.Curve)
			require.InDelta(t, 1.0, first.Best.Curve.Evaluate(1.0)/results.Results[0].Best.Evaluate(1.0), 1e-12)
			require.Len(t, first.Best.Uncertainties, 3)
			require.InDelta(t, 0.1, float64(first.Best.Uncertainties[0]), 1e-12)
			require.True(t, math.IsNaN(float64(first.Best.Uncertainties[1])))
			require.True(t, math.IsNaN(float64(first.Q90Q10Range)))
			require.Len(t, first.Candidates, 3)
			require.NotEmpty(t, first.Candidates[0].Failure)

			second := got.Results[1]
			require.Nil(t, second.Best)
			require.NotEmpty(t, second.Error)
		})
	}

	plain, err := os.ReadFile(filepath.Join(dir, "fits.json"))
	require.NoError(t, err)
	require.True(t, json.Valid(plain))
	require.Contains(t, string(plain), `"q90_q10_log10": null`)

	compressed, err := os.ReadFile(filepath.Join(dir, "fits.json.zst"))
	require.NoError(t, err)
	require.False(t, json.Valid(compressed))
}

func TestExportResultsNil(t *testing.T) {
	require.Error(t, ExportResults(filepath.Join(t.TempDir(), "x.json"), nil))
}

func TestNullFloat(t *testing.T) {
	data, err := json.Marshal([]NullFloat{1.5, NullFloat(math.NaN()), NullFloat(math.Inf(-1))})
	require.NoError(t, err)
	require.Equal(t, `[1.5,null,null]`, string(data))

	var back []NullFloat
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, NullFloat(1.5), back[0])
	require.True(t, math.IsNaN(float64(back[1])))
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "n/a", formatValue(math.NaN()))
	require.Equal(t, "inf", formatValue(math.Inf(1)))
	require.Equal(t, "0.4242", formatValue(0.42424242))
	require.Equal(t, "1.5, n/a", formatParams([]float64{1.5, math.NaN()}))
}
