package analysis

import (
	"log/slog"

	"github.com/diamondjems016/galaxy-analysis/internal/fit"
	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

// Config controls how every distribution of an archive is fitted.
type Config struct {
	Candidates  []fit.ModelName
	Mandatory   []fit.ModelName // empty means no candidate is mandatory
	Method      fit.Method
	Region      fit.RegionPolicy
	SlopeBounds [2]float64
	Solver      fit.SolverSettings
	Workers     int    // concurrent fits, at least 1
	Phase       string // only analyze this phase when set
	Field       string // only analyze this field when set
	Logger      *slog.Logger
}

// DefaultConfig mirrors the defaults of fit.FitMultifunctionPDF.
func DefaultConfig() Config {
	return Config{
		Candidates:  append([]fit.ModelName(nil), fit.DefaultCandidates...),
		Mandatory:   append([]fit.ModelName(nil), fit.DefaultMandatory...),
		Method:      fit.MethodLeastSquares,
		Region:      fit.RegionPositive,
		SlopeBounds: fit.DefaultSlopeBounds,
		Solver:      fit.DefaultSolverSettings(),
		Workers:     4,
	}
}

// CandidateSummary is the outcome of one candidate model.
type CandidateSummary struct {
	Model   fit.ModelName
	Params  []float64
	Error   float64 // NaN when the candidate failed
	Failure string  // why the candidate is absent
}

// DistributionResult holds the analysis of one phase/field distribution.
type DistributionResult struct {
	Dataset      string
	Time         float64
	Phase        string
	Field        string
	Fingerprint  uint64
	NumBins      int
	Best         *fit.Result // nil when no model could be fitted
	Candidates   []CandidateSummary
	Metrics      histogram.Metrics
	ReducedError float64 // Best.Error per contributing bin
	Error        string  // If the distribution could not be fitted
}

// Key identifies the result inside its archive.
func (r DistributionResult) Key() string {
	return r.Phase + "/" + r.Field
}

// RankedFitInfo is used for ranking distributions by fit quality.
type RankedFitInfo struct {
	Phase string
	Field string
	Model fit.ModelName
	Value float64 // error score of the best model
}

// AnalysisResults holds all results from the analysis.
type AnalysisResults struct {
	Dataset        string
	Time           float64
	Results        []DistributionResult
	RankedByError  []RankedFitInfo // Sorted by error score, descending
	AnalysisErrors []string
}

func NewAnalysisResults() *AnalysisResults {
	return &AnalysisResults{
		Results:        make([]DistributionResult, 0),
		RankedByError:  make([]RankedFitInfo, 0),
		AnalysisErrors: make([]string, 0),
	}
}

// Phases lists the phases present in the results in order of first appearance.
func (r *AnalysisResults) Phases() []string {
	seen := make(map[string]bool)
	var phases []string
	for _, res := range r.Results {
		if !seen[res.Phase] {
			seen[res.Phase] = true
			phases = append(phases, res.Phase)
		}
	}
	return phases
}

// Fitted counts the distributions that have a best model.
func (r *AnalysisResults) Fitted() int {
	n := 0
	for _, res := range r.Results {
		if res.Best != nil {
			n++
		}
	}
	return n
}
