package parser

import "github.com/diamondjems016/galaxy-analysis/internal/histogram"

// Distribution is one binned field of one phase in a dataset archive.
type Distribution struct {
	Dataset string
	Time    float64
	Phase   string
	Field   string
	Bins    []float64 // N+1 edges shared by every field of the phase
	Hist    []float64 // N counts
	Stats   *histogram.SummaryStats
}

// Histogram validates the bins and counts.
func (d Distribution) Histogram() (histogram.Histogram, error) {
	return histogram.New(d.Bins, d.Hist)
}

// Key identifies the distribution inside its archive.
func (d Distribution) Key() string {
	return d.Phase + "/" + d.Field
}

// ParsedDistributionData holds every distribution of an archive in file order.
type ParsedDistributionData struct {
	Dataset       string
	Time          float64
	Distributions []Distribution
	Phases        []string // in order of first appearance
	Fields        []string // in order of first appearance
	ParseErrors   []string // non-fatal problems found while parsing
}

func NewParsedDistributionData() *ParsedDistributionData {
	return &ParsedDistributionData{
		Distributions: make([]Distribution, 0),
		Phases:        make([]string, 0),
		Fields:        make([]string, 0),
		ParseErrors:   make([]string, 0),
	}
}

// Row keys of the archive format.
const (
	keyDataset  = "Dataset"
	keyTime     = "Time"
	keyPhase    = "Phase"
	keyBins     = "bins"
	keyField    = "Field"
	keyHist     = "hist"
	keyMean     = "mean"
	keyStd      = "std"
	keyQ1       = "Q1"
	keyQ3       = "Q3"
	keyDecile1  = "decile_1"
	keyDecile9  = "decile_9"
	missingText = "None"
)
