package histogram

import "errors"

// ErrInvalidHistogram is wrapped by every validation failure in New.
var ErrInvalidHistogram = errors.New("invalid histogram")

// Histogram holds N+1 bin edges and N non-negative counts.
// Centers and widths are always derived from Edges.
type Histogram struct {
	Edges  []float64
	Counts []float64
}

// SummaryStats describes the unbinned sample a histogram was built from.
// The quantiles are optional; archives written before they were tracked
// leave them nil.
type SummaryStats struct {
	Mean    float64
	Std     float64
	Q1      *float64
	Q3      *float64
	Decile1 *float64
	Decile9 *float64
}

// Metrics are the log10-space distribution widths reported next to a fit.
type Metrics struct {
	Median      float64 // log10 of the CDF-interpolated median
	IQR         float64 // log10(Q3) - log10(Q1)
	Q90Q10Range float64 // log10(decile_9) - log10(decile_1)
}
