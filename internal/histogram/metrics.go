package histogram

import (
	"math"
	"sort"
)

// ComputeMetrics derives the median from the histogram's cumulative
// distribution and the quartile and decile ranges from stats.
// Any value whose inputs are missing or non-positive is NaN.
func ComputeMetrics(h Histogram, stats *SummaryStats) Metrics {
	m := Metrics{
		Median:      math.NaN(),
		IQR:         math.NaN(),
		Q90Q10Range: math.NaN(),
	}

	total := h.Total()
	if total > 0 {
		cdf := make([]float64, len(h.Counts))
		running := 0.0
		for i, c := range h.Counts {
			running += c
			cdf[i] = running / total
		}
		median := Interp(0.5, cdf, h.Centers())
		if median > 0 {
			m.Median = math.Log10(median)
		}
	}

	if stats == nil {
		return m
	}
	m.IQR = logRange(stats.Q1, stats.Q3)
	m.Q90Q10Range = logRange(stats.Decile1, stats.Decile9)
	return m
}

func logRange(lo, hi *float64) float64 {
	if lo == nil || hi == nil || *lo <= 0 || *hi <= 0 {
		return math.NaN()
	}
	return math.Log10(*hi) - math.Log10(*lo)
}

// Interp linearly interpolates fp at x over the non-decreasing abscissae xp,
// clamping to the end values outside the range. Flat runs in xp resolve to
// the right-most sample at or below x.
func Interp(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if n == 0 || n != len(fp) {
		return math.NaN()
	}
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}
	// first index with xp[i] > x; xp[j] <= x < xp[j+1] for j = i-1
	i := sort.Search(n, func(k int) bool { return xp[k] > x })
	j := i - 1
	slope := (fp[i] - fp[j]) / (xp[i] - xp[j])
	return fp[j] + slope*(x-xp[j])
}
