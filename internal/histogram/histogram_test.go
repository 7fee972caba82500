package histogram

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewValidates verifies malformed edge/count pairs are rejected
func TestNewValidates(t *testing.T) {
	tests := []struct {
		name   string
		edges  []float64
		counts []float64
	}{
		{"too few edges", []float64{1}, []float64{}},
		{"length mismatch", []float64{0, 1, 2}, []float64{1}},
		{"not increasing", []float64{0, 2, 1}, []float64{1, 1}},
		{"duplicate edge", []float64{0, 1, 1}, []float64{1, 1}},
		{"negative count", []float64{0, 1, 2}, []float64{1, -1}},
		{"nan count", []float64{0, 1, 2}, []float64{1, math.NaN()}},
		{"infinite edge", []float64{0, 1, math.Inf(1)}, []float64{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.edges, tt.counts)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidHistogram))
		})
	}
}

// TestNewCopiesInput verifies the histogram does not alias caller slices
func TestNewCopiesInput(t *testing.T) {
	edges := []float64{0, 1, 2}
	counts := []float64{3, 4}

	h, err := New(edges, counts)
	require.NoError(t, err)

	edges[0] = -5
	counts[0] = 99
	require.Equal(t, 0.0, h.Edges[0])
	require.Equal(t, 3.0, h.Counts[0])
}

// TestCentersWidthsDensity verifies derived quantities on negative and positive edges
func TestCentersWidthsDensity(t *testing.T) {
	h, err := New([]float64{-2, 0, 1, 5}, []float64{4, 0, 8})
	require.NoError(t, err)

	require.Equal(t, 3, h.NumBins())
	require.Equal(t, []float64{-1, 0.5, 3}, h.Centers())
	require.Equal(t, []float64{2, 1, 4}, h.Widths())

	density, err := h.Density(nil)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 0, 2}, density)

	density, err = h.Density([]float64{1, 1, 3})
	require.NoError(t, err)
	require.Equal(t, []float64{1, -1, -1}, density)

	_, err = h.Density([]float64{1})
	require.Error(t, err)
}

// TestPeakIndex verifies the first maximum wins
func TestPeakIndex(t *testing.T) {
	require.Equal(t, -1, PeakIndex(nil))
	require.Equal(t, 0, PeakIndex([]float64{3}))
	require.Equal(t, 1, PeakIndex([]float64{1, 5, 5, 2}))
}

// TestFingerprint verifies identical inputs hash identically and changes are detected
func TestFingerprint(t *testing.T) {
	a, err := New([]float64{0, 1, 2}, []float64{1, 2})
	require.NoError(t, err)
	b, err := New([]float64{0, 1, 2}, []float64{1, 2})
	require.NoError(t, err)
	c, err := New([]float64{0, 1, 2}, []float64{2, 1})
	require.NoError(t, err)

	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

// TestInterp verifies clamping and flat-run handling
func TestInterp(t *testing.T) {
	xp := []float64{0.1, 0.4, 0.4, 1.0}
	fp := []float64{1, 2, 3, 4}

	require.Equal(t, 1.0, Interp(0.0, xp, fp))
	require.Equal(t, 4.0, Interp(2.0, xp, fp))
	require.InDelta(t, 1.5, Interp(0.25, xp, fp), 1e-12)
	require.InDelta(t, 3.5, Interp(0.7, xp, fp), 1e-12)
	require.True(t, math.IsNaN(Interp(0.5, nil, nil)))
}

// TestComputeMetrics verifies median and log-range metrics
func TestComputeMetrics(t *testing.T) {
	h, err := New([]float64{1e-4, 1e-3, 1e-2, 1e-1}, []float64{1, 2, 1})
	require.NoError(t, err)

	q1, q3 := 1e-3, 1e-2
	d1, d9 := 1e-4, 1e-1
	m := ComputeMetrics(h, &SummaryStats{Mean: 0.01, Std: 0.01, Q1: &q1, Q3: &q3, Decile1: &d1, Decile9: &d9})

	// cdf = [0.25, 0.75, 1.0]; 0.5 falls halfway between the first two centers
	expected := math.Log10(0.5 * (h.Centers()[0] + h.Centers()[1]))
	require.InDelta(t, expected, m.Median, 1e-12)
	require.InDelta(t, 1.0, m.IQR, 1e-12)
	require.InDelta(t, 3.0, m.Q90Q10Range, 1e-12)

	missing := ComputeMetrics(h, &SummaryStats{Mean: 1, Std: 1})
	require.True(t, math.IsNaN(missing.IQR))
	require.True(t, math.IsNaN(missing.Q90Q10Range))

	empty, err := New([]float64{1, 2}, []float64{0})
	require.NoError(t, err)
	require.True(t, math.IsNaN(ComputeMetrics(empty, nil).Median))
}
