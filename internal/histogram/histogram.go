package histogram

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// New validates edges and counts and returns a Histogram that owns copies of both.
func New(edges, counts []float64) (Histogram, error) {
	if len(edges) < 2 {
		return Histogram{}, fmt.Errorf("%w: need at least 2 edges, got %d", ErrInvalidHistogram, len(edges))
	}
	if len(edges) != len(counts)+1 {
		return Histogram{}, fmt.Errorf("%w: %d edges for %d counts", ErrInvalidHistogram, len(edges), len(counts))
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return Histogram{}, fmt.Errorf("%w: edge %d is not finite", ErrInvalidHistogram, i)
		}
		if i > 0 && e <= edges[i-1] {
			return Histogram{}, fmt.Errorf("%w: edges not strictly increasing at %d", ErrInvalidHistogram, i)
		}
	}
	for i, c := range counts {
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			return Histogram{}, fmt.Errorf("%w: count %d is %v", ErrInvalidHistogram, i, c)
		}
	}

	h := Histogram{
		Edges:  make([]float64, len(edges)),
		Counts: make([]float64, len(counts)),
	}
	copy(h.Edges, edges)
	copy(h.Counts, counts)
	return h, nil
}

// NumBins returns the number of bins.
func (h Histogram) NumBins() int {
	return len(h.Counts)
}

// Centers returns the bin midpoints.
func (h Histogram) Centers() []float64 {
	centers := make([]float64, len(h.Counts))
	for i := range centers {
		centers[i] = 0.5 * (h.Edges[i] + h.Edges[i+1])
	}
	return centers
}

// Widths returns the bin widths.
func (h Histogram) Widths() []float64 {
	widths := make([]float64, len(h.Counts))
	for i := range widths {
		widths[i] = h.Edges[i+1] - h.Edges[i]
	}
	return widths
}

// Density returns counts divided by bin width. When residual is non-nil it is
// subtracted elementwise, which may leave negative entries.
func (h Histogram) Density(residual []float64) ([]float64, error) {
	if residual != nil && len(residual) != len(h.Counts) {
		return nil, fmt.Errorf("residual has %d entries, histogram has %d bins", len(residual), len(h.Counts))
	}
	density := make([]float64, len(h.Counts))
	for i, c := range h.Counts {
		density[i] = c / (h.Edges[i+1] - h.Edges[i])
		if residual != nil {
			density[i] -= residual[i]
		}
	}
	return density, nil
}

// Total returns the sum of all counts.
func (h Histogram) Total() float64 {
	sum := 0.0
	for _, c := range h.Counts {
		sum += c
	}
	return sum
}

// Fingerprint hashes edges and counts so identical inputs can be recognised
// across runs and reports.
func (h Histogram) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, v := range h.Edges {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	for _, v := range h.Counts {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// PeakIndex returns the index of the largest value, first one on ties.
// It returns -1 for an empty slice.
func PeakIndex(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}
