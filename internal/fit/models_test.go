package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate/quad"
)

// TestLookup verifies every registered name resolves to a model reporting that name
func TestLookup(t *testing.T) {
	for _, name := range Names() {
		m, err := Lookup(name)
		require.NoError(t, err)
		require.Equal(t, name, m.Name())
	}

	_, err := Lookup("nope")
	require.Error(t, err)
}

// TestLogNormalPowerLawContinuity verifies the tail joins the core at the sample mean
func TestLogNormalPowerLawContinuity(t *testing.T) {
	m := lognormalPowerLawModel{}
	params := []float64{-1, 2.5, 0.8}
	aux := Aux{Mean: 1.3}

	below := m.Evaluate(aux.Mean, params, aux)
	above := m.Evaluate(math.Nextafter(aux.Mean, math.Inf(1)), params, aux)
	require.InDelta(t, below, above, 1e-9)

	require.InDelta(t, lognormalPDF(0.5, -1, 0.8), m.Evaluate(0.5, params, aux), 1e-15)
	require.InDelta(t, below*math.Pow(2, -2.5), m.Evaluate(2*aux.Mean, params, aux), 1e-15)
	require.True(t, math.IsNaN(m.Evaluate(1, params, Aux{})))
}

// TestLogNormalPowerLawImpliedNorm verifies the implied normalization integrates to one
func TestLogNormalPowerLawImpliedNorm(t *testing.T) {
	m := lognormalPowerLawModel{}
	params := []float64{-1, 2.5, 0.8}
	aux := Aux{Mean: 1.3}

	norm := m.ImpliedNorm(params, aux)
	require.False(t, math.IsNaN(norm))

	core := quad.Fixed(func(x float64) float64 { return m.Evaluate(x, params, aux) }, 1e-9, aux.Mean, 2000, nil, 0)
	tail := m.Evaluate(aux.Mean, params, aux) * aux.Mean / (params[1] - 1)
	require.InDelta(t, 1.0, norm*(core+tail), 1e-3)

	require.True(t, math.IsNaN(m.ImpliedNorm([]float64{-1, 1, 0.8}, aux)))
}

// TestGaussianPowerLawContinuity verifies the tail joins the core with matching value
func TestGaussianPowerLawContinuity(t *testing.T) {
	m := gaussianPowerLawModel{}
	params := []float64{1, 3, 0.5}
	xt := gaussianTransition(1, 3, 0.5)

	require.Greater(t, xt, 1.0)
	left := m.Evaluate(xt, params, Aux{})
	right := m.Evaluate(math.Nextafter(xt, math.Inf(1)), params, Aux{})
	require.InDelta(t, left, right, 1e-9)
	require.Equal(t, 0.0, m.Evaluate(1, []float64{1, 3, 0}, Aux{}))
}

// TestPowerLawEvaluate verifies the power-law shapes
func TestPowerLawEvaluate(t *testing.T) {
	require.InDelta(t, 0.25, powerLawModel{}.Evaluate(2, []float64{2, 1}, Aux{}), 1e-15)
	require.Equal(t, 0.0, powerLawModel{}.Evaluate(-1, []float64{2, 1}, Aux{}))
	require.InDelta(t, 0.25*math.Exp(-0.5), truncatedPowerLawModel{}.Evaluate(2, []float64{2, 1, 1}, Aux{}), 1e-15)
}

// TestBoundTransformRoundTrip verifies the parameter mapping inverts inside the bounds
func TestBoundTransformRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		p      float64
	}{
		{"two sided", -2, 3, 0.7},
		{"at lower", 0, 1, 0},
		{"at upper", 0, 1, 1},
		{"lower only", 1, math.Inf(1), 4},
		{"upper only", math.Inf(-1), 5, -3},
		{"free", math.Inf(-1), math.Inf(1), 12.5},
		{"fixed", 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := boundTransform{lo: tt.lo, hi: tt.hi}
			require.InDelta(t, tt.p, tr.external(tr.internal(tt.p)), 1e-9)
			for _, z := range []float64{-100, -1, 0, 1, 100} {
				p := tr.external(z)
				require.GreaterOrEqual(t, p, tt.lo)
				require.LessOrEqual(t, p, tt.hi)
			}
		})
	}
}

// TestParseMethodAndRegion verifies config names map onto the enums
func TestParseMethodAndRegion(t *testing.T) {
	m, err := ParseMethod("KS")
	require.NoError(t, err)
	require.Equal(t, MethodKS, m)
	m, err = ParseMethod("")
	require.NoError(t, err)
	require.Equal(t, MethodLeastSquares, m)
	_, err = ParseMethod("mcmc")
	require.Error(t, err)

	r, err := ParseRegionPolicy("peak-window")
	require.NoError(t, err)
	require.Equal(t, RegionPeakWindow, r)
	require.Equal(t, "peak-window", r.String())
	_, err = ParseRegionPolicy("left")
	require.Error(t, err)
}
