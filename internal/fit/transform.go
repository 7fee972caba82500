package fit

import "math"

// boundTransform maps an unconstrained solver coordinate onto a bounded
// parameter, following the MINUIT conventions: sin for two-sided limits,
// sqrt for one-sided limits and identity when unbounded.
type boundTransform struct {
	lo, hi float64
}

func (t boundTransform) external(z float64) float64 {
	loFinite, hiFinite := !math.IsInf(t.lo, 0), !math.IsInf(t.hi, 0)
	switch {
	case loFinite && hiFinite:
		if t.hi == t.lo {
			return t.lo
		}
		p := t.lo + (t.hi-t.lo)*(math.Sin(z)+1)/2
		return math.Min(math.Max(p, t.lo), t.hi)
	case loFinite:
		return math.Max(t.lo-1+math.Sqrt(z*z+1), t.lo)
	case hiFinite:
		return math.Min(t.hi+1-math.Sqrt(z*z+1), t.hi)
	default:
		return z
	}
}

// internal is the inverse of external for p inside the bounds.
func (t boundTransform) internal(p float64) float64 {
	loFinite, hiFinite := !math.IsInf(t.lo, 0), !math.IsInf(t.hi, 0)
	switch {
	case loFinite && hiFinite:
		if t.hi == t.lo {
			return 0
		}
		r := 2*(p-t.lo)/(t.hi-t.lo) - 1
		return math.Asin(math.Min(math.Max(r, -1), 1))
	case loFinite:
		d := math.Max(p-t.lo, 0) + 1
		return math.Sqrt(d*d - 1)
	case hiFinite:
		d := math.Max(t.hi-p, 0) + 1
		return math.Sqrt(d*d - 1)
	default:
		return p
	}
}

type paramSpace []boundTransform

func newParamSpace(b Bounds) paramSpace {
	ps := make(paramSpace, len(b.Lower))
	for i := range ps {
		ps[i] = boundTransform{lo: b.Lower[i], hi: b.Upper[i]}
	}
	return ps
}

func (ps paramSpace) toExternal(dst, z []float64) {
	for i, t := range ps {
		dst[i] = t.external(z[i])
	}
}

func (ps paramSpace) toInternal(p []float64) []float64 {
	z := make([]float64, len(p))
	for i, t := range ps {
		z[i] = t.internal(p[i])
	}
	return z
}
