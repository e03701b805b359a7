// Package numeric holds the clamped piecewise-linear interpolation shared by
// the threshold interpolator and the recalibrator.
package numeric

import "sort"

// Bracket locates x within the strictly ascending sequence xp.
//
// The interpolated value is fp[lo] + w*(fp[hi]-fp[lo]). An exact hit on
// xp[j] returns lo == hi == j with w == 0. Points outside [xp[0], xp[n-1]]
// clamp to the nearest end (flat extrapolation), as does NaN.
func Bracket(xp []float64, x float64) (lo, hi int, w float64) {
	n := len(xp)
	i := sort.SearchFloat64s(xp, x)
	switch {
	case i < n && xp[i] == x:
		return i, i, 0
	case i == 0:
		return 0, 0, 0
	case i >= n:
		return n - 1, n - 1, 0
	}
	lo, hi = i-1, i
	return lo, hi, (x - xp[lo]) / (xp[hi] - xp[lo])
}

// Interp evaluates the clamped piecewise-linear function through (xp, fp) at x.
func Interp(x float64, xp, fp []float64) float64 {
	lo, hi, w := Bracket(xp, x)
	if lo == hi {
		return fp[lo]
	}
	return fp[lo] + w*(fp[hi]-fp[lo])
}

// InterpAll evaluates Interp at every point of xs.
func InterpAll(xs, xp, fp []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = Interp(x, xp, fp)
	}
	return out
}

// Extrapolate evaluates the piecewise-linear function through (xp, fp) at
// x, extending the first and last segments linearly beyond the table.
// With a single point the function is constant.
func Extrapolate(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if n == 1 {
		return fp[0]
	}
	switch {
	case x < xp[0]:
		return fp[0] + (x-xp[0])*(fp[1]-fp[0])/(xp[1]-xp[0])
	case x > xp[n-1]:
		return fp[n-1] + (x-xp[n-1])*(fp[n-1]-fp[n-2])/(xp[n-1]-xp[n-2])
	}
	return Interp(x, xp, fp)
}

// StrictlyAscending reports whether xs increases at every step.
func StrictlyAscending(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}

// AscendingOrder returns the indices that sort xs ascending, and false if
// xs contains duplicates or NaN.
func AscendingOrder(xs []float64) ([]int, bool) {
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })
	sorted := make([]float64, len(xs))
	for i, o := range order {
		sorted[i] = xs[o]
	}
	return order, StrictlyAscending(sorted)
}
