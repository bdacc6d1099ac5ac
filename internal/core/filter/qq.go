package filter

import (
	"math"
	"sort"
)

// QQ pairs the sorted numeric samples of ys with standard normal quantiles.
// Plotting positions follow Blom: p_i = (i - 3/8) / (n + 1/4), i = 1..n.
// The returned xs hold theoretical quantiles and ys the ordered samples.
// Non-numeric samples have no place on a normal probability plot and are dropped.
func QQ(ys []any) (qx, qy []any) {
	samples := make([]float64, 0, len(ys))
	for _, raw := range ys {
		if y, ok := ToFloat(raw); ok && !math.IsNaN(y) {
			samples = append(samples, y)
		}
	}
	sort.Float64s(samples)

	n := float64(len(samples))
	qx = make([]any, len(samples))
	qy = make([]any, len(samples))
	for i, y := range samples {
		p := (float64(i+1) - 0.375) / (n + 0.25)
		qx[i] = NormalQuantile(p)
		qy[i] = y
	}
	return qx, qy
}

// NormalQuantile is the inverse CDF of the standard normal distribution.
func NormalQuantile(p float64) float64 {
	switch {
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	}
	return math.Sqrt2 * math.Erfinv(2*p-1)
}
