package scene

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BoxStats summarizes a sample the way a Tukey box plot draws it.
type BoxStats struct {
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	LowerFence float64 `json:"lowerfence"`
	UpperFence float64 `json:"upperfence"`
	Mean       float64 `json:"mean"`
	N          int     `json:"n"`
}

// Summarize computes quartiles, mean and 1.5 IQR fences of values. The
// fences are clamped to the most extreme data points inside them. NaNs are
// dropped; an empty sample returns ok == false.
func Summarize(values []float64) (bs BoxStats, ok bool) {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		return BoxStats{}, false
	}
	slices.Sort(x)

	bs.N = len(x)
	bs.Q1 = stat.Quantile(0.25, stat.Empirical, x, nil)
	bs.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	bs.Q3 = stat.Quantile(0.75, stat.Empirical, x, nil)
	bs.Mean = stat.Mean(x, nil)

	iqr := bs.Q3 - bs.Q1
	lo, hi := bs.Q1-1.5*iqr, bs.Q3+1.5*iqr

	bs.LowerFence = bs.Q1
	for _, v := range x {
		if v >= lo {
			bs.LowerFence = v
			break
		}
	}
	bs.UpperFence = bs.Q3
	for i := len(x) - 1; i >= 0; i-- {
		if x[i] <= hi {
			bs.UpperFence = x[i]
			break
		}
	}
	return bs, true
}

// Histogram holds counts for nbins equal-width bins. Edges has one more
// element than Counts.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// NewHistogram bins values into nbins equal-width bins spanning the data.
// NaNs are dropped.
func NewHistogram(values []float64, nbins int) Histogram {
	if nbins < 1 {
		nbins = 1
	}

	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		return Histogram{Counts: make([]float64, 0)}
	}
	slices.Sort(x)

	lo, hi := floats.Min(x), floats.Max(x)
	if lo == hi {
		hi = lo + 1
	}
	// The top divider must lie strictly above the largest value.
	hi = math.Nextafter(hi, math.Inf(1))

	edges := floats.Span(make([]float64, nbins+1), lo, hi)
	edges[nbins] = hi
	return Histogram{
		Edges:  edges,
		Counts: stat.Histogram(nil, edges, x, nil),
	}
}
