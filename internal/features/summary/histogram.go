package summary

import "math"

// DefaultBins matches the profit histogram.
const DefaultBins = 10

// Histogram is a fixed-width binning of a value range.
type Histogram struct {
	Edges  []float64 // len(Counts)+1 ascending bucket edges
	Counts []int
}

func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Bin splits [min, max] of values into bins equal-width buckets.
// Buckets are half-open except the last, which includes max. A constant input
// is spread over [v-0.5, v+0.5]. NaN and ±Inf values are ignored.
func Bin(values []float64, bins int) Histogram {
	if bins < 1 {
		bins = DefaultBins
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, v := range values {
		if !finite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		n++
	}

	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	if n == 0 {
		return h
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	// divide before subtracting so huge ranges do not overflow to Inf
	width := hi/float64(bins) - lo/float64(bins)
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi

	for _, v := range values {
		if !finite(v) {
			continue
		}
		pos := math.Floor(v/width - lo/width)
		idx := 0
		switch {
		case pos >= float64(bins):
			idx = bins - 1
		case pos > 0:
			idx = int(pos)
		}
		h.Counts[idx]++
	}
	return h
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func nan() float64 { return math.NaN() }
